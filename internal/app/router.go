package app

import (
	apphttp "github.com/yungbote/coursify-backend/internal/http"
	"github.com/yungbote/coursify-backend/internal/observability"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *apphttp.Server {
	return apphttp.NewServer(cfg.Server.Addr, apphttp.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       cfg.Server.ServiceName,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		AuthMiddleware:    middleware.Auth,
		CourseHandler:     handlers.Course,
		ModuleHandler:     handlers.Module,
		LessonHandler:     handlers.Lesson,
		EnrollmentHandler: handlers.Enrollment,
		AnalyticsHandler:  handlers.Analytics,
		HealthHandler:     handlers.Health,
	})
}
