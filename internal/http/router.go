package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/coursify-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursify-backend/internal/http/middleware"
	"github.com/yungbote/coursify-backend/internal/observability"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	CourseHandler     *httpH.CourseHandler
	ModuleHandler     *httpH.ModuleHandler
	LessonHandler     *httpH.LessonHandler
	EnrollmentHandler *httpH.EnrollmentHandler
	AnalyticsHandler  *httpH.AnalyticsHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	optional, required := authChains(cfg.AuthMiddleware)
	api := r.Group("/api")

	// Courses
	if h := cfg.CourseHandler; h != nil {
		api.GET("/courses", append(optional, h.ListCourses)...)
		api.POST("/courses", append(required, h.CreateCourse)...)
		api.POST("/courses/generate", append(required, h.GenerateCourse)...)
		api.GET("/courses/:id", append(optional, h.GetCourse)...)
		api.PATCH("/courses/:id", append(required, h.UpdateCourse)...)
		api.DELETE("/courses/:id", append(required, h.DeleteCourse)...)
		api.POST("/courses/:id/publish", append(required, h.PublishCourse)...)
		api.DELETE("/courses/:id/publish", append(required, h.UnpublishCourse)...)
		api.GET("/courses/:id/modules", append(optional, h.ListCourseModules)...)
	}

	// Modules
	if h := cfg.ModuleHandler; h != nil {
		api.POST("/modules", append(required, h.CreateModule)...)
		api.PATCH("/modules/:id", append(required, h.UpdateModule)...)
		api.DELETE("/modules/:id", append(required, h.DeleteModule)...)
	}

	// Lessons
	if h := cfg.LessonHandler; h != nil {
		api.POST("/lessons", append(required, h.CreateLesson)...)
		api.GET("/lessons/:id", append(optional, h.GetLesson)...)
		api.PATCH("/lessons/:id", append(required, h.UpdateLesson)...)
		api.DELETE("/lessons/:id", append(required, h.DeleteLesson)...)
		api.POST("/lessons/:id/generate-quiz", append(required, h.GenerateQuiz)...)
		api.POST("/lessons/:id/generate-video", append(required, h.GenerateVideo)...)
	}

	// Enrollments
	if h := cfg.EnrollmentHandler; h != nil {
		api.GET("/enrollments", append(required, h.ListEnrollments)...)
		api.POST("/enrollments", append(required, h.Enroll)...)
		api.POST("/enrollments/:id/progress", append(required, h.RecordProgress)...)
	}

	// Analytics
	if h := cfg.AnalyticsHandler; h != nil {
		api.GET("/analytics/:courseId", append(required, h.GetCourseAnalytics)...)
	}

	return r
}

// authChains returns full-capacity chains; each append above copies.
func authChains(am *httpMW.AuthMiddleware) (optional, required gin.HandlersChain) {
	if am == nil {
		return nil, nil
	}
	return gin.HandlersChain{am.OptionalAuth()}, gin.HandlersChain{am.RequireAuth()}
}
