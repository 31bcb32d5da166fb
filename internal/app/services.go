package app

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/coursify-backend/internal/observability"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/services"
)

type Services struct {
	Auth             services.AuthService
	Content          services.ContentGenerator
	Course           services.CourseService
	Module           services.ModuleService
	Lesson           services.LessonService
	CourseGeneration services.CourseGenerationService
	Media            services.MediaGenerationService
	Enrollment       services.EnrollmentService
	Analytics        services.AnalyticsService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	if cfg.Auth.JWTSecretKey == "" {
		log.Warn("JWT_SECRET_KEY not set; every authenticated route will answer 401")
	}

	content := services.NewContentGenerator(log, clients.LLM, metrics)
	return Services{
		Auth:             services.NewAuthService(log, repos.User, cfg.Auth.JWTSecretKey, cfg.Auth.AccessTokenTTL),
		Content:          content,
		Course:           services.NewCourseService(db, log, repos.Course, repos.Module),
		Module:           services.NewModuleService(db, log, repos.Course, repos.Module),
		Lesson:           services.NewLessonService(db, log, repos.Module, repos.Lesson, repos.Quiz, content),
		CourseGeneration: services.NewCourseGenerationService(db, log, content, repos.Course, repos.Module, repos.Lesson),
		Media:            services.NewMediaGenerationService(log, repos.Lesson, clients.Video, cfg.Video.Models, clients.Events, metrics),
		Enrollment:       services.NewEnrollmentService(db, log, repos.Course, repos.Lesson, repos.Enrollment, metrics),
		Analytics:        services.NewAnalyticsService(log, repos.Course, repos.Enrollment, time.Now),
	}
}
