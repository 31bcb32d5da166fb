package app

import (
	httpH "github.com/yungbote/coursify-backend/internal/http/handlers"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Course     *httpH.CourseHandler
	Module     *httpH.ModuleHandler
	Lesson     *httpH.LessonHandler
	Enrollment *httpH.EnrollmentHandler
	Analytics  *httpH.AnalyticsHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Course:     httpH.NewCourseHandler(log, services.Course, services.CourseGeneration),
		Module:     httpH.NewModuleHandler(log, services.Module),
		Lesson:     httpH.NewLessonHandler(log, services.Lesson, services.Media),
		Enrollment: httpH.NewEnrollmentHandler(log, services.Enrollment),
		Analytics:  httpH.NewAnalyticsHandler(log, services.Analytics),
	}
}
