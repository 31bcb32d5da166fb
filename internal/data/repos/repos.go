package repos

import (
	"github.com/yungbote/coursify-backend/internal/data/repos/learning"
	"github.com/yungbote/coursify-backend/internal/data/repos/user"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo

type CourseRepo = learning.CourseRepo
type CourseFilter = learning.CourseFilter
type CourseCounts = learning.CourseCounts
type ModuleRepo = learning.ModuleRepo
type LessonRepo = learning.LessonRepo
type QuizRepo = learning.QuizRepo
type EnrollmentRepo = learning.EnrollmentRepo

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }

func NewCourseRepo(db *gorm.DB, log *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, log)
}

func NewModuleRepo(db *gorm.DB, log *logger.Logger) ModuleRepo {
	return learning.NewModuleRepo(db, log)
}

func NewLessonRepo(db *gorm.DB, log *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, log)
}

func NewQuizRepo(db *gorm.DB, log *logger.Logger) QuizRepo { return learning.NewQuizRepo(db, log) }

func NewEnrollmentRepo(db *gorm.DB, log *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, log)
}
