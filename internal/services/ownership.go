package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/platform/apierr"
)

// Ownership resolution shared by the catalog services. Absent resources are
// 404, resources owned by someone else are 403, and a missing session is 401.

func ownedCourse(ctx context.Context, tx *gorm.DB, courseRepo repos.CourseRepo, courseID uuid.UUID) (*types.Course, error) {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	course, err := courseRepo.GetByID(ctx, tx, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apierr.NotFound("Course")
	}
	if course.UserID != callerID {
		return nil, apierr.Forbidden("you do not own this course")
	}
	return course, nil
}

func ownedModule(ctx context.Context, tx *gorm.DB, moduleRepo repos.ModuleRepo, moduleID uuid.UUID) (*types.Module, error) {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	module, err := moduleRepo.GetByID(ctx, tx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("load module: %w", err)
	}
	if module == nil || module.Course == nil {
		return nil, apierr.NotFound("Module")
	}
	if module.Course.UserID != callerID {
		return nil, apierr.Forbidden("you do not own this course")
	}
	return module, nil
}

func ownedLesson(ctx context.Context, tx *gorm.DB, lessonRepo repos.LessonRepo, lessonID uuid.UUID) (*types.Lesson, error) {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	lesson, err := lessonRepo.GetByID(ctx, tx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	if lesson == nil || lesson.Module == nil || lesson.Module.Course == nil {
		return nil, apierr.NotFound("Lesson")
	}
	if lesson.Module.Course.UserID != callerID {
		return nil, apierr.Forbidden("you do not own this course")
	}
	return lesson, nil
}
