package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	name := "User " + email
	u := &types.User{
		ID:    uuid.New(),
		Name:  &name,
		Email: email,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:              uuid.New(),
		UserID:          userID,
		Title:           "course",
		Description:     "description",
		Category:        "technology",
		DifficultyLevel: types.DifficultyBeginner,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, order int) *types.Module {
	tb.Helper()
	m := &types.Module{
		ID:       uuid.New(),
		CourseID: courseID,
		Title:    "module",
		Order:    order,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, order int) *types.Lesson {
	tb.Helper()
	l := &types.Lesson{
		ID:         uuid.New(),
		ModuleID:   moduleID,
		Title:      "lesson",
		Content:    "content",
		LessonType: types.LessonTypeArticle,
		Order:      order,
		Status:     types.LessonStatusDraft,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID, enrolledAt time.Time) *types.Enrollment {
	tb.Helper()
	e := &types.Enrollment{
		ID:         uuid.New(),
		CourseID:   courseID,
		UserID:     userID,
		EnrolledAt: enrolledAt.UTC(),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func PtrString(v string) *string { return &v }
