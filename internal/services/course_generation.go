package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

// GenerateCourseInput accepts "difficultyLevel" as an alias of "difficulty".
type GenerateCourseInput struct {
	Topic           string `json:"topic" validate:"required,notblank"`
	Category        string `json:"category" validate:"required,notblank"`
	Difficulty      string `json:"difficulty" validate:"required,notblank"`
	DifficultyLevel string `json:"difficultyLevel" validate:"-"`
}

type GeneratedCourse struct {
	Course *types.Course    `json:"course"`
	Source GenerationSource `json:"source"`
}

type CourseGenerationService interface {
	GenerateAndPersist(ctx context.Context, in GenerateCourseInput) (*GeneratedCourse, error)
}

type courseGenerationService struct {
	db         *gorm.DB
	log        *logger.Logger
	generator  ContentGenerator
	courseRepo repos.CourseRepo
	moduleRepo repos.ModuleRepo
	lessonRepo repos.LessonRepo
}

func NewCourseGenerationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	generator ContentGenerator,
	courseRepo repos.CourseRepo,
	moduleRepo repos.ModuleRepo,
	lessonRepo repos.LessonRepo,
) CourseGenerationService {
	return &courseGenerationService{
		db:         db,
		log:        baseLog.With("service", "CourseGenerationService"),
		generator:  generator,
		courseRepo: courseRepo,
		moduleRepo: moduleRepo,
		lessonRepo: lessonRepo,
	}
}

// GenerateAndPersist generates an outline for the caller and stores the
// course, its modules and lessons in one transaction. The provider call
// happens before the transaction opens.
func (s *courseGenerationService) GenerateAndPersist(ctx context.Context, in GenerateCourseInput) (*GeneratedCourse, error) {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Difficulty) == "" {
		in.Difficulty = in.DifficultyLevel
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(in.Topic)
	category := strings.TrimSpace(in.Category)
	difficulty := strings.TrimSpace(in.Difficulty)

	gen := s.generator.GenerateCourseStructure(ctx, topic, category, difficulty)

	var out *types.Course
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course := &types.Course{
			UserID:          callerID,
			Title:           strings.TrimSpace(gen.Structure.Title),
			Description:     strings.TrimSpace(gen.Structure.Description),
			Category:        category,
			DifficultyLevel: storedDifficulty(difficulty),
		}
		if course.Title == "" {
			course.Title = fmt.Sprintf("Complete %s Course", topic)
		}
		if _, err := s.courseRepo.Create(ctx, tx, []*types.Course{course}); err != nil {
			return fmt.Errorf("create course: %w", err)
		}

		for mi, ms := range gen.Structure.Modules {
			module := &types.Module{
				CourseID:    course.ID,
				Title:       strings.TrimSpace(ms.Title),
				Description: strings.TrimSpace(ms.Description),
				Order:       mi,
			}
			if _, err := s.moduleRepo.Create(ctx, tx, []*types.Module{module}); err != nil {
				return fmt.Errorf("create module %d: %w", mi, err)
			}

			lessons := make([]*types.Lesson, 0, len(ms.Lessons))
			for li, ls := range ms.Lessons {
				lessons = append(lessons, lessonFromSpec(module.ID, li, ls))
			}
			if _, err := s.lessonRepo.Create(ctx, tx, lessons); err != nil {
				return fmt.Errorf("create lessons for module %d: %w", mi, err)
			}
		}

		tree, err := s.courseRepo.GetTree(ctx, tx, course.ID)
		if err != nil {
			return fmt.Errorf("reload course: %w", err)
		}
		out = tree
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Course generated",
		"course_id", out.ID,
		"owner_id", callerID,
		"source", gen.Source,
		"model", gen.Model,
		"modules", len(out.Modules),
		"lessons", out.LessonCount(),
	)
	return &GeneratedCourse{Course: out, Source: gen.Source}, nil
}

func lessonFromSpec(moduleID uuid.UUID, order int, ls LessonSpec) *types.Lesson {
	lessonType := strings.ToLower(strings.TrimSpace(ls.Type))
	if !types.IsLessonType(lessonType) {
		lessonType = types.LessonTypeArticle
	}
	mins := defaultLessonMins
	if ls.Duration != nil && *ls.Duration > 0 {
		mins = *ls.Duration
	}
	return &types.Lesson{
		ModuleID:   moduleID,
		Title:      strings.TrimSpace(ls.Title),
		Content:    ls.Content,
		LessonType: lessonType,
		Duration:   &mins,
		Order:      order,
		Status:     types.LessonStatusDraft,
	}
}

// storedDifficulty keeps known tiers and maps anything else to beginner,
// matching the template table.
func storedDifficulty(d string) string {
	switch v := strings.ToLower(d); v {
	case types.DifficultyBeginner, types.DifficultyIntermediate, types.DifficultyAdvanced:
		return v
	}
	return types.DifficultyBeginner
}
