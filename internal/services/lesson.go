package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/platform/apierr"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/platform/patch"
)

type CreateLessonInput struct {
	ModuleID   string     `json:"moduleId" validate:"required,uuid"`
	Title      string     `json:"title" validate:"required,notblank"`
	Content    string     `json:"content"`
	LessonType string     `json:"lessonType" validate:"omitempty,oneof=article video quiz"`
	VideoURL   *string    `json:"videoUrl"`
	SlideURL   *string    `json:"slideUrl"`
	Duration   *patch.Int `json:"duration"`
	Order      *patch.Int `json:"order"`
}

type UpdateLessonInput struct {
	Title      patch.Field[string]    `json:"title"`
	Content    patch.Field[string]    `json:"content"`
	LessonType patch.Field[string]    `json:"lessonType"`
	VideoURL   patch.Field[string]    `json:"videoUrl"`
	SlideURL   patch.Field[string]    `json:"slideUrl"`
	Duration   patch.Field[patch.Int] `json:"duration"`
	Order      patch.Field[patch.Int] `json:"order"`
}

// GeneratedQuiz is the stored quiz plus where its questions came from.
type GeneratedQuiz struct {
	Quiz   *types.Quiz      `json:"quiz"`
	Source GenerationSource `json:"source"`
}

type LessonService interface {
	Create(ctx context.Context, in CreateLessonInput) (*types.Lesson, error)
	Get(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error)
	Update(ctx context.Context, lessonID uuid.UUID, in UpdateLessonInput) (*types.Lesson, error)
	Delete(ctx context.Context, lessonID uuid.UUID) error
	GenerateQuiz(ctx context.Context, lessonID uuid.UUID) (*GeneratedQuiz, error)
}

type lessonService struct {
	db         *gorm.DB
	log        *logger.Logger
	moduleRepo repos.ModuleRepo
	lessonRepo repos.LessonRepo
	quizRepo   repos.QuizRepo
	generator  ContentGenerator
}

func NewLessonService(
	db *gorm.DB,
	log *logger.Logger,
	moduleRepo repos.ModuleRepo,
	lessonRepo repos.LessonRepo,
	quizRepo repos.QuizRepo,
	generator ContentGenerator,
) LessonService {
	return &lessonService{
		db:         db,
		log:        log.With("service", "LessonService"),
		moduleRepo: moduleRepo,
		lessonRepo: lessonRepo,
		quizRepo:   quizRepo,
		generator:  generator,
	}
}

func (s *lessonService) Create(ctx context.Context, in CreateLessonInput) (*types.Lesson, error) {
	if _, err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Duration != nil && *in.Duration < 0 {
		return nil, fieldError("duration", "must be greater than or equal to 0")
	}
	moduleID := uuid.MustParse(in.ModuleID)

	var out *types.Lesson
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedModule(ctx, tx, s.moduleRepo, moduleID); err != nil {
			return err
		}
		lesson := &types.Lesson{
			ModuleID:   moduleID,
			Title:      strings.TrimSpace(in.Title),
			Content:    in.Content,
			LessonType: in.LessonType,
			VideoURL:   nonEmpty(in.VideoURL),
			SlideURL:   nonEmpty(in.SlideURL),
			Status:     types.LessonStatusDraft,
		}
		if in.Duration != nil {
			d := int(*in.Duration)
			lesson.Duration = &d
		}
		if in.Order != nil {
			lesson.Order = int(*in.Order)
		}
		created, err := s.lessonRepo.Create(ctx, tx, []*types.Lesson{lesson})
		if err != nil {
			return fmt.Errorf("create lesson: %w", err)
		}
		out = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get is a public read: the lesson with its quiz.
func (s *lessonService) Get(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		return nil, fmt.Errorf("load lesson: %w", err)
	}
	if lesson == nil {
		return nil, apierr.NotFound("Lesson")
	}
	lesson.Module = nil
	return lesson, nil
}

func (s *lessonService) Update(ctx context.Context, lessonID uuid.UUID, in UpdateLessonInput) (*types.Lesson, error) {
	updates, err := lessonUpdates(in)
	if err != nil {
		return nil, err
	}

	var out *types.Lesson
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedLesson(ctx, tx, s.lessonRepo, lessonID); err != nil {
			return err
		}
		if err := s.lessonRepo.UpdateFields(ctx, tx, lessonID, updates); err != nil {
			return fmt.Errorf("update lesson: %w", err)
		}
		lesson, err := s.lessonRepo.GetByID(ctx, tx, lessonID)
		if err != nil {
			return fmt.Errorf("reload lesson: %w", err)
		}
		lesson.Module = nil
		out = lesson
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// lessonUpdates maps present keys to columns. videoUrl, slideUrl and
// duration clear on null or ""; content clears to "".
func lessonUpdates(in UpdateLessonInput) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	var fields []apierr.FieldError

	if in.Title.Set {
		if in.Title.Null || strings.TrimSpace(in.Title.Value) == "" {
			fields = append(fields, apierr.FieldError{Field: "title", Message: "must not be empty"})
		} else {
			updates["title"] = strings.TrimSpace(in.Title.Value)
		}
	}
	if in.Content.Set {
		updates["content"] = in.Content.Value
	}
	if in.LessonType.Set {
		if types.IsLessonType(in.LessonType.Value) {
			updates["lesson_type"] = in.LessonType.Value
		} else {
			fields = append(fields, apierr.FieldError{Field: "lessonType", Message: "must be one of: article, video, quiz"})
		}
	}
	nullableText := func(column string, f patch.Field[string]) {
		if !f.Set {
			return
		}
		if v := strings.TrimSpace(f.Value); !f.Null && v != "" {
			updates[column] = v
			return
		}
		updates[column] = nil
	}
	nullableText("video_url", in.VideoURL)
	nullableText("slide_url", in.SlideURL)

	if in.Duration.Set {
		switch {
		case in.Duration.Null:
			updates["duration"] = nil
		case in.Duration.Value < 0:
			fields = append(fields, apierr.FieldError{Field: "duration", Message: "must be greater than or equal to 0"})
		default:
			updates["duration"] = int(in.Duration.Value)
		}
	}
	if in.Order.Set {
		if in.Order.Null {
			fields = append(fields, apierr.FieldError{Field: "order", Message: "must be an integer"})
		} else {
			updates["sort_order"] = int(in.Order.Value)
		}
	}

	if len(fields) > 0 {
		return nil, apierr.Validation(validationSummary(fields), fields...)
	}
	return updates, nil
}

func (s *lessonService) Delete(ctx context.Context, lessonID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedLesson(ctx, tx, s.lessonRepo, lessonID); err != nil {
			return err
		}
		if err := s.lessonRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{lessonID}); err != nil {
			return fmt.Errorf("delete lesson: %w", err)
		}
		return nil
	})
}

// GenerateQuiz creates the lesson's quiz or replaces its questions. The
// provider call runs outside the write transaction.
func (s *lessonService) GenerateQuiz(ctx context.Context, lessonID uuid.UUID) (*GeneratedQuiz, error) {
	lesson, err := ownedLesson(ctx, nil, s.lessonRepo, lessonID)
	if err != nil {
		return nil, err
	}

	gen := s.generator.GenerateQuiz(ctx, lesson.Title, lesson.Content)

	var quiz *types.Quiz
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.lessonRepo.GetByID(ctx, tx, lessonID)
		if err != nil {
			return fmt.Errorf("reload lesson: %w", err)
		}
		if current == nil {
			return apierr.NotFound("Lesson")
		}
		q, err := s.quizRepo.Upsert(ctx, tx, lessonID, gen.Questions)
		if err != nil {
			return fmt.Errorf("save quiz: %w", err)
		}
		quiz = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Quiz generated", "lesson_id", lessonID, "source", gen.Source, "model", gen.Model, "questions", len(gen.Questions))
	return &GeneratedQuiz{Quiz: quiz, Source: gen.Source}, nil
}
