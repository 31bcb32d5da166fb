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
	"github.com/yungbote/coursify-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/platform/patch"
)

const publishPreconditionMessage = "cannot publish a course without modules and lessons"

type ListCoursesInput struct {
	UserID    *uuid.UUID
	Published *bool
	Category  string
}

// CourseSummary is a list row: the course, its owner and aggregate counts.
type CourseSummary struct {
	*types.Course
	Counts repos.CourseCounts `json:"counts"`
}

type CreateCourseInput struct {
	Title           string       `json:"title" validate:"required,notblank"`
	Description     string       `json:"description" validate:"required,notblank"`
	Category        string       `json:"category" validate:"required,notblank"`
	DifficultyLevel string       `json:"difficultyLevel" validate:"omitempty,oneof=beginner intermediate advanced"`
	ThumbnailURL    *string      `json:"thumbnailUrl"`
	Price           *patch.Float `json:"price"`
}

// UpdateCourseInput carries only the keys present in the request body.
type UpdateCourseInput struct {
	Title           patch.Field[string]      `json:"title"`
	Description     patch.Field[string]      `json:"description"`
	Category        patch.Field[string]      `json:"category"`
	DifficultyLevel patch.Field[string]      `json:"difficultyLevel"`
	ThumbnailURL    patch.Field[string]      `json:"thumbnailUrl"`
	Price           patch.Field[patch.Float] `json:"price"`
	Published       patch.Field[bool]        `json:"published"`
}

type CourseService interface {
	List(ctx context.Context, in ListCoursesInput) ([]*CourseSummary, error)
	GetDetail(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	ListModules(ctx context.Context, courseID uuid.UUID) ([]*types.Module, error)
	Create(ctx context.Context, in CreateCourseInput) (*types.Course, error)
	Update(ctx context.Context, courseID uuid.UUID, in UpdateCourseInput) (*types.Course, error)
	Delete(ctx context.Context, courseID uuid.UUID) error
	Publish(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
	Unpublish(ctx context.Context, courseID uuid.UUID) (*types.Course, error)
}

type courseService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
	moduleRepo repos.ModuleRepo
}

func NewCourseService(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, moduleRepo repos.ModuleRepo) CourseService {
	return &courseService{
		db:         db,
		log:        log.With("service", "CourseService"),
		courseRepo: courseRepo,
		moduleRepo: moduleRepo,
	}
}

// List filters by the explicit userId when given, otherwise by the caller
// when authenticated, otherwise returns every course.
func (s *courseService) List(ctx context.Context, in ListCoursesInput) ([]*CourseSummary, error) {
	filter := repos.CourseFilter{
		UserID:    in.UserID,
		Published: in.Published,
		Category:  strings.TrimSpace(in.Category),
	}
	if filter.UserID == nil {
		if callerID, ok := ctxutil.UserID(ctx); ok {
			filter.UserID = &callerID
		}
	}

	courses, err := s.courseRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	ids := make([]uuid.UUID, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	counts, err := s.courseRepo.CountsByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("count course content: %w", err)
	}

	out := make([]*CourseSummary, len(courses))
	for i, c := range courses {
		out[i] = &CourseSummary{Course: c, Counts: counts[c.ID]}
	}
	return out, nil
}

func (s *courseService) GetDetail(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	course, err := s.courseRepo.GetDetail(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apierr.NotFound("Course")
	}
	return course, nil
}

func (s *courseService) ListModules(ctx context.Context, courseID uuid.UUID) ([]*types.Module, error) {
	course, err := s.courseRepo.GetByID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if course == nil {
		return nil, apierr.NotFound("Course")
	}
	modules, err := s.moduleRepo.GetByCourseIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}

func (s *courseService) Create(ctx context.Context, in CreateCourseInput) (*types.Course, error) {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	course := &types.Course{
		UserID:          callerID,
		Title:           strings.TrimSpace(in.Title),
		Description:     strings.TrimSpace(in.Description),
		Category:        strings.TrimSpace(in.Category),
		DifficultyLevel: in.DifficultyLevel,
		ThumbnailURL:    nonEmpty(in.ThumbnailURL),
	}
	if in.Price != nil {
		p := float64(*in.Price)
		if p < 0 {
			return nil, fieldError("price", "must be greater than or equal to 0")
		}
		course.Price = &p
	}

	created, err := s.courseRepo.Create(ctx, nil, []*types.Course{course})
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	s.log.Info("Course created", "course_id", created[0].ID, "owner_id", callerID)
	return created[0], nil
}

func (s *courseService) Update(ctx context.Context, courseID uuid.UUID, in UpdateCourseInput) (*types.Course, error) {
	updates, err := courseUpdates(in)
	if err != nil {
		return nil, err
	}

	var out *types.Course
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCourse(ctx, tx, s.courseRepo, courseID); err != nil {
			return err
		}
		if in.Published.Present() && in.Published.Value {
			if err := s.checkPublishable(ctx, tx, courseID); err != nil {
				return err
			}
		}
		if err := s.courseRepo.UpdateFields(ctx, tx, courseID, updates); err != nil {
			return fmt.Errorf("update course: %w", err)
		}
		course, err := s.courseRepo.GetByID(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("reload course: %w", err)
		}
		out = course
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func courseUpdates(in UpdateCourseInput) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	var fields []apierr.FieldError
	requireText := func(name, column string, f patch.Field[string]) {
		if !f.Set {
			return
		}
		if f.Null || strings.TrimSpace(f.Value) == "" {
			fields = append(fields, apierr.FieldError{Field: name, Message: "must not be empty"})
			return
		}
		updates[column] = strings.TrimSpace(f.Value)
	}
	requireText("title", "title", in.Title)
	requireText("description", "description", in.Description)
	requireText("category", "category", in.Category)

	if in.DifficultyLevel.Set {
		switch in.DifficultyLevel.Value {
		case types.DifficultyBeginner, types.DifficultyIntermediate, types.DifficultyAdvanced:
			updates["difficulty_level"] = in.DifficultyLevel.Value
		default:
			fields = append(fields, apierr.FieldError{Field: "difficultyLevel", Message: "must be one of: beginner, intermediate, advanced"})
		}
	}
	if in.ThumbnailURL.Set {
		if v := strings.TrimSpace(in.ThumbnailURL.Value); !in.ThumbnailURL.Null && v != "" {
			updates["thumbnail_url"] = v
		} else {
			updates["thumbnail_url"] = nil
		}
	}
	if in.Price.Set {
		switch {
		case in.Price.Null:
			updates["price"] = nil
		case in.Price.Value < 0:
			fields = append(fields, apierr.FieldError{Field: "price", Message: "must be greater than or equal to 0"})
		default:
			updates["price"] = float64(in.Price.Value)
		}
	}
	if in.Published.Set {
		if in.Published.Null {
			fields = append(fields, apierr.FieldError{Field: "published", Message: "must be a boolean"})
		} else {
			updates["published"] = in.Published.Value
		}
	}

	if len(fields) > 0 {
		return nil, apierr.Validation(validationSummary(fields), fields...)
	}
	return updates, nil
}

func (s *courseService) Delete(ctx context.Context, courseID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCourse(ctx, tx, s.courseRepo, courseID); err != nil {
			return err
		}
		if err := s.courseRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{courseID}); err != nil {
			return fmt.Errorf("delete course: %w", err)
		}
		s.log.Info("Course deleted", "course_id", courseID)
		return nil
	})
}

func (s *courseService) Publish(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	return s.setPublished(ctx, courseID, true)
}

func (s *courseService) Unpublish(ctx context.Context, courseID uuid.UUID) (*types.Course, error) {
	return s.setPublished(ctx, courseID, false)
}

func (s *courseService) setPublished(ctx context.Context, courseID uuid.UUID, published bool) (*types.Course, error) {
	var out *types.Course
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := ownedCourse(ctx, tx, s.courseRepo, courseID)
		if err != nil {
			return err
		}
		if published {
			if err := s.checkPublishable(ctx, tx, courseID); err != nil {
				return err
			}
		}
		if err := s.courseRepo.UpdateFields(ctx, tx, courseID, map[string]interface{}{"published": published}); err != nil {
			return fmt.Errorf("update published: %w", err)
		}
		course.Published = published
		out = course
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Course publish state changed", "course_id", courseID, "published", published)
	return out, nil
}

func (s *courseService) checkPublishable(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	tree, err := s.courseRepo.GetTree(ctx, tx, courseID)
	if err != nil {
		return fmt.Errorf("load course tree: %w", err)
	}
	if tree == nil {
		return apierr.NotFound("Course")
	}
	if !tree.HasPublishableContent() {
		return apierr.PublishPrecondition(publishPreconditionMessage)
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
