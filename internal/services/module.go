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

type CreateModuleInput struct {
	CourseID    string     `json:"courseId" validate:"required,uuid"`
	Title       string     `json:"title" validate:"required,notblank"`
	Description string     `json:"description"`
	Order       *patch.Int `json:"order"`
}

type UpdateModuleInput struct {
	Title       patch.Field[string]    `json:"title"`
	Description patch.Field[string]    `json:"description"`
	Order       patch.Field[patch.Int] `json:"order"`
}

type ModuleService interface {
	Create(ctx context.Context, in CreateModuleInput) (*types.Module, error)
	Update(ctx context.Context, moduleID uuid.UUID, in UpdateModuleInput) (*types.Module, error)
	Delete(ctx context.Context, moduleID uuid.UUID) error
}

type moduleService struct {
	db         *gorm.DB
	log        *logger.Logger
	courseRepo repos.CourseRepo
	moduleRepo repos.ModuleRepo
}

func NewModuleService(db *gorm.DB, log *logger.Logger, courseRepo repos.CourseRepo, moduleRepo repos.ModuleRepo) ModuleService {
	return &moduleService{
		db:         db,
		log:        log.With("service", "ModuleService"),
		courseRepo: courseRepo,
		moduleRepo: moduleRepo,
	}
}

// Create appends a module. Order is caller-owned and defaults to 0; siblings
// are never renumbered.
func (s *moduleService) Create(ctx context.Context, in CreateModuleInput) (*types.Module, error) {
	if _, err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	courseID := uuid.MustParse(in.CourseID)

	var out *types.Module
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCourse(ctx, tx, s.courseRepo, courseID); err != nil {
			return err
		}
		module := &types.Module{
			CourseID:    courseID,
			Title:       strings.TrimSpace(in.Title),
			Description: strings.TrimSpace(in.Description),
		}
		if in.Order != nil {
			module.Order = int(*in.Order)
		}
		created, err := s.moduleRepo.Create(ctx, tx, []*types.Module{module})
		if err != nil {
			return fmt.Errorf("create module: %w", err)
		}
		out = created[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *moduleService) Update(ctx context.Context, moduleID uuid.UUID, in UpdateModuleInput) (*types.Module, error) {
	updates := map[string]interface{}{}
	var fields []apierr.FieldError
	if in.Title.Set {
		if in.Title.Null || strings.TrimSpace(in.Title.Value) == "" {
			fields = append(fields, apierr.FieldError{Field: "title", Message: "must not be empty"})
		} else {
			updates["title"] = strings.TrimSpace(in.Title.Value)
		}
	}
	if in.Description.Set {
		updates["description"] = strings.TrimSpace(in.Description.Value)
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

	var out *types.Module
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedModule(ctx, tx, s.moduleRepo, moduleID); err != nil {
			return err
		}
		if err := s.moduleRepo.UpdateFields(ctx, tx, moduleID, updates); err != nil {
			return fmt.Errorf("update module: %w", err)
		}
		module, err := s.moduleRepo.GetByID(ctx, tx, moduleID)
		if err != nil {
			return fmt.Errorf("reload module: %w", err)
		}
		module.Course = nil
		out = module
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *moduleService) Delete(ctx context.Context, moduleID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedModule(ctx, tx, s.moduleRepo, moduleID); err != nil {
			return err
		}
		if err := s.moduleRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{moduleID}); err != nil {
			return fmt.Errorf("delete module: %w", err)
		}
		return nil
	})
}
