package learning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type ModuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, modules []*types.Module) ([]*types.Module, error)
	GetByID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*types.Module, error)
	GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Module, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) error
}

type moduleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	repoLog := baseLog.With("repo", "ModuleRepo")
	return &moduleRepo{db: db, log: repoLog}
}

func (r *moduleRepo) Create(ctx context.Context, tx *gorm.DB, modules []*types.Module) ([]*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(modules) == 0 {
		return []*types.Module{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&modules).Error; err != nil {
		return nil, err
	}
	return modules, nil
}

// GetByID returns the module with its owning course, or nil, nil.
func (r *moduleRepo) GetByID(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID) (*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var module types.Module
	err := transaction.WithContext(ctx).
		Preload("Course").
		Where("id = ?", moduleID).
		First(&module).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Module, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Module
	if len(courseIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Lessons", orderedLessons).
		Where("course_id IN ?", courseIDs).
		Order("course_id").
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *moduleRepo) UpdateFields(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(updates) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.Module{}).
		Where("id = ?", moduleID).
		Updates(updates).Error
}

func (r *moduleRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(moduleIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		return deleteModuleSubtrees(txx, moduleIDs)
	})
}
