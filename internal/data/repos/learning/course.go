package learning

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// CourseFilter narrows List. Nil fields do not filter.
type CourseFilter struct {
	UserID    *uuid.UUID
	Published *bool
	Category  string
}

// CourseCounts is the aggregate view attached to list results.
type CourseCounts struct {
	Modules     int64 `json:"modules"`
	Lessons     int64 `json:"lessons"`
	Enrollments int64 `json:"enrollments"`
}

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error)
	GetByID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error)
	GetTree(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error)
	GetDetail(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error)
	List(ctx context.Context, tx *gorm.DB, filter CourseFilter) ([]*types.Course, error)
	CountsByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) (map[uuid.UUID]CourseCounts, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, updates map[string]interface{}) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	repoLog := baseLog.With("repo", "CourseRepo")
	return &courseRepo{db: db, log: repoLog}
}

func orderedModules(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC").Order("created_at ASC")
}

func orderedLessons(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC").Order("created_at ASC")
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, courses []*types.Course) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(courses) == 0 {
		return []*types.Course{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Course
	if len(courseIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID returns nil, nil when the course does not exist.
func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var course types.Course
	err := transaction.WithContext(ctx).Where("id = ?", courseID).First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetTree loads modules and lessons in display order.
func (r *courseRepo) GetTree(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var course types.Course
	err := transaction.WithContext(ctx).
		Preload("Modules", orderedModules).
		Preload("Modules.Lessons", orderedLessons).
		Where("id = ?", courseID).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// GetDetail loads the owner, the full module/lesson/quiz subtree and enrollments.
func (r *courseRepo) GetDetail(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var course types.Course
	err := transaction.WithContext(ctx).
		Preload("User").
		Preload("Modules", orderedModules).
		Preload("Modules.Lessons", orderedLessons).
		Preload("Modules.Lessons.Quiz").
		Preload("Enrollments", func(db *gorm.DB) *gorm.DB { return db.Order("enrolled_at DESC") }).
		Where("id = ?", courseID).
		First(&course).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context, tx *gorm.DB, filter CourseFilter) ([]*types.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(ctx).Preload("User")
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.Published != nil {
		q = q.Where("published = ?", *filter.Published)
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		q = q.Where("category = ?", c)
	}

	var results []*types.Course
	if err := q.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type countRow struct {
	CourseID uuid.UUID
	N        int64
}

func (r *courseRepo) CountsByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) (map[uuid.UUID]CourseCounts, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	out := make(map[uuid.UUID]CourseCounts, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}
	for _, id := range courseIDs {
		out[id] = CourseCounts{}
	}

	var moduleRows []countRow
	if err := transaction.WithContext(ctx).
		Model(&types.Module{}).
		Select("course_id, COUNT(*) AS n").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&moduleRows).Error; err != nil {
		return nil, err
	}
	for _, row := range moduleRows {
		c := out[row.CourseID]
		c.Modules = row.N
		out[row.CourseID] = c
	}

	var lessonRows []countRow
	if err := transaction.WithContext(ctx).
		Model(&types.Lesson{}).
		Select("modules.course_id AS course_id, COUNT(lessons.id) AS n").
		Joins("JOIN modules ON modules.id = lessons.module_id").
		Where("modules.course_id IN ?", courseIDs).
		Group("modules.course_id").
		Scan(&lessonRows).Error; err != nil {
		return nil, err
	}
	for _, row := range lessonRows {
		c := out[row.CourseID]
		c.Lessons = row.N
		out[row.CourseID] = c
	}

	var enrollmentRows []countRow
	if err := transaction.WithContext(ctx).
		Model(&types.Enrollment{}).
		Select("course_id, COUNT(*) AS n").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&enrollmentRows).Error; err != nil {
		return nil, err
	}
	for _, row := range enrollmentRows {
		c := out[row.CourseID]
		c.Enrollments = row.N
		out[row.CourseID] = c
	}

	return out, nil
}

func (r *courseRepo) UpdateFields(ctx context.Context, tx *gorm.DB, courseID uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(updates) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Model(&types.Course{}).
		Where("id = ?", courseID).
		Updates(updates).Error
}

// FullDeleteByIDs removes the courses and every module, lesson, quiz and
// enrollment under them in one transaction.
func (r *courseRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(courseIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		var moduleIDs []uuid.UUID
		if err := txx.Model(&types.Module{}).Where("course_id IN ?", courseIDs).Pluck("id", &moduleIDs).Error; err != nil {
			return err
		}
		if err := deleteModuleSubtrees(txx, moduleIDs); err != nil {
			return err
		}
		if err := txx.Where("course_id IN ?", courseIDs).Delete(&types.Enrollment{}).Error; err != nil {
			return err
		}
		return txx.Where("id IN ?", courseIDs).Delete(&types.Course{}).Error
	})
}

// deleteModuleSubtrees removes quizzes, lessons and then the modules themselves.
func deleteModuleSubtrees(txx *gorm.DB, moduleIDs []uuid.UUID) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	var lessonIDs []uuid.UUID
	if err := txx.Model(&types.Lesson{}).Where("module_id IN ?", moduleIDs).Pluck("id", &lessonIDs).Error; err != nil {
		return err
	}
	if err := deleteLessonSubtrees(txx, lessonIDs); err != nil {
		return err
	}
	return txx.Where("id IN ?", moduleIDs).Delete(&types.Module{}).Error
}

func deleteLessonSubtrees(txx *gorm.DB, lessonIDs []uuid.UUID) error {
	if len(lessonIDs) == 0 {
		return nil
	}
	if err := txx.Where("lesson_id IN ?", lessonIDs).Delete(&types.Quiz{}).Error; err != nil {
		return err
	}
	return txx.Where("id IN ?", lessonIDs).Delete(&types.Lesson{}).Error
}
