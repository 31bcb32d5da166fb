package learning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizRepo interface {
	GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.Quiz, error)
	Upsert(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, questions []types.QuizQuestion) (*types.Quiz, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	repoLog := baseLog.With("repo", "QuizRepo")
	return &quizRepo{db: db, log: repoLog}
}

func (r *quizRepo) GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var quiz types.Quiz
	err := transaction.WithContext(ctx).Where("lesson_id = ?", lessonID).First(&quiz).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Upsert creates the lesson's quiz, or replaces the questions of the
// existing one. The passing score is left as stored.
func (r *quizRepo) Upsert(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, questions []types.QuizQuestion) (*types.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var out *types.Quiz
	err := transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		existing, err := r.GetByLessonID(ctx, txx, lessonID)
		if err != nil {
			return err
		}
		if existing == nil {
			quiz := &types.Quiz{
				LessonID:     lessonID,
				Questions:    datatypes.NewJSONSlice(questions),
				PassingScore: types.DefaultPassingScore,
			}
			if err := txx.Create(quiz).Error; err != nil {
				return err
			}
			out = quiz
			return nil
		}
		existing.Questions = datatypes.NewJSONSlice(questions)
		if err := txx.Model(existing).Update("questions", existing.Questions).Error; err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
