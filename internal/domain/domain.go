package domain

import (
	"github.com/yungbote/coursify-backend/internal/domain/learning"
	"github.com/yungbote/coursify-backend/internal/domain/user"
)

const (
	DifficultyBeginner     = learning.DifficultyBeginner
	DifficultyIntermediate = learning.DifficultyIntermediate
	DifficultyAdvanced     = learning.DifficultyAdvanced

	LessonTypeArticle = learning.LessonTypeArticle
	LessonTypeVideo   = learning.LessonTypeVideo
	LessonTypeQuiz    = learning.LessonTypeQuiz

	LessonStatusDraft      = learning.LessonStatusDraft
	LessonStatusGenerating = learning.LessonStatusGenerating
	LessonStatusCompleted  = learning.LessonStatusCompleted

	DefaultPassingScore = learning.DefaultPassingScore
)

type (
	User = user.User

	Course       = learning.Course
	Module       = learning.Module
	Lesson       = learning.Lesson
	Quiz         = learning.Quiz
	QuizQuestion = learning.QuizQuestion
	Enrollment   = learning.Enrollment
)

var (
	IsLessonType    = learning.IsLessonType
	ProgressPercent = learning.ProgressPercent
)

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&Course{},
		&Module{},
		&Lesson{},
		&Quiz{},
		&Enrollment{},
	}
}
