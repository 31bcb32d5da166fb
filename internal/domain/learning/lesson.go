package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LessonTypeArticle = "article"
	LessonTypeVideo   = "video"
	LessonTypeQuiz    = "quiz"
)

const (
	LessonStatusDraft      = "draft"
	LessonStatusGenerating = "generating"
	LessonStatusCompleted  = "completed"
)

type Lesson struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID   uuid.UUID `gorm:"type:uuid;not null;index" json:"moduleId"`
	Module     *Module   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	Title      string    `gorm:"column:title;not null" json:"title"`
	Content    string    `gorm:"column:content;type:text" json:"content"`
	LessonType string    `gorm:"column:lesson_type;not null;default:'article'" json:"lessonType"`
	VideoURL   *string   `gorm:"column:video_url" json:"videoUrl"`
	SlideURL   *string   `gorm:"column:slide_url" json:"slideUrl"`
	Duration   *int      `gorm:"column:duration" json:"duration"`
	Order      int       `gorm:"column:sort_order;not null;default:0" json:"order"`
	Status     string    `gorm:"column:status;not null;default:'draft';index" json:"status"`

	Quiz *Quiz `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"quiz,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Lesson) TableName() string { return "lessons" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.LessonType == "" {
		l.LessonType = LessonTypeArticle
	}
	if l.Status == "" {
		l.Status = LessonStatusDraft
	}
	return nil
}

func IsLessonType(t string) bool {
	switch t {
	case LessonTypeArticle, LessonTypeVideo, LessonTypeQuiz:
		return true
	}
	return false
}

// HasFinishedVideo reports whether a previous generation already produced a usable video.
func (l *Lesson) HasFinishedVideo() bool {
	return l.VideoURL != nil && *l.VideoURL != "" && l.Status == LessonStatusCompleted
}
