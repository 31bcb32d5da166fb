package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultPassingScore = 70

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type Quiz struct {
	ID           uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID     uuid.UUID                        `gorm:"type:uuid;not null;uniqueIndex" json:"lessonId"`
	Questions    datatypes.JSONSlice[QuizQuestion] `gorm:"column:questions;not null" json:"questions"`
	PassingScore int                              `gorm:"column:passing_score;not null;default:70" json:"passingScore"`
	CreatedAt    time.Time                        `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time                        `gorm:"not null" json:"updatedAt"`
}

func (Quiz) TableName() string { return "quizzes" }

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	if q.PassingScore == 0 {
		q.PassingScore = DefaultPassingScore
	}
	return nil
}
