package learning

import (
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursify-backend/internal/domain/user"
	"gorm.io/gorm"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

type Course struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	User            *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Title           string     `gorm:"column:title;not null" json:"title"`
	Description     string     `gorm:"column:description;type:text;not null" json:"description"`
	Category        string     `gorm:"column:category;not null;index" json:"category"`
	DifficultyLevel string     `gorm:"column:difficulty_level;not null;default:'beginner'" json:"difficultyLevel"`
	ThumbnailURL    *string    `gorm:"column:thumbnail_url" json:"thumbnailUrl"`
	Price           *float64   `gorm:"column:price" json:"price"`
	Published       bool       `gorm:"column:published;not null;default:false;index" json:"published"`

	Modules     []*Module     `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"modules,omitempty"`
	Enrollments []*Enrollment `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"enrollments,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (Course) TableName() string { return "courses" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.DifficultyLevel == "" {
		c.DifficultyLevel = DifficultyBeginner
	}
	return nil
}

// LessonCount sums lessons over the loaded modules.
func (c *Course) LessonCount() int {
	n := 0
	for _, m := range c.Modules {
		if m != nil {
			n += len(m.Lessons)
		}
	}
	return n
}

// HasPublishableContent is true when at least one module holds at least one lesson.
func (c *Course) HasPublishableContent() bool {
	return len(c.Modules) > 0 && c.LessonCount() > 0
}
