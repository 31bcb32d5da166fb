package learning

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/coursify-backend/internal/domain/user"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Enrollment struct {
	ID               uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID         uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_course_user" json:"courseId"`
	Course           *Course                       `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`
	UserID           uuid.UUID                     `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_course_user;index" json:"userId"`
	User             *user.User                    `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	EnrolledAt       time.Time                     `gorm:"column:enrolled_at;not null;index" json:"enrolledAt"`
	Progress         int                           `gorm:"column:progress;not null;default:0" json:"progress"`
	CompletedLessons datatypes.JSONSlice[uuid.UUID] `gorm:"column:completed_lessons;not null" json:"completedLessons"`
	CompletedAt      *time.Time                    `gorm:"column:completed_at" json:"completedAt"`
}

func (Enrollment) TableName() string { return "enrollments" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	if e.CompletedLessons == nil {
		e.CompletedLessons = datatypes.JSONSlice[uuid.UUID]{}
	}
	return nil
}

func (e *Enrollment) HasCompleted(lessonID uuid.UUID) bool {
	for _, id := range e.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// MarkCompleted inserts lessonID into the completed set. It reports whether
// the set changed.
func (e *Enrollment) MarkCompleted(lessonID uuid.UUID) bool {
	if e.HasCompleted(lessonID) {
		return false
	}
	e.CompletedLessons = append(e.CompletedLessons, lessonID)
	return true
}

// Recompute derives progress from the live lesson set of the course. Only
// completed lessons that still exist count toward the numerator. completedAt
// is stamped the first time progress reaches 100 and is never cleared.
func (e *Enrollment) Recompute(liveLessonIDs []uuid.UUID, now time.Time) {
	e.Progress = ProgressPercent(e.CompletedLessons, liveLessonIDs)
	if e.Progress == 100 && e.CompletedAt == nil {
		t := now.UTC()
		e.CompletedAt = &t
	}
}

// ProgressPercent is round(100 * |completed ∩ live| / |live|), 0 for an empty course.
func ProgressPercent(completed []uuid.UUID, live []uuid.UUID) int {
	if len(live) == 0 {
		return 0
	}
	liveSet := make(map[uuid.UUID]struct{}, len(live))
	for _, id := range live {
		liveSet[id] = struct{}{}
	}
	done := 0
	seen := make(map[uuid.UUID]struct{}, len(completed))
	for _, id := range completed {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := liveSet[id]; ok {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(liveSet))))
}
