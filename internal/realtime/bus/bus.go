package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LessonStatusEvent is emitted on every lesson status transition during
// media generation.
type LessonStatusEvent struct {
	LessonID uuid.UUID `json:"lessonId"`
	CourseID uuid.UUID `json:"courseId"`
	Status   string    `json:"status"`
	VideoURL string    `json:"videoUrl,omitempty"`
	Provider string    `json:"provider,omitempty"`
	At       time.Time `json:"at"`
}

type Bus interface {
	Publish(ctx context.Context, ev LessonStatusEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev LessonStatusEvent)) error
	Close() error
}
