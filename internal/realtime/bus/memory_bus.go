package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

// memoryBus logs every event and fans it out to in-process forwarders.
type memoryBus struct {
	log  *logger.Logger
	mu   sync.RWMutex
	subs map[int]func(LessonStatusEvent)
	next int
}

func NewMemoryBus(log *logger.Logger) Bus {
	if log == nil {
		log = logger.Nop()
	}
	return &memoryBus{
		log:  log.With("service", "MemoryLessonStatusBus"),
		subs: map[int]func(LessonStatusEvent){},
	}
}

func (b *memoryBus) Publish(ctx context.Context, ev LessonStatusEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info("lesson status", "lesson_id", ev.LessonID, "course_id", ev.CourseID, "status", ev.Status, "provider", ev.Provider)

	b.mu.RLock()
	handlers := make([]func(LessonStatusEvent), 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onEvent func(ev LessonStatusEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = onEvent
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	b.subs = map[int]func(LessonStatusEvent){}
	b.mu.Unlock()
	return nil
}
