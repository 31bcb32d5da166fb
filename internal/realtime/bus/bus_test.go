package bus

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

func TestMemoryBusForwardsEvents(t *testing.T) {
	b := NewMemoryBus(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []LessonStatusEvent
	require.NoError(t, b.StartForwarder(ctx, func(ev LessonStatusEvent) { got = append(got, ev) }))

	ev := LessonStatusEvent{LessonID: uuid.New(), CourseID: uuid.New(), Status: "generating", At: time.Now().UTC()}
	require.NoError(t, b.Publish(context.Background(), ev))
	require.Len(t, got, 1)
	assert.Equal(t, ev.LessonID, got[0].LessonID)
	assert.Equal(t, "generating", got[0].Status)
}

func TestMemoryBusClosedDropsSubscribers(t *testing.T) {
	b := NewMemoryBus(nil)
	calls := 0
	require.NoError(t, b.StartForwarder(context.Background(), func(LessonStatusEvent) { calls++ }))
	require.NoError(t, b.Close())
	require.NoError(t, b.Publish(context.Background(), LessonStatusEvent{Status: "draft"}))
	assert.Equal(t, 0, calls)
}

func TestMemoryBusRequiresCallback(t *testing.T) {
	assert.Error(t, NewMemoryBus(nil).StartForwarder(context.Background(), nil))
}

func TestNewRedisBusRequiresAddr(t *testing.T) {
	_, err := NewRedisBus(logger.Nop(), "  ", "")
	assert.Error(t, err)
}

func TestNewWithoutRedisUsesMemoryBus(t *testing.T) {
	b, err := New(logger.Nop(), "", DefaultChannel)
	require.NoError(t, err)
	_, ok := b.(*memoryBus)
	assert.True(t, ok)
}
