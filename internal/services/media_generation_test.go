package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	"github.com/yungbote/coursify-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/platform/apierr"
	"github.com/yungbote/coursify-backend/internal/platform/replicate"
	"github.com/yungbote/coursify-backend/internal/realtime/bus"
)

// fakeReplicate answers per model: an error, or a prediction with output.
type fakeReplicate struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	calls   []string
	inputs  []map[string]any
}

func (f *fakeReplicate) Run(ctx context.Context, model string, input map[string]any) (*replicate.Prediction, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model)
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()
	if err, ok := f.errs[model]; ok {
		return nil, err
	}
	pred := &replicate.Prediction{ID: "p-" + model, Model: model, Status: replicate.StatusSucceeded}
	if out, ok := f.outputs[model]; ok {
		pred.Output = json.RawMessage(out)
	}
	return pred, nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []bus.LessonStatusEvent
}

func (r *recordedEvents) statuses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Status
	}
	return out
}

type mediaWorld struct {
	*fixture
	owner  *types.User
	lesson *types.Lesson
	events *recordedEvents
	bus    bus.Bus
}

func newMediaWorld(t *testing.T) *mediaWorld {
	t.Helper()
	ctx := context.Background()
	f := newFixture(t)
	w := &mediaWorld{fixture: f, events: &recordedEvents{}}
	w.owner = testutil.SeedUser(t, ctx, f.db, "owner@example.com")
	course := testutil.SeedCourse(t, ctx, f.db, w.owner.ID)
	module := testutil.SeedModule(t, ctx, f.db, course.ID, 0)
	w.lesson = testutil.SeedLesson(t, ctx, f.db, module.ID, 0)

	w.bus = bus.NewMemoryBus(f.log)
	fwdCtx, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)
	require.NoError(t, w.bus.StartForwarder(fwdCtx, func(ev bus.LessonStatusEvent) {
		w.events.mu.Lock()
		w.events.events = append(w.events.events, ev)
		w.events.mu.Unlock()
	}))
	return w
}

func (w *mediaWorld) reload(t *testing.T) *types.Lesson {
	t.Helper()
	l, err := w.lessons.GetByID(context.Background(), nil, w.lesson.ID)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l
}

func TestGenerateLessonVideoFallsThroughModels(t *testing.T) {
	w := newMediaWorld(t)
	client := &fakeReplicate{
		errs:    map[string]error{"luma/ray": &replicate.PredictionError{ID: "p1", Status: replicate.StatusFailed, Detail: "nsfw"}},
		outputs: map[string]string{"google-deepmind/veo-2": `"https://cdn.example.com/veo.mp4"`},
	}
	svc := NewMediaGenerationService(w.log, w.lessons, client, nil, w.bus, nil)

	res, err := svc.GenerateLessonVideo(asUser(w.owner.ID), w.lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/veo.mp4", res.VideoURL)
	assert.Equal(t, types.LessonStatusCompleted, res.Status)
	assert.Equal(t, "google-deepmind/veo-2", res.Provider)
	assert.False(t, res.Cached)
	assert.Equal(t, []string{"luma/ray", "google-deepmind/veo-2"}, client.calls)
	assert.Equal(t, "16:9", client.inputs[0]["aspect_ratio"])

	stored := w.reload(t)
	assert.Equal(t, types.LessonStatusCompleted, stored.Status)
	require.NotNil(t, stored.VideoURL)
	assert.Equal(t, res.VideoURL, *stored.VideoURL)
	assert.Equal(t, []string{types.LessonStatusGenerating, types.LessonStatusCompleted}, w.events.statuses())

	// A finished video short-circuits without calling any model.
	again, err := svc.GenerateLessonVideo(asUser(w.owner.ID), w.lesson.ID)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, res.VideoURL, again.VideoURL)
	assert.Len(t, client.calls, 2)
}

func TestGenerateLessonVideoRevertsOnFailure(t *testing.T) {
	w := newMediaWorld(t)
	// veo answers without a usable URL.
	client := &fakeReplicate{
		errs:    map[string]error{"luma/ray": &replicate.HTTPError{StatusCode: http.StatusTooManyRequests, Body: "slow down"}},
		outputs: map[string]string{"google-deepmind/veo-2": `{"status":"ok"}`},
	}
	svc := NewMediaGenerationService(w.log, w.lessons, client, nil, w.bus, nil)

	_, err := svc.GenerateLessonVideo(asUser(w.owner.ID), w.lesson.ID)
	ae := requireStatus(t, err, http.StatusInternalServerError)
	assert.Equal(t, apierr.CodeUpstream, ae.Code)
	assert.Contains(t, err.Error(), "all video generation providers failed")

	stored := w.reload(t)
	assert.Equal(t, types.LessonStatusDraft, stored.Status)
	assert.Nil(t, stored.VideoURL)
	assert.Equal(t, []string{types.LessonStatusGenerating, types.LessonStatusDraft}, w.events.statuses())
}

func TestGenerateLessonVideoWithoutClient(t *testing.T) {
	w := newMediaWorld(t)
	svc := NewMediaGenerationService(w.log, w.lessons, nil, nil, nil, nil)

	_, err := svc.GenerateLessonVideo(asUser(w.owner.ID), w.lesson.ID)
	requireStatus(t, err, http.StatusInternalServerError)
	assert.Contains(t, err.Error(), "no video generation provider configured")
	assert.Equal(t, types.LessonStatusDraft, w.reload(t).Status)
}

func TestGenerateLessonVideoOwnership(t *testing.T) {
	w := newMediaWorld(t)
	other := testutil.SeedUser(t, context.Background(), w.db, "other@example.com")
	client := &fakeReplicate{}
	svc := NewMediaGenerationService(w.log, w.lessons, client, []string{"custom/model"}, nil, nil)

	_, err := svc.GenerateLessonVideo(asUser(other.ID), w.lesson.ID)
	requireStatus(t, err, http.StatusForbidden)
	_, err = svc.GenerateLessonVideo(context.Background(), w.lesson.ID)
	requireStatus(t, err, http.StatusUnauthorized)
	assert.Empty(t, client.calls)
}

func TestGenerateLessonVideoCancelledRequestStillReverts(t *testing.T) {
	w := newMediaWorld(t)
	ctx, cancel := context.WithCancel(asUser(w.owner.ID))
	client := &cancellingReplicate{cancel: cancel}
	svc := NewMediaGenerationService(w.log, w.lessons, client, []string{"a/one", "b/two"}, nil, nil)

	_, err := svc.GenerateLessonVideo(ctx, w.lesson.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, types.LessonStatusDraft, w.reload(t).Status)
}

type cancellingReplicate struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingReplicate) Run(ctx context.Context, model string, input map[string]any) (*replicate.Prediction, error) {
	c.calls++
	c.cancel()
	return nil, ctx.Err()
}

// succeedAfterCancel ends the request before answering with a finished video.
type succeedAfterCancel struct {
	cancel context.CancelFunc
}

func (c *succeedAfterCancel) Run(ctx context.Context, model string, input map[string]any) (*replicate.Prediction, error) {
	c.cancel()
	return &replicate.Prediction{ID: "p1", Model: model, Status: replicate.StatusSucceeded, Output: json.RawMessage(`"https://v/x.mp4"`)}, nil
}

func TestGenerateLessonVideoStoresResultAfterRequestEnds(t *testing.T) {
	w := newMediaWorld(t)
	ctx, cancel := context.WithCancel(asUser(w.owner.ID))
	defer cancel()
	svc := NewMediaGenerationService(w.log, w.lessons, &succeedAfterCancel{cancel: cancel}, []string{"a/one"}, w.bus, nil)

	res, err := svc.GenerateLessonVideo(ctx, w.lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://v/x.mp4", res.VideoURL)

	stored := w.reload(t)
	assert.Equal(t, types.LessonStatusCompleted, stored.Status)
	require.NotNil(t, stored.VideoURL)
	assert.Equal(t, "https://v/x.mp4", *stored.VideoURL)
	assert.Equal(t, []string{types.LessonStatusGenerating, types.LessonStatusCompleted}, w.events.statuses())
}

// failingCompletion rejects the completed write and passes everything else through.
type failingCompletion struct {
	repos.LessonRepo
}

func (f failingCompletion) UpdateStatus(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID, status string, videoURL *string) error {
	if status == types.LessonStatusCompleted {
		return errors.New("disk full")
	}
	return f.LessonRepo.UpdateStatus(ctx, tx, lessonID, status, videoURL)
}

func TestGenerateLessonVideoRevertsWhenResultCannotBeStored(t *testing.T) {
	w := newMediaWorld(t)
	client := &fakeReplicate{outputs: map[string]string{"a/one": `"https://v/x.mp4"`}}
	svc := NewMediaGenerationService(w.log, failingCompletion{w.lessons}, client, []string{"a/one"}, w.bus, nil)

	_, err := svc.GenerateLessonVideo(asUser(w.owner.ID), w.lesson.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	stored := w.reload(t)
	assert.Equal(t, types.LessonStatusDraft, stored.Status)
	assert.Nil(t, stored.VideoURL)
	assert.Equal(t, []string{types.LessonStatusGenerating, types.LessonStatusDraft}, w.events.statuses())
}

func TestVideoPrompt(t *testing.T) {
	content := "<h1>Intro</h1>\n\n<p>Variables   hold <b>values</b>.</p>" + strings.Repeat("z", 300)
	got := videoPrompt("Variables", content)
	assert.True(t, strings.HasPrefix(got, `Create an educational video for a lesson titled "Variables". Intro Variables hold values.`))
	assert.True(t, strings.HasSuffix(got, " Style: clean, professional, educational."))
	assert.NotContains(t, got, "<")

	assert.Equal(t, `Create an educational video for a lesson titled "Empty". Style: clean, professional, educational.`, videoPrompt("Empty", ""))
}

func TestVideoModelInput(t *testing.T) {
	assert.Equal(t, map[string]any{"prompt": "p", "aspect_ratio": "16:9", "duration": "5s"}, videoModelInput("luma/ray", "p"))
	assert.Equal(t, map[string]any{"prompt": "p", "duration": 5}, videoModelInput("google-deepmind/veo-2", "p"))
	assert.Equal(t, map[string]any{"prompt": "p"}, videoModelInput("other/model", "p"))
}
