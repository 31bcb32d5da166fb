package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/observability"
	"github.com/yungbote/coursify-backend/internal/platform/apierr"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/platform/replicate"
	"github.com/yungbote/coursify-backend/internal/realtime/bus"
)

const (
	videoPromptPreview = 200
	statusWriteTimeout = 10 * time.Second
)

// DefaultVideoModels is the waterfall order used when VIDEO_MODELS is unset.
var DefaultVideoModels = []string{"luma/ray", "google-deepmind/veo-2"}

type VideoResult struct {
	VideoURL string `json:"videoUrl"`
	Status   string `json:"status"`
	Provider string `json:"provider,omitempty"`
	Cached   bool   `json:"cached"`
}

type MediaGenerationService interface {
	// GenerateLessonVideo runs the model waterfall for an owned lesson. A
	// lesson that already has a finished video is returned as-is.
	GenerateLessonVideo(ctx context.Context, lessonID uuid.UUID) (*VideoResult, error)
}

type mediaGenerationService struct {
	log        *logger.Logger
	lessonRepo repos.LessonRepo
	client     replicate.Client
	models     []string
	events     bus.Bus
	metrics    *observability.Metrics
}

// NewMediaGenerationService accepts a nil client (no token configured); every
// generation then fails after reverting the lesson. events may be nil.
func NewMediaGenerationService(
	log *logger.Logger,
	lessonRepo repos.LessonRepo,
	client replicate.Client,
	models []string,
	events bus.Bus,
	metrics *observability.Metrics,
) MediaGenerationService {
	if len(models) == 0 {
		models = DefaultVideoModels
	}
	return &mediaGenerationService{
		log:        log.With("service", "MediaGenerationService"),
		lessonRepo: lessonRepo,
		client:     client,
		models:     models,
		events:     events,
		metrics:    metrics,
	}
}

func (s *mediaGenerationService) GenerateLessonVideo(ctx context.Context, lessonID uuid.UUID) (*VideoResult, error) {
	lesson, err := ownedLesson(ctx, nil, s.lessonRepo, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson.HasFinishedVideo() {
		return &VideoResult{VideoURL: *lesson.VideoURL, Status: lesson.Status, Cached: true}, nil
	}
	courseID := lesson.Module.Course.ID

	ctx, span := observability.StartSpan(ctx, "media.generate_video", attribute.String("lesson.id", lessonID.String()))
	defer span.End()

	if err := s.lessonRepo.UpdateStatus(ctx, nil, lessonID, types.LessonStatusGenerating, nil); err != nil {
		return nil, fmt.Errorf("mark lesson generating: %w", err)
	}
	s.publish(ctx, bus.LessonStatusEvent{LessonID: lessonID, CourseID: courseID, Status: types.LessonStatusGenerating})

	prompt := videoPrompt(lesson.Title, lesson.Content)
	url, model, genErr := s.waterfall(ctx, prompt)
	if genErr != nil {
		span.RecordError(genErr)
		span.SetStatus(codes.Error, "video generation failed")

		s.revert(ctx, lessonID, courseID)
		return nil, apierr.Upstream(genErr)
	}

	// The request context may already be cancelled; the status write must
	// still land so the lesson never stays generating.
	writeCtx, cancel := detached(ctx)
	defer cancel()
	if err := s.lessonRepo.UpdateStatus(writeCtx, nil, lessonID, types.LessonStatusCompleted, &url); err != nil {
		span.RecordError(err)
		s.log.Error("Failed to store lesson video", "lesson_id", lessonID, "model", model, "error", err)
		s.revert(ctx, lessonID, courseID)
		return nil, fmt.Errorf("store lesson video: %w", err)
	}
	s.publish(writeCtx, bus.LessonStatusEvent{
		LessonID: lessonID,
		CourseID: courseID,
		Status:   types.LessonStatusCompleted,
		VideoURL: url,
		Provider: model,
	})
	span.SetAttributes(attribute.String("video.model", model))
	s.log.Info("Lesson video generated", "lesson_id", lessonID, "model", model)

	return &VideoResult{VideoURL: url, Status: types.LessonStatusCompleted, Provider: model}, nil
}

// revert puts the lesson back to draft after a failed generation.
func (s *mediaGenerationService) revert(ctx context.Context, lessonID, courseID uuid.UUID) {
	revertCtx, cancel := detached(ctx)
	defer cancel()
	if err := s.lessonRepo.UpdateStatus(revertCtx, nil, lessonID, types.LessonStatusDraft, nil); err != nil {
		s.log.Error("Failed to revert lesson status", "lesson_id", lessonID, "error", err)
	}
	s.publish(revertCtx, bus.LessonStatusEvent{LessonID: lessonID, CourseID: courseID, Status: types.LessonStatusDraft})
}

func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
}

// waterfall makes one attempt per model and stops at the first URL.
func (s *mediaGenerationService) waterfall(ctx context.Context, prompt string) (string, string, error) {
	if s.client == nil {
		return "", "", errors.New("no video generation provider configured")
	}
	var errs []error
	for _, model := range s.models {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		start := time.Now()
		pred, err := s.client.Run(ctx, model, videoModelInput(model, prompt))
		if err == nil {
			if url, ok := pred.OutputURL(); ok {
				s.metrics.ObserveVideoGeneration(model, "ok", time.Since(start))
				return url, model, nil
			}
			err = fmt.Errorf("prediction %s returned no video URL", pred.ID)
		}
		s.metrics.ObserveVideoGeneration(model, "error", time.Since(start))
		s.log.Warn("Video model failed", "model", model, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", model, err))
	}
	return "", "", fmt.Errorf("all video generation providers failed: %w", errors.Join(errs...))
}

func (s *mediaGenerationService) publish(ctx context.Context, ev bus.LessonStatusEvent) {
	if s.events == nil {
		return
	}
	ev.At = time.Now().UTC()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("Failed to publish lesson status", "lesson_id", ev.LessonID, "status", ev.Status, "error", err)
	}
}

// videoModelInput shapes the prediction input each model family expects.
func videoModelInput(model, prompt string) map[string]any {
	switch {
	case strings.HasPrefix(model, "luma/"):
		return map[string]any{"prompt": prompt, "aspect_ratio": "16:9", "duration": "5s"}
	case strings.HasPrefix(model, "google-deepmind/veo"):
		return map[string]any{"prompt": prompt, "duration": 5}
	default:
		return map[string]any{"prompt": prompt}
	}
}

var (
	markupTag  = regexp.MustCompile(`<[^>]*>`)
	whitespace = regexp.MustCompile(`\s+`)
)

func videoPrompt(title, content string) string {
	preview := markupTag.ReplaceAllString(truncateRunes(content, videoPromptPreview), "")
	preview = strings.TrimSpace(whitespace.ReplaceAllString(preview, " "))
	preview = strings.TrimRight(preview, ".")

	var b strings.Builder
	fmt.Fprintf(&b, "Create an educational video for a lesson titled \"%s\".", title)
	if preview != "" {
		b.WriteString(" ")
		b.WriteString(preview)
		b.WriteString(".")
	}
	b.WriteString(" Style: clean, professional, educational.")
	return b.String()
}
