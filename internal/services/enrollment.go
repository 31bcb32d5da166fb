package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/observability"
	"github.com/yungbote/coursify-backend/internal/platform/apierr"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

const (
	alreadyEnrolledMessage = "already enrolled in this course"
	notPublishedMessage    = "course is not published"
)

type EnrollInput struct {
	UserID   string `json:"userId" validate:"required,uuid"`
	CourseID string `json:"courseId" validate:"required,uuid"`
}

type ListEnrollmentsInput struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type RecordProgressInput struct {
	LessonID string `json:"lessonId" validate:"required,uuid"`
}

// EnrollmentSummary is a list row. Course shadows the embedded enrollment's
// course so the row carries counts instead of the full subtree.
type EnrollmentSummary struct {
	*types.Enrollment
	Course *CourseSummary `json:"course"`
}

type EnrollmentService interface {
	Enroll(ctx context.Context, in EnrollInput) (*types.Enrollment, error)
	List(ctx context.Context, in ListEnrollmentsInput) ([]*EnrollmentSummary, error)
	RecordLessonComplete(ctx context.Context, enrollmentID uuid.UUID, in RecordProgressInput) (*types.Enrollment, error)
}

type enrollmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	lessonRepo     repos.LessonRepo
	enrollmentRepo repos.EnrollmentRepo
	metrics        *observability.Metrics
	now            func() time.Time
}

func NewEnrollmentService(
	db *gorm.DB,
	log *logger.Logger,
	courseRepo repos.CourseRepo,
	lessonRepo repos.LessonRepo,
	enrollmentRepo repos.EnrollmentRepo,
	metrics *observability.Metrics,
) EnrollmentService {
	return &enrollmentService{
		db:             db,
		log:            log.With("service", "EnrollmentService"),
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		metrics:        metrics,
		now:            time.Now,
	}
}

// Enroll creates the caller's enrollment. Drafts only accept their owner.
// The (course, user) unique index settles concurrent duplicates.
func (s *enrollmentService) Enroll(ctx context.Context, in EnrollInput) (*types.Enrollment, error) {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	userID := uuid.MustParse(in.UserID)
	courseID := uuid.MustParse(in.CourseID)
	if userID != callerID {
		return nil, apierr.Forbidden("you can only enroll yourself")
	}

	var out *types.Enrollment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		course, err := s.courseRepo.GetByID(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		if course == nil {
			return apierr.NotFound("Course")
		}
		if !course.Published && course.UserID != callerID {
			return apierr.Conflict(notPublishedMessage)
		}

		existing, err := s.enrollmentRepo.GetByCourseAndUser(ctx, tx, courseID, userID)
		if err != nil {
			return fmt.Errorf("check enrollment: %w", err)
		}
		if existing != nil {
			return apierr.Conflict(alreadyEnrolledMessage)
		}

		enrollment := &types.Enrollment{CourseID: courseID, UserID: userID}
		if _, err := s.enrollmentRepo.Create(ctx, tx, []*types.Enrollment{enrollment}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierr.Conflict(alreadyEnrolledMessage)
			}
			return fmt.Errorf("create enrollment: %w", err)
		}

		tree, err := s.courseRepo.GetTree(ctx, tx, courseID)
		if err != nil {
			return fmt.Errorf("load course content: %w", err)
		}
		enrollment.Course = tree
		out = enrollment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncEnrollment()
	s.log.Info("Enrollment created", "enrollment_id", out.ID, "course_id", courseID, "enrollee_id", userID)
	return out, nil
}

func (s *enrollmentService) List(ctx context.Context, in ListEnrollmentsInput) ([]*EnrollmentSummary, error) {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if uuid.MustParse(in.UserID) != callerID {
		return nil, apierr.Forbidden("you can only list your own enrollments")
	}

	enrollments, err := s.enrollmentRepo.ListByUserID(ctx, nil, callerID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	courseIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}
	counts, err := s.courseRepo.CountsByIDs(ctx, nil, courseIDs)
	if err != nil {
		return nil, fmt.Errorf("count course content: %w", err)
	}

	out := make([]*EnrollmentSummary, 0, len(enrollments))
	for _, e := range enrollments {
		row := &EnrollmentSummary{Enrollment: e}
		if e.Course != nil {
			row.Course = &CourseSummary{Course: e.Course, Counts: counts[e.CourseID]}
		}
		out = append(out, row)
	}
	return out, nil
}

// RecordLessonComplete adds lessonID to the completed set and recomputes
// progress against the course's current lessons.
func (s *enrollmentService) RecordLessonComplete(ctx context.Context, enrollmentID uuid.UUID, in RecordProgressInput) (*types.Enrollment, error) {
	callerID, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	lessonID := uuid.MustParse(in.LessonID)

	var (
		out   *types.Enrollment
		added bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		enrollment, err := s.enrollmentRepo.GetByID(ctx, tx, enrollmentID)
		if err != nil {
			return fmt.Errorf("load enrollment: %w", err)
		}
		if enrollment == nil {
			return apierr.NotFound("Enrollment")
		}
		if enrollment.UserID != callerID {
			return apierr.Forbidden("you do not own this enrollment")
		}

		lesson, err := s.lessonRepo.GetByID(ctx, tx, lessonID)
		if err != nil {
			return fmt.Errorf("load lesson: %w", err)
		}
		if lesson == nil || lesson.Module == nil {
			return apierr.NotFound("Lesson")
		}
		if lesson.Module.CourseID != enrollment.CourseID {
			return fieldError("lessonId", "does not belong to this course")
		}

		live, err := s.lessonRepo.GetIDsByCourseID(ctx, tx, enrollment.CourseID)
		if err != nil {
			return fmt.Errorf("load course lessons: %w", err)
		}
		added = enrollment.MarkCompleted(lessonID)
		enrollment.Recompute(live, s.now())
		if err := s.enrollmentRepo.SaveProgress(ctx, tx, enrollment); err != nil {
			return fmt.Errorf("save progress: %w", err)
		}

		course, err := s.courseRepo.GetByID(ctx, tx, enrollment.CourseID)
		if err != nil {
			return fmt.Errorf("load course: %w", err)
		}
		enrollment.Course = course
		out = enrollment
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added {
		s.metrics.IncLessonCompletion()
	}
	s.log.Debug("Lesson completion recorded", "enrollment_id", enrollmentID, "lesson_id", lessonID, "progress", out.Progress)
	return out, nil
}
