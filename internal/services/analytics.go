package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

const (
	popularLessonCount   = 5
	recentEnrollmentRows = 10
	trendDays            = 30
	trendDateLayout      = "2006-01-02"
)

// Progress histogram labels, in bucket order.
const (
	Bucket0To25  = "0-25%"
	Bucket26To50 = "26-50%"
	Bucket51To75 = "51-75%"
	Bucket76To99 = "76-99%"
	Bucket100    = "100%"
)

var progressBucketOrder = []string{Bucket0To25, Bucket26To50, Bucket51To75, Bucket76To99, Bucket100}

type CourseAnalytics struct {
	Course               AnalyticsCourse    `json:"course"`
	Overview             AnalyticsOverview  `json:"overview"`
	Lessons              LessonPopularity   `json:"lessons"`
	Enrollments          EnrollmentActivity `json:"enrollments"`
	ProgressDistribution []ProgressBucket   `json:"progressDistribution"`
}

type AnalyticsCourse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
}

type AnalyticsOverview struct {
	TotalEnrollments     int     `json:"totalEnrollments"`
	TotalModules         int     `json:"totalModules"`
	TotalLessons         int     `json:"totalLessons"`
	AverageProgress      int     `json:"averageProgress"`
	CompletedEnrollments int     `json:"completedEnrollments"`
	CompletionRate       float64 `json:"completionRate"`
}

type LessonStat struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	ModuleTitle    string    `json:"moduleTitle"`
	CompletedBy    int       `json:"completedBy"`
	CompletionRate float64   `json:"completionRate"`
}

type LessonPopularity struct {
	MostPopular  []LessonStat `json:"mostPopular"`
	LeastPopular []LessonStat `json:"leastPopular"`
}

type RecentEnrollment struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	EnrolledAt  time.Time `json:"enrolledAt"`
	Progress    int       `json:"progress"`
	Completed   bool      `json:"completed"`
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type EnrollmentActivity struct {
	Recent []RecentEnrollment `json:"recent"`
	Trend  []TrendPoint       `json:"trend"`
}

type ProgressBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type AnalyticsService interface {
	GetCourseAnalytics(ctx context.Context, courseID uuid.UUID) (*CourseAnalytics, error)
}

type analyticsService struct {
	log            *logger.Logger
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	now            func() time.Time
}

// NewAnalyticsService uses time.Now when now is nil.
func NewAnalyticsService(log *logger.Logger, courseRepo repos.CourseRepo, enrollmentRepo repos.EnrollmentRepo, now func() time.Time) AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &analyticsService{
		log:            log.With("service", "AnalyticsService"),
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		now:            now,
	}
}

func (s *analyticsService) GetCourseAnalytics(ctx context.Context, courseID uuid.UUID) (*CourseAnalytics, error) {
	if _, err := ownedCourse(ctx, nil, s.courseRepo, courseID); err != nil {
		return nil, err
	}
	tree, err := s.courseRepo.GetTree(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("load course tree: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("course %s vanished during analytics", courseID)
	}
	enrollments, err := s.enrollmentRepo.ListByCourseID(ctx, nil, courseID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return ComputeCourseAnalytics(tree, enrollments, s.now()), nil
}

// ComputeCourseAnalytics is a read-only pass over a loaded course tree and
// its enrollments. Modules and lessons must be in display order; enrollments
// newest first.
func ComputeCourseAnalytics(course *types.Course, enrollments []*types.Enrollment, now time.Time) *CourseAnalytics {
	total := len(enrollments)
	out := &CourseAnalytics{
		Course: AnalyticsCourse{
			ID:        course.ID,
			Title:     course.Title,
			Published: course.Published,
			CreatedAt: course.CreatedAt,
		},
	}

	progressSum, completed := 0, 0
	for _, e := range enrollments {
		progressSum += e.Progress
		if e.CompletedAt != nil {
			completed++
		}
	}
	out.Overview = AnalyticsOverview{
		TotalEnrollments:     total,
		TotalModules:         len(course.Modules),
		TotalLessons:         course.LessonCount(),
		CompletedEnrollments: completed,
	}
	if total > 0 {
		out.Overview.AverageProgress = int(math.Round(float64(progressSum) / float64(total)))
		out.Overview.CompletionRate = roundTenth(float64(completed) / float64(total) * 100)
	}

	out.Lessons = lessonPopularity(course, enrollments)
	out.Enrollments = EnrollmentActivity{
		Recent: recentEnrollments(enrollments),
		Trend:  enrollmentTrend(enrollments, now),
	}
	out.ProgressDistribution = ProgressDistribution(enrollments)
	return out
}

func lessonPopularity(course *types.Course, enrollments []*types.Enrollment) LessonPopularity {
	total := len(enrollments)
	var stats []LessonStat
	for _, m := range course.Modules {
		if m == nil {
			continue
		}
		for _, l := range m.Lessons {
			if l == nil {
				continue
			}
			n := 0
			for _, e := range enrollments {
				if e.HasCompleted(l.ID) {
					n++
				}
			}
			stat := LessonStat{ID: l.ID, Title: l.Title, ModuleTitle: m.Title, CompletedBy: n}
			if total > 0 {
				stat.CompletionRate = roundTenth(float64(n) / float64(total) * 100)
			}
			stats = append(stats, stat)
		}
	}

	sort.SliceStable(stats, func(i, j int) bool { return stats[i].CompletedBy > stats[j].CompletedBy })

	most := make([]LessonStat, 0, popularLessonCount)
	most = append(most, stats[:min(popularLessonCount, len(stats))]...)

	tail := stats[len(stats)-min(popularLessonCount, len(stats)):]
	least := make([]LessonStat, 0, len(tail))
	for i := len(tail) - 1; i >= 0; i-- {
		least = append(least, tail[i])
	}
	return LessonPopularity{MostPopular: most, LeastPopular: least}
}

func recentEnrollments(enrollments []*types.Enrollment) []RecentEnrollment {
	out := make([]RecentEnrollment, 0, min(recentEnrollmentRows, len(enrollments)))
	for _, e := range enrollments {
		if len(out) == recentEnrollmentRows {
			break
		}
		out = append(out, RecentEnrollment{
			ID:          e.ID,
			DisplayName: e.User.DisplayName(),
			EnrolledAt:  e.EnrolledAt,
			Progress:    e.Progress,
			Completed:   e.CompletedAt != nil,
		})
	}
	return out
}

// enrollmentTrend counts enrollments per UTC calendar day for the 30 days
// ending today, oldest first.
func enrollmentTrend(enrollments []*types.Enrollment, now time.Time) []TrendPoint {
	perDay := make(map[string]int, len(enrollments))
	for _, e := range enrollments {
		perDay[e.EnrolledAt.UTC().Format(trendDateLayout)]++
	}
	today := now.UTC()
	points := make([]TrendPoint, trendDays)
	for i := range points {
		day := today.AddDate(0, 0, -(trendDays - 1 - i)).Format(trendDateLayout)
		points[i] = TrendPoint{Date: day, Count: perDay[day]}
	}
	return points
}

// ProgressDistribution buckets enrollments by progress, first match wins.
func ProgressDistribution(enrollments []*types.Enrollment) []ProgressBucket {
	counts := make(map[string]int, len(progressBucketOrder))
	for _, e := range enrollments {
		counts[progressBucket(e.Progress)]++
	}
	out := make([]ProgressBucket, len(progressBucketOrder))
	for i, label := range progressBucketOrder {
		out[i] = ProgressBucket{Range: label, Count: counts[label]}
	}
	return out
}

func progressBucket(p int) string {
	switch {
	case p <= 25:
		return Bucket0To25
	case p <= 50:
		return Bucket26To50
	case p <= 75:
		return Bucket51To75
	case p < 100:
		return Bucket76To99
	default:
		return Bucket100
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
