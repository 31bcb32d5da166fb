package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	"github.com/yungbote/coursify-backend/internal/data/repos/testutil"
	"github.com/yungbote/coursify-backend/internal/observability"
	"github.com/yungbote/coursify-backend/internal/platform/apierr"
	"github.com/yungbote/coursify-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

// fixture wires every repo against one private sqlite database. Seeding goes
// straight through db; services open their own transactions.
type fixture struct {
	db         *gorm.DB
	log        *logger.Logger
	users      repos.UserRepo
	courses    repos.CourseRepo
	modules    repos.ModuleRepo
	lessons    repos.LessonRepo
	quizzes    repos.QuizRepo
	enrollment repos.EnrollmentRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return &fixture{
		db:         db,
		log:        log,
		users:      repos.NewUserRepo(db, log),
		courses:    repos.NewCourseRepo(db, log),
		modules:    repos.NewModuleRepo(db, log),
		lessons:    repos.NewLessonRepo(db, log),
		quizzes:    repos.NewQuizRepo(db, log),
		enrollment: repos.NewEnrollmentRepo(db, log),
	}
}

func asUser(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}

func requireStatus(t *testing.T, err error, status int) *apierr.Error {
	t.Helper()
	ae, ok := apierr.As(err)
	if !ok {
		t.Fatalf("expected api error with status %d, got %v", status, err)
	}
	if ae.Status != status {
		t.Fatalf("expected status %d, got %d (%v)", status, ae.Status, err)
	}
	return ae
}

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func metricsText(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("write metrics: %v", err)
	}
	return buf.String()
}
