package learning

import (
	"context"
	"testing"

	"github.com/yungbote/coursify-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursify-backend/internal/domain"
)

func TestQuizRepoUpsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewQuizRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, "quiz@example.com")
	c := testutil.SeedCourse(t, ctx, tx, u.ID)
	m := testutil.SeedModule(t, ctx, tx, c.ID, 0)
	l := testutil.SeedLesson(t, ctx, tx, m.ID, 0)

	first := []types.QuizQuestion{{Question: "one", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 1}}
	q1, err := repo.Upsert(ctx, tx, l.ID, first)
	if err != nil {
		t.Fatalf("Upsert create: %v", err)
	}
	if q1.PassingScore != types.DefaultPassingScore {
		t.Fatalf("passing score: got=%d want=%d", q1.PassingScore, types.DefaultPassingScore)
	}

	second := []types.QuizQuestion{
		{Question: "two", Options: []string{"a", "b", "c", "d"}},
		{Question: "three", Options: []string{"a", "b", "c", "d"}},
	}
	q2, err := repo.Upsert(ctx, tx, l.ID, second)
	if err != nil {
		t.Fatalf("Upsert replace: %v", err)
	}
	if q2.ID != q1.ID {
		t.Fatalf("Upsert created a second quiz")
	}

	stored, err := repo.GetByLessonID(ctx, tx, l.ID)
	if err != nil || stored == nil {
		t.Fatalf("GetByLessonID: %v", err)
	}
	if len(stored.Questions) != 2 || stored.Questions[0].Question != "two" {
		t.Fatalf("questions not replaced: %+v", stored.Questions)
	}
}
