package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursify-backend/internal/data/repos/testutil"
	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/platform/llm"
	"github.com/yungbote/coursify-backend/internal/platform/patch"
)

func TestLessonCreateAndGet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := testutil.SeedUser(t, ctx, f.db, "owner@example.com")
	other := testutil.SeedUser(t, ctx, f.db, "other@example.com")
	course := testutil.SeedCourse(t, ctx, f.db, owner.ID)
	module := testutil.SeedModule(t, ctx, f.db, course.ID, 0)
	svc := NewLessonService(f.db, f.log, f.modules, f.lessons, f.quizzes, NewContentGenerator(f.log, nil, nil))

	in := CreateLessonInput{ModuleID: module.ID.String(), Title: "Intro"}
	_, err := svc.Create(asUser(other.ID), in)
	requireStatus(t, err, http.StatusForbidden)

	dur := patch.Int(-5)
	_, err = svc.Create(asUser(owner.ID), CreateLessonInput{ModuleID: module.ID.String(), Title: "Intro", Duration: &dur})
	requireStatus(t, err, http.StatusBadRequest)
	_, err = svc.Create(asUser(owner.ID), CreateLessonInput{ModuleID: module.ID.String(), Title: "Intro", LessonType: "podcast"})
	requireStatus(t, err, http.StatusBadRequest)

	l, err := svc.Create(asUser(owner.ID), in)
	require.NoError(t, err)
	assert.Equal(t, types.LessonTypeArticle, l.LessonType)
	assert.Equal(t, types.LessonStatusDraft, l.Status)
	assert.Nil(t, l.Duration)

	// Reads are public.
	got, err := svc.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Intro", got.Title)
	assert.Nil(t, got.Module)

	_, err = svc.Get(ctx, uuid.New())
	requireStatus(t, err, http.StatusNotFound)
}

func TestLessonUpdateClearsNullableFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := testutil.SeedUser(t, ctx, f.db, "owner@example.com")
	course := testutil.SeedCourse(t, ctx, f.db, owner.ID)
	module := testutil.SeedModule(t, ctx, f.db, course.ID, 0)
	lesson := testutil.SeedLesson(t, ctx, f.db, module.ID, 0)
	svc := NewLessonService(f.db, f.log, f.modules, f.lessons, f.quizzes, NewContentGenerator(f.log, nil, nil))
	caller := asUser(owner.ID)

	got, err := svc.Update(caller, lesson.ID, UpdateLessonInput{
		VideoURL:   patch.Value("https://cdn.example.com/v.mp4"),
		SlideURL:   patch.Value("https://cdn.example.com/s.pdf"),
		Duration:   patch.Value(patch.Int(12)),
		LessonType: patch.Value(types.LessonTypeVideo),
	})
	require.NoError(t, err)
	require.NotNil(t, got.VideoURL)
	require.NotNil(t, got.Duration)
	assert.Equal(t, 12, *got.Duration)
	assert.Equal(t, types.LessonTypeVideo, got.LessonType)

	got, err = svc.Update(caller, lesson.ID, UpdateLessonInput{
		VideoURL: patch.Null[string](),
		SlideURL: patch.Value("  "),
		Duration: patch.Null[patch.Int](),
		Content:  patch.Null[string](),
	})
	require.NoError(t, err)
	assert.Nil(t, got.VideoURL)
	assert.Nil(t, got.SlideURL)
	assert.Nil(t, got.Duration)
	assert.Equal(t, "", got.Content)
	assert.Equal(t, "lesson", got.Title)

	_, err = svc.Update(caller, lesson.ID, UpdateLessonInput{Duration: patch.Value(patch.Int(-1)), LessonType: patch.Value("podcast")})
	ae := requireStatus(t, err, http.StatusBadRequest)
	assert.Len(t, ae.Fields, 2)
}

func TestLessonDeleteRemovesQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := testutil.SeedUser(t, ctx, f.db, "owner@example.com")
	course := testutil.SeedCourse(t, ctx, f.db, owner.ID)
	module := testutil.SeedModule(t, ctx, f.db, course.ID, 0)
	lesson := testutil.SeedLesson(t, ctx, f.db, module.ID, 0)
	_, err := f.quizzes.Upsert(ctx, nil, lesson.ID, TemplateQuiz("x"))
	require.NoError(t, err)
	svc := NewLessonService(f.db, f.log, f.modules, f.lessons, f.quizzes, NewContentGenerator(f.log, nil, nil))

	require.NoError(t, svc.Delete(asUser(owner.ID), lesson.ID))
	var n int64
	require.NoError(t, f.db.Model(&types.Quiz{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestLessonGenerateQuizUpserts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := testutil.SeedUser(t, ctx, f.db, "owner@example.com")
	other := testutil.SeedUser(t, ctx, f.db, "other@example.com")
	course := testutil.SeedCourse(t, ctx, f.db, owner.ID)
	module := testutil.SeedModule(t, ctx, f.db, course.ID, 0)
	lesson := testutil.SeedLesson(t, ctx, f.db, module.ID, 0)

	mock := llm.NewMockProvider("gpt-test").AddResponse(`{"questions":` + quizQuestionsJSON(5) + `}`)
	svc := NewLessonService(f.db, f.log, f.modules, f.lessons, f.quizzes, NewContentGenerator(f.log, mock, nil))

	_, err := svc.GenerateQuiz(asUser(other.ID), lesson.ID)
	requireStatus(t, err, http.StatusForbidden)
	assert.Zero(t, mock.CallCount())

	first, err := svc.GenerateQuiz(asUser(owner.ID), lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, GenerationSourceProvider, first.Source)
	assert.Len(t, first.Quiz.Questions, 5)
	assert.Equal(t, types.DefaultPassingScore, first.Quiz.PassingScore)

	// The mock queue is empty now, so the second call falls back and replaces the questions.
	second, err := svc.GenerateQuiz(asUser(owner.ID), lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, GenerationSourceTemplate, second.Source)
	assert.Equal(t, first.Quiz.ID, second.Quiz.ID)
	assert.Len(t, second.Quiz.Questions, 3)

	got, err := svc.Get(ctx, lesson.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Quiz)
	assert.Len(t, got.Quiz.Questions, 3)
}
