package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/coursify-backend/internal/data/repos"
	"github.com/yungbote/coursify-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/coursify-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursify-backend/internal/http/middleware"
	"github.com/yungbote/coursify-backend/internal/observability"
	"github.com/yungbote/coursify-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursify-backend/internal/services"
)

const testSecret = "router-test-secret"

type apiClient struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	auth   services.AuthService
}

// newAPI wires the full stack against a private sqlite database with no
// LLM provider and no video client configured.
func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(db, log)
	courseRepo := repos.NewCourseRepo(db, log)
	moduleRepo := repos.NewModuleRepo(db, log)
	lessonRepo := repos.NewLessonRepo(db, log)
	quizRepo := repos.NewQuizRepo(db, log)
	enrollmentRepo := repos.NewEnrollmentRepo(db, log)

	metrics := observability.NewMetrics()
	generator := services.NewContentGenerator(log, nil, metrics)
	authService := services.NewAuthService(log, userRepo, testSecret, time.Hour)

	router := NewRouter(RouterConfig{
		Log:            log,
		Metrics:        metrics,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, authService),
		CourseHandler: httpH.NewCourseHandler(log,
			services.NewCourseService(db, log, courseRepo, moduleRepo),
			services.NewCourseGenerationService(db, log, generator, courseRepo, moduleRepo, lessonRepo),
		),
		ModuleHandler: httpH.NewModuleHandler(log, services.NewModuleService(db, log, courseRepo, moduleRepo)),
		LessonHandler: httpH.NewLessonHandler(log,
			services.NewLessonService(db, log, moduleRepo, lessonRepo, quizRepo, generator),
			services.NewMediaGenerationService(log, lessonRepo, nil, nil, nil, metrics),
		),
		EnrollmentHandler: httpH.NewEnrollmentHandler(log,
			services.NewEnrollmentService(db, log, courseRepo, lessonRepo, enrollmentRepo, metrics),
		),
		AnalyticsHandler: httpH.NewAnalyticsHandler(log,
			services.NewAnalyticsService(log, courseRepo, enrollmentRepo, time.Now),
		),
		HealthHandler: httpH.NewHealthHandler(),
	})

	return &apiClient{t: t, db: db, router: router, auth: authService}
}

func (a *apiClient) user(email string) string {
	a.t.Helper()
	u := testutil.SeedUser(a.t, context.Background(), a.db, email)
	token, err := a.auth.MintToken(u.ID, u.Email, time.Hour)
	require.NoError(a.t, err)
	return token
}

func (a *apiClient) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Header().Get("Content-Type") != "" && bytes.HasPrefix(bytes.TrimSpace(rec.Body.Bytes()), []byte("{")) {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func str(t *testing.T, m map[string]any, path ...string) string {
	t.Helper()
	var cur any = m
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		require.True(t, ok, "expected object at %q", p)
		cur = obj[p]
	}
	s, ok := cur.(string)
	require.True(t, ok, "expected string at %v, got %T", path, cur)
	return s
}

func TestHealthAndMetrics(t *testing.T) {
	api := newAPI(t)

	rec, _ := api.do(http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec, _ = api.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "coursify_")
}

func TestCourseLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t)
	owner := api.user("owner@example.com")
	learner := api.user("learner@example.com")

	rec, body := api.do(http.MethodPost, "/api/courses", "", map[string]any{"title": "Go"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", body["code"])

	rec, body = api.do(http.MethodPost, "/api/courses", owner, map[string]any{"title": "Go"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", body["code"])
	assert.NotEmpty(t, body["fields"])

	rec, body = api.do(http.MethodPost, "/api/courses", owner, map[string]any{
		"title": "Go", "description": "Learn Go", "category": "technology", "price": "19.99",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	courseID := str(t, body, "course", "id")
	assert.Equal(t, "beginner", str(t, body, "course", "difficultyLevel"))

	rec, body = api.do(http.MethodPost, "/api/courses/"+courseID+"/publish", owner, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "publish_precondition_failed", body["code"])

	rec, body = api.do(http.MethodPost, "/api/modules", owner, map[string]any{"courseId": courseID, "title": "Basics"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	moduleID := str(t, body, "module", "id")

	rec, body = api.do(http.MethodPost, "/api/lessons", owner, map[string]any{
		"moduleId": moduleID, "title": "Variables", "content": "<p>x := 1</p>", "duration": "12",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lessonID := str(t, body, "lesson", "id")

	rec, _ = api.do(http.MethodPost, "/api/courses/"+courseID+"/publish", learner, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = api.do(http.MethodPost, "/api/courses/"+courseID+"/publish", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["course"].(map[string]any)["published"])

	// Anonymous listing sees the published course with its counts.
	rec, body = api.do(http.MethodGet, "/api/courses?published=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	courses := body["courses"].([]any)
	require.Len(t, courses, 1)
	counts := courses[0].(map[string]any)["counts"].(map[string]any)
	assert.Equal(t, float64(1), counts["modules"])
	assert.Equal(t, float64(1), counts["lessons"])

	rec, body = api.do(http.MethodGet, "/api/courses/"+courseID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	modules := body["course"].(map[string]any)["modules"].([]any)
	require.Len(t, modules, 1)

	rec, body = api.do(http.MethodGet, "/api/courses/"+courseID+"/modules", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["modules"], 1)

	rec, body = api.do(http.MethodPatch, "/api/lessons/"+lessonID, owner, `{"videoUrl": "https://cdn.example.com/v.mp4", "duration": null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lesson := body["lesson"].(map[string]any)
	assert.Equal(t, "https://cdn.example.com/v.mp4", lesson["videoUrl"])
	assert.Nil(t, lesson["duration"])

	rec, body = api.do(http.MethodPost, "/api/lessons/"+lessonID+"/generate-quiz", owner, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "template", body["source"])
	assert.Len(t, body["quiz"].(map[string]any)["questions"], 3)

	rec, body = api.do(http.MethodGet, "/api/lessons/"+lessonID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, body["lesson"].(map[string]any)["quiz"])

	rec, body = api.do(http.MethodDelete, "/api/courses/"+courseID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Course deleted successfully", body["message"])

	rec, _ = api.do(http.MethodGet, "/api/lessons/"+lessonID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollmentAndAnalyticsOverHTTP(t *testing.T) {
	api := newAPI(t)
	owner := api.user("owner@example.com")
	learner := api.user("learner@example.com")

	rec, body := api.do(http.MethodPost, "/api/courses/generate", owner, map[string]any{
		"topic": "SQL", "category": "data", "difficulty": "beginner",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "template", body["source"])
	course := body["course"].(map[string]any)
	courseID := course["id"].(string)
	firstModule := course["modules"].([]any)[0].(map[string]any)
	firstLesson := firstModule["lessons"].([]any)[0].(map[string]any)["id"].(string)

	rec, _ = api.do(http.MethodPost, "/api/courses/"+courseID+"/publish", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = api.do(http.MethodGet, "/api/enrollments", learner, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	learnerID := userIDFromToken(t, api, learner)

	rec, body = api.do(http.MethodPost, "/api/enrollments", learner, map[string]any{"userId": learnerID, "courseId": courseID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	enrollment := body["enrollment"].(map[string]any)
	enrollmentID := enrollment["id"].(string)
	assert.Equal(t, float64(0), enrollment["progress"])

	rec, body = api.do(http.MethodPost, "/api/enrollments", learner, map[string]any{"userId": learnerID, "courseId": courseID})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", body["code"])

	rec, body = api.do(http.MethodPost, "/api/enrollments/"+enrollmentID+"/progress", learner, map[string]any{"lessonId": firstLesson})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	// 1 of 12 template lessons.
	assert.Equal(t, float64(8), body["enrollment"].(map[string]any)["progress"])

	rec, body = api.do(http.MethodGet, "/api/enrollments?userId="+learnerID, learner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["enrollments"], 1)

	rec, _ = api.do(http.MethodGet, "/api/analytics/"+courseID, learner, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = api.do(http.MethodGet, "/api/analytics/"+courseID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	overview := body["overview"].(map[string]any)
	assert.Equal(t, float64(1), overview["totalEnrollments"])
	assert.Equal(t, float64(12), overview["totalLessons"])
	assert.Len(t, body["progressDistribution"], 5)
}

func TestVideoGenerationWithoutProviderRevertsOverHTTP(t *testing.T) {
	api := newAPI(t)
	owner := api.user("owner@example.com")

	_, body := api.do(http.MethodPost, "/api/courses/generate", owner, map[string]any{
		"topic": "Go", "category": "technology", "difficulty": "beginner",
	})
	lessonID := body["course"].(map[string]any)["modules"].([]any)[0].(map[string]any)["lessons"].([]any)[0].(map[string]any)["id"].(string)

	rec, body := api.do(http.MethodPost, "/api/lessons/"+lessonID+"/generate-video", owner, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "upstream_failure", body["code"])

	_, body = api.do(http.MethodGet, "/api/lessons/"+lessonID, "", nil)
	assert.Equal(t, "draft", body["lesson"].(map[string]any)["status"])
}

func TestRequestErrors(t *testing.T) {
	api := newAPI(t)
	owner := api.user("owner@example.com")

	rec, body := api.do(http.MethodGet, "/api/courses/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Course not found", body["error"])

	rec, _ = api.do(http.MethodGet, "/api/courses/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = api.do(http.MethodPost, "/api/courses", owner, `{"title": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformed JSON body", body["error"])

	rec, body = api.do(http.MethodPost, "/api/courses", owner, `{"title": 7, "description": "d", "category": "c"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := body["fields"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "title", fields[0].(map[string]any)["field"])

	rec, _ = api.do(http.MethodPost, "/api/courses", owner, `{"title": "t", "description": "d", "category": "c", "price": "cheap"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodGet, "/api/courses?userId=nope", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodGet, "/api/courses", "not-a-jwt", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func userIDFromToken(t *testing.T, api *apiClient, token string) string {
	t.Helper()
	ctx, err := api.auth.SetContextFromToken(context.Background(), token)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(ctx)
	require.NotNil(t, rd)
	return rd.UserID.String()
}
