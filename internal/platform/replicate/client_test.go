package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(logger.Nop(), Config{
		APIToken:     "r8_test",
		BaseURL:      srv.URL + "/",
		Timeout:      timeout,
		PollInterval: time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestRunPollsUntilSucceeded(t *testing.T) {
	var polls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer r8_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/models/luma/ray/predictions":
			var body map[string]map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "16:9", body["input"]["aspect_ratio"])
			_, _ = w.Write([]byte(`{"id":"p1","status":"starting"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/predictions/p1":
			if atomic.AddInt32(&polls, 1) < 2 {
				_, _ = w.Write([]byte(`{"id":"p1","status":"processing"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"p1","status":"succeeded","output":["https://cdn.example.com/v.mp4"]}`))
		default:
			http.NotFound(w, r)
		}
	}, 5*time.Second)

	pred, err := c.Run(context.Background(), "luma/ray", map[string]any{"prompt": "x", "aspect_ratio": "16:9"})
	require.NoError(t, err)
	u, ok := pred.OutputURL()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/v.mp4", u)
	assert.EqualValues(t, 2, atomic.LoadInt32(&polls))
}

func TestRunReturnsImmediatelyWhenWaitCompletes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"p2","status":"succeeded","output":"https://cdn.example.com/veo.mp4"}`))
	}, 5*time.Second)

	pred, err := c.Run(context.Background(), "google-deepmind/veo-2", map[string]any{"prompt": "x", "duration": 5})
	require.NoError(t, err)
	u, _ := pred.OutputURL()
	assert.Equal(t, "https://cdn.example.com/veo.mp4", u)
}

func TestRunFailedPrediction(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p3","status":"failed","error":"NSFW content detected"}`))
	}, 5*time.Second)

	_, err := c.Run(context.Background(), "luma/ray", nil)
	var pe *PredictionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, StatusFailed, pe.Status)
	assert.Contains(t, err.Error(), "NSFW")
}

func TestRunHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"title":"Unauthenticated","detail":"Invalid token","status":401}`))
	}, 5*time.Second)

	_, err := c.Run(context.Background(), "luma/ray", nil)
	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusUnauthorized, he.StatusCode)
	assert.Contains(t, err.Error(), "Invalid token")
}

func TestRunTimesOutWhilePolling(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"p4","status":"processing"}`))
	}, 50*time.Millisecond)

	_, err := c.Run(context.Background(), "luma/ray", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunRejectsBadModelName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected")
	}, time.Second)
	for _, model := range []string{"ray", "a/b/c", "/ray"} {
		_, err := c.Run(context.Background(), model, nil)
		assert.Error(t, err, model)
	}
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(logger.Nop(), Config{})
	assert.Error(t, err)
}

func TestRunSendsModelInput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/google-deepmind/veo-2/predictions", r.URL.Path)
		var body map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a lesson", body["input"]["prompt"])
		assert.EqualValues(t, 5, body["input"]["duration"])
		_, _ = w.Write([]byte(`{"id":"p5","model":"google-deepmind/veo-2","status":"succeeded","output":{"video":"https://cdn.example.com/p5.mp4"}}`))
	}, 5*time.Second)

	pred, err := c.Run(context.Background(), " /google-deepmind/veo-2/ ", map[string]any{"prompt": "a lesson", "duration": 5})
	require.NoError(t, err)
	assert.Equal(t, "p5", pred.ID)
	assert.Equal(t, StatusSucceeded, pred.Status)
	u, ok := pred.OutputURL()
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.com/p5.mp4", u)
}

func TestOutputURLShapes(t *testing.T) {
	cases := map[string]string{
		`"https://a/x.mp4"`:                 "https://a/x.mp4",
		`["", "https://a/y.mp4"]`:           "https://a/y.mp4",
		`{"video":"https://a/z.mp4"}`:       "https://a/z.mp4",
		`{"output":[{"url":"https://a/w"}]}`: "https://a/w",
	}
	for raw, want := range cases {
		p := &Prediction{Output: json.RawMessage(raw)}
		got, ok := p.OutputURL()
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}
	_, ok := (&Prediction{Output: json.RawMessage(`null`)}).OutputURL()
	assert.False(t, ok)
}
