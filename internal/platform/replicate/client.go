package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/replicate/replicate-go"

	"github.com/yungbote/coursify-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// DefaultBaseURL includes the API version; prediction paths are resolved
// beneath it.
const DefaultBaseURL = "https://api.replicate.com/v1"

type Client interface {
	// Run creates a prediction for model ("owner/name") and blocks until it
	// reaches a terminal state or the configured timeout elapses.
	Run(ctx context.Context, model string, input map[string]any) (*Prediction, error)
}

type Config struct {
	APIToken     string        `yaml:"api_token"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, fmt.Errorf("missing REPLICATE_API_TOKEN")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	api, err := sdk.NewClient(sdk.WithToken(cfg.APIToken), sdk.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("replicate client: %w", err)
	}
	return &client{
		log: log.With("client", "ReplicateClient"),
		cfg: cfg,
		api: api,
	}, nil
}

type client struct {
	log *logger.Logger
	cfg Config
	api *sdk.Client
}

type Prediction struct {
	ID     string          `json:"id"`
	Model  string          `json:"model"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
}

// OutputURL extracts the first URL from Output. Models answer with a bare
// string, a list of strings, or an object carrying a url/video field.
func (p *Prediction) OutputURL() (string, bool) {
	if p == nil || len(p.Output) == 0 {
		return "", false
	}
	var v any
	if err := json.Unmarshal(p.Output, &v); err != nil {
		return "", false
	}
	return firstURL(v)
}

func firstURL(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case []any:
		for _, item := range t {
			if u, ok := firstURL(item); ok {
				return u, true
			}
		}
	case map[string]any:
		for _, key := range []string{"url", "video", "output"} {
			if inner, ok := t[key]; ok {
				if u, ok := firstURL(inner); ok {
					return u, true
				}
			}
		}
	}
	return "", false
}

type PredictionError struct {
	ID     string
	Status string
	Detail string
}

func (e *PredictionError) Error() string {
	msg := fmt.Sprintf("replicate prediction %s %s", e.ID, e.Status)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("replicate http %d: %s", e.StatusCode, msg)
}

func (c *client) Run(ctx context.Context, model string, input map[string]any) (*Prediction, error) {
	model = strings.Trim(strings.TrimSpace(model), "/")
	owner, name, ok := strings.Cut(model, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("replicate: model must be owner/name, got %q", model)
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), c.cfg.Timeout)
	defer cancel()

	created, err := c.api.CreatePredictionWithModel(ctx, owner, name, sdk.PredictionInput(input), nil, false)
	if err != nil {
		return nil, c.apiError(ctx, model, err)
	}
	c.log.Debug("replicate prediction created", "model", model, "prediction_id", created.ID, "status", created.Status)

	if !isTerminal(string(created.Status)) {
		if created.ID == "" {
			return nil, fmt.Errorf("replicate: prediction without id")
		}
		if err := c.api.Wait(ctx, created, sdk.WithPollingInterval(c.cfg.PollInterval)); err != nil {
			return nil, c.apiError(ctx, "prediction "+created.ID, err)
		}
	}

	pred, err := fromSDK(created)
	if err != nil {
		return nil, err
	}
	if pred.Status != StatusSucceeded {
		return pred, &PredictionError{ID: pred.ID, Status: pred.Status, Detail: errorDetail(pred.Error)}
	}
	return pred, nil
}

// apiError keeps deadline errors matchable with errors.Is and surfaces
// non-2xx answers as *HTTPError.
func (c *client) apiError(ctx context.Context, what string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("replicate %s: %w", what, ctxErr)
	}
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		return &HTTPError{StatusCode: apiErr.Status, Body: apiErr.Detail}
	}
	return fmt.Errorf("replicate %s: %w", what, err)
}

func fromSDK(p *sdk.Prediction) (*Prediction, error) {
	out := &Prediction{
		ID:     p.ID,
		Model:  p.Model,
		Status: string(p.Status),
		Error:  p.Error,
	}
	if p.Output != nil {
		raw, err := json.Marshal(p.Output)
		if err != nil {
			return nil, fmt.Errorf("replicate: encode output: %w", err)
		}
		out.Output = raw
	}
	return out, nil
}

func isTerminal(status string) bool {
	switch status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

func errorDetail(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
