package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

// Chain tries providers in order and returns the first success.
type Chain struct {
	log       *logger.Logger
	providers []Provider
}

// NewChain drops nil entries. It returns nil when nothing is left so
// callers can treat "no provider" and "no chain" the same way.
func NewChain(log *logger.Logger, providers ...Provider) *Chain {
	var ps []Provider
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	if len(ps) == 0 {
		return nil
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Chain{log: log.With("component", "LLMChain"), providers: ps}
}

func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.providers)
}

func (c *Chain) ModelID() string {
	if c == nil || len(c.providers) == 0 {
		return ""
	}
	ids := make([]string, len(c.providers))
	for i, p := range c.providers {
		ids[i] = p.ModelID()
	}
	return strings.Join(ids, ",")
}

func (c *Chain) Generate(ctx context.Context, req Request) (*Response, error) {
	if c == nil || len(c.providers) == 0 {
		return nil, ErrNoProvider
	}
	var errs []error
	for _, p := range c.providers {
		resp, err := p.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.log.Warn("llm provider failed", "model", p.ModelID(), "error", err)
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
