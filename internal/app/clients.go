package app

import (
	"context"
	"fmt"

	"github.com/yungbote/coursify-backend/internal/platform/llm"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
	"github.com/yungbote/coursify-backend/internal/platform/replicate"
	"github.com/yungbote/coursify-backend/internal/realtime/bus"
)

// Clients holds the outbound integrations. LLM and Video stay nil when no
// credentials are configured.
type Clients struct {
	LLM    llm.Provider
	Video  replicate.Client
	Events bus.Bus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	var out Clients

	// LLM
	chain, err := llm.NewFromConfig(ctx, cfg.LLM, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm providers: %w", err)
	}
	if chain != nil {
		out.LLM = chain
	}

	// Replicate
	if cfg.Video.Replicate.APIToken != "" {
		video, err := replicate.New(log, cfg.Video.Replicate)
		if err != nil {
			return Clients{}, fmt.Errorf("init replicate client: %w", err)
		}
		out.Video = video
	} else {
		log.Warn("REPLICATE_API_TOKEN not set; video generation is unavailable")
	}

	// Lesson status events
	events, err := bus.New(log, cfg.Redis.Addr, cfg.Redis.Channel)
	if err != nil {
		return Clients{}, fmt.Errorf("init lesson status bus: %w", err)
	}
	out.Events = events

	return out, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Events != nil {
		_ = c.Events.Close()
	}
}
