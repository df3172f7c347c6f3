package app

import (
	"errors"
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/mailsage/mailsage-backend/internal/platform/logger"
	"github.com/mailsage/mailsage-backend/internal/platform/openai"
	"github.com/mailsage/mailsage-backend/internal/platform/rediscache"
	"github.com/mailsage/mailsage-backend/internal/temporalx"
)

type Clients struct {
	OpenAI   openai.Client
	Cache    *rediscache.Cache
	Temporal temporalsdkclient.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	ai, err := openai.NewClient(log)
	if err != nil {
		if errors.Is(err, openai.ErrUnavailable) {
			return Clients{}, fmt.Errorf("init openai client: OPENAI_API_KEY is required (any OpenAI-compatible endpoint via OPENAI_BASE_URL): %w", err)
		}
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	// Cache is nil when REDIS_ADDR is unset; the index runs uncached.
	cache, err := rediscache.New(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis cache: %w", err)
	}

	// Temporal is nil when TEMPORAL_ADDRESS is unset; executions run locally.
	tc, err := temporalx.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init temporal client: %w", err)
	}

	return Clients{
		OpenAI:   ai,
		Cache:    cache,
		Temporal: tc,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Temporal != nil {
		c.Temporal.Close()
	}
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
}
