package app

import (
	"fmt"
	"strings"

	"github.com/mailsage/mailsage-backend/internal/platform/logger"
	"github.com/mailsage/mailsage-backend/internal/platform/memvec"
	"github.com/mailsage/mailsage-backend/internal/platform/qdrant"
	"github.com/mailsage/mailsage-backend/internal/platform/vecstore"
)

var (
	newQdrantVectorStore = qdrant.NewVectorStore
	newMemvecVectorStore = memvec.NewVectorStore
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider    VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorQdrantConfigFailed VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorInvalidDimension   VectorProviderBootstrapErrorCode = "invalid_dimension"
	VectorProviderBootstrapErrorProviderInitFailed VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf(
		"vector provider bootstrap failed (code=%s provider=%q): %v",
		e.Code,
		e.Provider,
		e.Cause,
	)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStore picks the vector backend from config: "qdrant" for the
// remote store, "memory" for the in-process store.
func resolveVectorStore(log *logger.Logger, cfg Config) (vecstore.VectorStore, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.VectorProvider))
	switch provider {
	case "qdrant":
		qcfg, err := qdrant.ResolveConfigFromEnv()
		if err != nil {
			return nil, &VectorProviderBootstrapError{
				Code:     VectorProviderBootstrapErrorQdrantConfigFailed,
				Provider: provider,
				Cause:    err,
			}
		}
		store, err := newQdrantVectorStore(log, qcfg)
		if err != nil {
			return nil, &VectorProviderBootstrapError{
				Code:     VectorProviderBootstrapErrorProviderInitFailed,
				Provider: provider,
				Cause:    err,
			}
		}
		log.Info("Vector provider ready", "provider", "qdrant", "collection", qcfg.Collection)
		return store, nil
	case "memory", "":
		if cfg.MemvecDim <= 0 {
			return nil, &VectorProviderBootstrapError{
				Code:     VectorProviderBootstrapErrorInvalidDimension,
				Provider: "memory",
				Cause:    fmt.Errorf("MEMVEC_DIM must be positive, got %d", cfg.MemvecDim),
			}
		}
		store, err := newMemvecVectorStore(log, cfg.MemvecDim)
		if err != nil {
			return nil, &VectorProviderBootstrapError{
				Code:     VectorProviderBootstrapErrorProviderInitFailed,
				Provider: "memory",
				Cause:    err,
			}
		}
		log.Info("Vector provider ready", "provider", "memory", "dim", cfg.MemvecDim)
		return store, nil
	default:
		return nil, &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("VECTOR_PROVIDER must be \"qdrant\" or \"memory\""),
		}
	}
}
