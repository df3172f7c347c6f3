package app

import (
	"time"

	"github.com/mailsage/mailsage-backend/internal/platform/envutil"
	"github.com/mailsage/mailsage-backend/internal/platform/logger"
)

type Config struct {
	Port           string
	IndexNamespace string
	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int
	EmbedWorkers   int
	ThreatTopN     int
	StepTimeout    time.Duration
	ThreatRules    string
	VectorProvider string
	MemvecDim      int
	MetricsAddr    string
	RedisAddr      string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:           envutil.GetEnv("PORT", "8080", log),
		IndexNamespace: envutil.GetEnv("INDEX_NAMESPACE", "emails", log),
		ChunkSize:      envutil.GetEnvAsInt("CHUNK_SIZE", 500, log),
		ChunkOverlap:   envutil.GetEnvAsInt("CHUNK_OVERLAP", 50, log),
		EmbedBatchSize: envutil.GetEnvAsInt("EMBED_BATCH_SIZE", 32, log),
		EmbedWorkers:   envutil.GetEnvAsInt("EMBED_WORKERS", 4, log),
		ThreatTopN:     envutil.GetEnvAsInt("THREAT_TOP_N", 5, log),
		StepTimeout:    envutil.GetEnvAsDuration("STEP_TIMEOUT", 30*time.Second, log),
		ThreatRules:    envutil.GetEnv("THREAT_RULES_FILE", "", log),
		VectorProvider: envutil.GetEnv("VECTOR_PROVIDER", "memory", log),
		MemvecDim:      envutil.GetEnvAsInt("MEMVEC_DIM", 1536, log),
		MetricsAddr:    envutil.GetEnv("METRICS_ADDR", ":9090", log),
		RedisAddr:      envutil.GetEnv("REDIS_ADDR", "", log),
	}
}
