// Package config handles environment settings and the global config file.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/mhalloran/voicearch/internal/apierr"
)

// Default values for tunable settings.
const (
	DefaultNamespace      = "voice-archives"
	DefaultTopK           = 10
	DefaultThreshold      = 0.5
	DefaultMaxGap         = 1.0
	DefaultMaxDuration    = 20.0
	DefaultMMRLambda      = 0.6
	DefaultPoolMultiplier = 4
	DefaultWorkers        = 5
	DefaultBatchSize      = 100
)

// Settings is the resolved runtime configuration. API keys come from the
// environment (a .env file is loaded by the CLI) with the global config
// file as fallback; tunables come from VA_* variables with defaults.
type Settings struct {
	DeepgramAPIKey    string
	CohereAPIKey      string
	PineconeAPIKey    string
	PineconeIndexHost string

	Namespace      string
	RedactPII      bool
	TopK           int
	Threshold      float64
	MaxGap         float64
	MaxDuration    float64
	MMRLambda      float64
	PoolMultiplier int
	Workers        int
	BatchSize      int
}

// FromEnv builds Settings from the process environment, falling back to
// the global config file for API credentials.
func FromEnv() (*Settings, error) {
	global, err := LoadGlobalConfig()
	if err != nil {
		return nil, err
	}

	s := &Settings{
		DeepgramAPIKey:    firstNonEmpty(os.Getenv("DEEPGRAM_API_KEY"), global.DeepgramAPIKey),
		CohereAPIKey:      firstNonEmpty(os.Getenv("COHERE_API_KEY"), global.CohereAPIKey),
		PineconeAPIKey:    firstNonEmpty(os.Getenv("PINECONE_API_KEY"), global.PineconeAPIKey),
		PineconeIndexHost: firstNonEmpty(os.Getenv("PINECONE_INDEX_HOST"), global.PineconeIndexHost),

		Namespace:      firstNonEmpty(os.Getenv("VA_NAMESPACE"), DefaultNamespace),
		RedactPII:      envBool("VA_REDACT_PII", true),
		TopK:           envInt("VA_TOP_K", DefaultTopK),
		Threshold:      envFloat("VA_THRESHOLD", DefaultThreshold),
		MaxGap:         envFloat("VA_MAX_GAP", DefaultMaxGap),
		MaxDuration:    envFloat("VA_MAX_DURATION", DefaultMaxDuration),
		MMRLambda:      envFloat("VA_MMR_LAMBDA", DefaultMMRLambda),
		PoolMultiplier: envInt("VA_POOL_MULTIPLIER", DefaultPoolMultiplier),
		Workers:        envInt("VA_WORKERS", DefaultWorkers),
		BatchSize:      envInt("VA_BATCH_SIZE", DefaultBatchSize),
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the tunables for out-of-range values. Credential
// presence is checked by the commands that need each service.
func (s *Settings) Validate() error {
	if s.TopK <= 0 {
		return apierr.Validation("VA_TOP_K", "must be positive, got %d", s.TopK)
	}
	if s.Threshold < -1 || s.Threshold > 1 {
		return apierr.Validation("VA_THRESHOLD", "must be in [-1, 1], got %g", s.Threshold)
	}
	if s.MaxGap <= 0 {
		return apierr.Validation("VA_MAX_GAP", "must be positive, got %g", s.MaxGap)
	}
	if s.MaxDuration <= 0 {
		return apierr.Validation("VA_MAX_DURATION", "must be positive, got %g", s.MaxDuration)
	}
	if s.MMRLambda < 0 || s.MMRLambda > 1 {
		return apierr.Validation("VA_MMR_LAMBDA", "must be in [0, 1], got %g", s.MMRLambda)
	}
	if s.PoolMultiplier < 1 {
		return apierr.Validation("VA_POOL_MULTIPLIER", "must be at least 1, got %d", s.PoolMultiplier)
	}
	if s.Workers < 1 {
		return apierr.Validation("VA_WORKERS", "must be at least 1, got %d", s.Workers)
	}
	if s.BatchSize < 1 {
		return apierr.Validation("VA_BATCH_SIZE", "must be at least 1, got %d", s.BatchSize)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func envBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
