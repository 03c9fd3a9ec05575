package qdrant

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
)

const (
	DefaultCollection = "book_chunks"
	DefaultDistance   = "Cosine"
	DefaultTimeout    = 10 * time.Second
)

type Config struct {
	URL        string
	APIKey     string
	Collection string
	VectorDim  int
	Distance   string
	Timeout    time.Duration
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorMissingVectorDim  ConfigErrorCode = "missing_vector_dim"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
	ConfigErrorInvalidDistance   ConfigErrorCode = "invalid_distance"
	ConfigErrorInvalidTimeout    ConfigErrorCode = "invalid_timeout"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	switch e.Code {
	case ConfigErrorMissingURL:
		return "QDRANT_URL is required"
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("invalid QDRANT_URL=%q; expected absolute URL like http://qdrant:6333", e.Value)
	case ConfigErrorMissingCollection:
		return "QDRANT_COLLECTION is required"
	case ConfigErrorMissingVectorDim:
		return "QDRANT_VECTOR_DIM is required and must be a positive integer"
	case ConfigErrorInvalidVectorDim:
		return fmt.Sprintf("invalid QDRANT_VECTOR_DIM=%q; expected positive integer", e.Value)
	case ConfigErrorInvalidDistance:
		return fmt.Sprintf("invalid QDRANT_DISTANCE=%q; expected Cosine, Dot, Euclid or Manhattan", e.Value)
	case ConfigErrorInvalidTimeout:
		return fmt.Sprintf("invalid QDRANT_TIMEOUT_SECONDS=%q; expected positive integer", e.Value)
	default:
		return "invalid qdrant config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is lets callers test any qdrant config problem against apperr.ErrConfiguration.
func (e *ConfigError) Is(target error) bool { return target == apperr.ErrConfiguration }

func ResolveConfigFromEnv() (Config, error) {
	rawDim := strings.TrimSpace(os.Getenv("QDRANT_VECTOR_DIM"))
	dim := 0
	if rawDim != "" {
		parsed, err := strconv.Atoi(rawDim)
		if err != nil {
			return Config{}, &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: rawDim, Cause: err}
		}
		dim = parsed
	}

	timeout := DefaultTimeout
	if rawTimeout := strings.TrimSpace(os.Getenv("QDRANT_TIMEOUT_SECONDS")); rawTimeout != "" {
		secs, err := strconv.Atoi(rawTimeout)
		if err != nil || secs <= 0 {
			return Config{}, &ConfigError{Code: ConfigErrorInvalidTimeout, Value: rawTimeout, Cause: err}
		}
		timeout = time.Duration(secs) * time.Second
	}

	cfg := Config{
		URL:        strings.TrimSpace(os.Getenv("QDRANT_URL")),
		APIKey:     strings.TrimSpace(os.Getenv("QDRANT_API_KEY")),
		Collection: strings.TrimSpace(os.Getenv("QDRANT_COLLECTION")),
		VectorDim:  dim,
		Distance:   strings.TrimSpace(os.Getenv("QDRANT_DISTANCE")),
		Timeout:    timeout,
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Distance == "" {
		cfg.Distance = DefaultDistance
	}

	if err := ValidateConfig(cfg, rawDim != ""); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig validates a Qdrant config.
// Pass hasRawVectorDim=false when QDRANT_VECTOR_DIM is unset so missing vs invalid can be reported separately.
func ValidateConfig(cfg Config, hasRawVectorDim bool) error {
	if cfg.URL == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: cfg.URL, Cause: err}
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	if !hasRawVectorDim && cfg.VectorDim == 0 {
		return &ConfigError{Code: ConfigErrorMissingVectorDim}
	}
	if cfg.VectorDim <= 0 {
		return &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: strconv.Itoa(cfg.VectorDim)}
	}
	if cfg.Distance != "" && canonicalDistance(cfg.Distance) == "" {
		return &ConfigError{Code: ConfigErrorInvalidDistance, Value: cfg.Distance}
	}
	return nil
}

func canonicalDistance(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "", "cosine":
		return "Cosine"
	case "dot":
		return "Dot"
	case "euclid":
		return "Euclid"
	case "manhattan":
		return "Manhattan"
	default:
		return ""
	}
}
