package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/docqa-backend/internal/chunking"
	"github.com/yungbote/docqa-backend/internal/data/db"
	"github.com/yungbote/docqa-backend/internal/observability"
	apperr "github.com/yungbote/docqa-backend/internal/pkg/errors"
	"github.com/yungbote/docqa-backend/internal/pkg/pointers"
	"github.com/yungbote/docqa-backend/internal/platform/envutil"
	"github.com/yungbote/docqa-backend/internal/platform/gcp"
	"github.com/yungbote/docqa-backend/internal/platform/openai"
	"github.com/yungbote/docqa-backend/internal/platform/qdrant"
	"github.com/yungbote/docqa-backend/internal/platform/redis"
)

const ConfigPathEnv = "DOCQA_CONFIG"

type ProviderConfig struct {
	Provider       string   `yaml:"provider"`
	BaseURL        string   `yaml:"base_url"`
	APIKey         string   `yaml:"api_key"`
	Model          string   `yaml:"model"`
	Dimensions     int      `yaml:"dimensions"`
	Temperature    *float64 `yaml:"temperature"`
	MaxTokens      int      `yaml:"max_tokens"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type QdrantConfig struct {
	URL            string `yaml:"url"`
	APIKey         string `yaml:"api_key"`
	Collection     string `yaml:"collection"`
	VectorDim      int    `yaml:"vector_dim"`
	Distance       string `yaml:"distance"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
}

type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLSeconds int  `yaml:"ttl_seconds"`
	// MemorySize bounds the in-process fallback used without Redis.
	MemorySize int `yaml:"memory_size"`
}

type RateLimitConfig struct {
	Enabled       bool `yaml:"enabled"`
	Requests      int  `yaml:"requests"`
	WindowSeconds int  `yaml:"window_seconds"`
}

type IngestConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	DocsPath      string `yaml:"docs_path"`
	Method        string `yaml:"method"`
	MaxTokens     int    `yaml:"max_tokens"`
	OverlapTokens int    `yaml:"overlap_tokens"`
	BatchSize     int    `yaml:"batch_size"`
	Concurrency   int    `yaml:"concurrency"`
	StorageMode   string `yaml:"storage_mode"`
	EmulatorHost  string `yaml:"storage_emulator_host"`
}

type OtelConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Headers     string  `yaml:"headers"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

type Config struct {
	HTTPAddr              string   `yaml:"http_addr"`
	LogMode               string   `yaml:"log_mode"`
	Environment           string   `yaml:"environment"`
	Version               string   `yaml:"-"`
	CORSOrigins           []string `yaml:"cors_origins"`
	ServiceTimeoutSeconds int      `yaml:"service_timeout_seconds"`
	MetricsEnabled        bool     `yaml:"metrics_enabled"`

	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Embedding ProviderConfig  `yaml:"embedding"`
	LLM       ProviderConfig  `yaml:"llm"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     redis.Config    `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Otel      OtelConfig      `yaml:"otel"`
	// ChapterWeights boosts retrieval results from the named chapters.
	ChapterWeights map[string]float64 `yaml:"chapter_weights"`
}

func defaultConfig() Config {
	chunk := chunking.DefaultOptions()
	return Config{
		HTTPAddr:              ":8000",
		LogMode:               "development",
		ServiceTimeoutSeconds: 30,
		MetricsEnabled:        true,
		Qdrant: QdrantConfig{
			Collection:     qdrant.DefaultCollection,
			VectorDim:      1024,
			Distance:       qdrant.DefaultDistance,
			TimeoutSeconds: int(qdrant.DefaultTimeout / time.Second),
		},
		Embedding: ProviderConfig{
			Provider: "embedding",
			BaseURL:  openai.DefaultBaseURL,
			Model:    openai.DefaultEmbedModel,
		},
		LLM: ProviderConfig{
			Provider:    "openrouter",
			BaseURL:     "https://openrouter.ai/api",
			Model:       openai.DefaultChatModel,
			Temperature: pointers.Float64(openai.DefaultTemperature),
			MaxTokens:   openai.DefaultMaxTokens,
		},
		Database: DatabaseConfig{SQLitePath: "data/docqa.db"},
		Cache:    CacheConfig{Enabled: true, TTLSeconds: 3600, MemorySize: 4096},
		RateLimit: RateLimitConfig{
			Enabled:       true,
			Requests:      100,
			WindowSeconds: 60,
		},
		Ingest: IngestConfig{
			DocsPath:      "docs",
			Method:        chunk.Method,
			MaxTokens:     chunk.MaxTokens,
			OverlapTokens: chunk.OverlapTokens,
			BatchSize:     96,
			Concurrency:   4,
		},
		Otel: OtelConfig{SampleRatio: 0.1},
	}
}

// LoadConfig layers built-in defaults, the optional YAML file at path (or
// $DOCQA_CONFIG) and the process environment, later sources winning. A .env
// file, if any, is expected to be loaded into the environment beforehand.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if strings.TrimSpace(path) == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path = strings.TrimSpace(path); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, apperr.Misconfigured("config", "path", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, apperr.Misconfigured("config", "yaml", err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = envutil.String("HTTP_ADDR", cfg.HTTPAddr)
	if port := envutil.String("PORT", ""); port != "" && !envutil.IsSet("HTTP_ADDR") {
		cfg.HTTPAddr = ":" + port
	}
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Environment = envutil.String("ENVIRONMENT", cfg.Environment)
	if origins := envutil.String("CORS_ORIGINS", ""); origins != "" {
		cfg.CORSOrigins = splitList(origins)
	}
	cfg.ServiceTimeoutSeconds = envutil.Int("SERVICE_TIMEOUT_SECONDS", cfg.ServiceTimeoutSeconds)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)

	q := &cfg.Qdrant
	q.URL = envutil.String("QDRANT_URL", q.URL)
	q.APIKey = envutil.String("QDRANT_API_KEY", q.APIKey)
	q.Collection = envutil.String("QDRANT_COLLECTION", q.Collection)
	q.VectorDim = envutil.Int("QDRANT_VECTOR_DIM", q.VectorDim)
	q.Distance = envutil.String("QDRANT_DISTANCE", q.Distance)
	q.TimeoutSeconds = envutil.Int("QDRANT_TIMEOUT_SECONDS", q.TimeoutSeconds)

	e := &cfg.Embedding
	e.BaseURL = envutil.String("EMBED_BASE_URL", e.BaseURL)
	e.APIKey = envutil.String("EMBED_API_KEY", e.APIKey)
	e.Model = envutil.String("EMBED_MODEL", e.Model)
	e.Dimensions = envutil.Int("EMBED_DIMENSIONS", e.Dimensions)

	l := &cfg.LLM
	l.BaseURL = envutil.String("LLM_BASE_URL", l.BaseURL)
	l.APIKey = envutil.String("LLM_API_KEY", envutil.String("OPENROUTER_API_KEY", l.APIKey))
	l.Model = envutil.String("LLM_MODEL", l.Model)
	l.MaxTokens = envutil.Int("LLM_MAX_TOKENS", l.MaxTokens)
	if envutil.IsSet("LLM_TEMPERATURE") {
		l.Temperature = pointers.Float64(envutil.Float("LLM_TEMPERATURE", openai.DefaultTemperature))
	}

	d := &cfg.Database
	d.Driver = envutil.String("DATABASE_DRIVER", d.Driver)
	d.URL = envutil.String("DATABASE_URL", d.URL)
	d.SQLitePath = envutil.String("SQLITE_PATH", d.SQLitePath)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Cache.Enabled = envutil.Bool("CACHE_ENABLED", cfg.Cache.Enabled)
	cfg.Cache.TTLSeconds = envutil.Int("CACHE_TTL_SECONDS", cfg.Cache.TTLSeconds)

	cfg.RateLimit.Enabled = envutil.Bool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.Requests = envutil.Int("RATE_LIMIT_REQUESTS", cfg.RateLimit.Requests)
	cfg.RateLimit.WindowSeconds = envutil.Int("RATE_LIMIT_WINDOW_SECONDS", envutil.Int("RATE_LIMIT_WINDOW", cfg.RateLimit.WindowSeconds))

	in := &cfg.Ingest
	in.JWTSecret = envutil.String("INGEST_JWT_SECRET", in.JWTSecret)
	in.DocsPath = envutil.String("DOCS_PATH", in.DocsPath)
	in.Method = envutil.String("CHUNK_METHOD", in.Method)
	in.MaxTokens = envutil.Int("CHUNK_MAX_TOKENS", in.MaxTokens)
	in.OverlapTokens = envutil.Int("CHUNK_OVERLAP_TOKENS", in.OverlapTokens)
	in.BatchSize = envutil.Int("EMBED_BATCH_SIZE", in.BatchSize)
	in.Concurrency = envutil.Int("EMBED_CONCURRENCY", in.Concurrency)
	in.StorageMode = envutil.String("OBJECT_STORAGE_MODE", in.StorageMode)
	in.EmulatorHost = envutil.String("STORAGE_EMULATOR_HOST", in.EmulatorHost)

	o := &cfg.Otel
	o.Enabled = envutil.Bool("OTEL_ENABLED", o.Enabled)
	o.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", o.Endpoint)
	o.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", o.Headers)
	o.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", o.Insecure)
	o.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", o.SampleRatio)
}

func (c Config) validate() error {
	if strings.TrimSpace(c.HTTPAddr) == "" {
		return apperr.Misconfigured("config", "http_addr", errors.New("cannot be empty"))
	}
	if c.ServiceTimeoutSeconds <= 0 {
		return apperr.Misconfigured("config", "service_timeout_seconds", fmt.Errorf("must be positive, got %d", c.ServiceTimeoutSeconds))
	}
	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0) {
		return apperr.Misconfigured("config", "rate_limit", errors.New("requests and window must be positive"))
	}
	if err := c.ChunkOptions().Validate(); err != nil {
		return apperr.Misconfigured("config", "chunking", err)
	}
	return nil
}

func (c Config) ServiceTimeout() time.Duration {
	return time.Duration(c.ServiceTimeoutSeconds) * time.Second
}

func (c Config) ChunkOptions() chunking.Options {
	return chunking.Options{
		Method:        c.Ingest.Method,
		MaxTokens:     c.Ingest.MaxTokens,
		OverlapTokens: c.Ingest.OverlapTokens,
	}
}

func (c Config) QdrantConfig() (qdrant.Config, error) {
	q := qdrant.Config{
		URL:        strings.TrimSpace(c.Qdrant.URL),
		APIKey:     c.Qdrant.APIKey,
		Collection: c.Qdrant.Collection,
		VectorDim:  c.Qdrant.VectorDim,
		Distance:   c.Qdrant.Distance,
		Timeout:    time.Duration(c.Qdrant.TimeoutSeconds) * time.Second,
	}
	if q.Timeout <= 0 {
		q.Timeout = qdrant.DefaultTimeout
	}
	return q, qdrant.ValidateConfig(q, true)
}

func (c Config) EmbeddingConfig() openai.Config {
	return c.Embedding.openaiConfig(c.ServiceTimeout())
}

func (c Config) LLMConfig() openai.Config {
	cfg := c.LLM.openaiConfig(c.ServiceTimeout())
	cfg.Referer = "https://github.com/yungbote/docqa-backend"
	cfg.Title = "docqa"
	return cfg
}

func (p ProviderConfig) openaiConfig(fallback time.Duration) openai.Config {
	timeout := time.Duration(p.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = fallback
	}
	return openai.Config{
		Provider:    p.Provider,
		BaseURL:     p.BaseURL,
		APIKey:      p.APIKey,
		Model:       p.Model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Dimensions:  p.Dimensions,
		Timeout:     timeout,
	}
}

func (c Config) DBConfig() db.Config {
	return db.Config{Driver: c.Database.Driver, DSN: c.Database.URL, SQLitePath: c.Database.SQLitePath}
}

func (c Config) ObjectStorageConfig() (gcp.ObjectStorageConfig, error) {
	return gcp.ResolveObjectStorageConfig(c.Ingest.StorageMode, c.Ingest.EmulatorHost)
}

func (c Config) OtelConfig() observability.OtelConfig {
	return observability.OtelConfig{
		Enabled:     c.Otel.Enabled,
		ServiceName: observability.DefaultServiceName,
		Environment: c.Environment,
		Version:     c.Version,
		Endpoint:    c.Otel.Endpoint,
		Headers:     observability.ParseHeaders(c.Otel.Headers),
		Insecure:    c.Otel.Insecure,
		SampleRatio: c.Otel.SampleRatio,
	}
}

// Services reports which external collaborators have enough configuration
// to be attempted.
func (c Config) Services() map[string]bool {
	_, qerr := c.QdrantConfig()
	return map[string]bool{
		"qdrant":    qerr == nil,
		"embedding": strings.TrimSpace(c.Embedding.APIKey) != "",
		"llm":       strings.TrimSpace(c.LLM.APIKey) != "",
		"database":  c.DBConfig().Configured(),
		"redis":     strings.TrimSpace(c.Redis.Addr) != "",
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
