package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

const (
	defaultDocumentsDir = "documents"
	defaultLogPath      = "query_logs/query_log.csv"
	defaultProvider     = "cohere"
	defaultModel        = "command-r-plus"
	defaultTemperature  = float32(0.4)
	defaultTimeout      = 120
	defaultMaxUploadMB  = 50

	defaultEmbedProvider = "cohere"
	defaultEmbedModel    = "embed-english-v3.0"
)

type Config struct {
	Port           int              `json:"port"`
	DocumentsDir   string           `json:"documents_dir"`
	LogPath        string           `json:"log_path"`
	LogConfig      logger.LogConfig `json:"log_config"`
	FileStore      FileStoreConfig  `json:"file_store"`
	QueryLog       QueryLogConfig   `json:"query_log"`
	AI             AIConfig         `json:"ai"`
	TextCache      CacheConfig      `json:"text_cache"`
	AskRateLimitMs int              `json:"ask_rate_limit_ms"`
	CORSAllowlist  []string         `json:"cors_allowlist"`
	MaxUploadMB    int              `json:"max_upload_mb"`
	WarmupCron     string           `json:"warmup_cron"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type QueryLogConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIConfig struct {
	Provider    string           `json:"provider"`
	Model       string           `json:"model"`
	Temperature *float32         `json:"temperature"`
	Timeout     int              `json:"timeout"`
	Data        interface{}      `json:"data"`
	Fallbacks   []ProviderConfig `json:"fallbacks"`
	Embed       EmbedConfig      `json:"embed"`
	EmbedCache  CacheConfig      `json:"embed_cache"`
}

type ProviderConfig struct {
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type EmbedConfig struct {
	Provider    string      `json:"provider"`
	Model       string      `json:"model"`
	Concurrency int         `json:"concurrency"`
	Data        interface{} `json:"data"`
}

type CacheConfig struct {
	Size int `json:"size"`
	TTL  int `json:"ttl"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) Temperature() float32 {
	if cfg.AI.Temperature == nil {
		return defaultTemperature
	}
	return *cfg.AI.Temperature
}

func (cfg *Config) normalize() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.DocumentsDir == "" {
		cfg.DocumentsDir = defaultDocumentsDir
	}
	if cfg.LogPath == "" {
		cfg.LogPath = defaultLogPath
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = defaultMaxUploadMB
	}

	cfg.FileStore.Type = strings.ToLower(strings.TrimSpace(cfg.FileStore.Type))
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch cfg.FileStore.Type {
	case "local":
		if cfg.FileStore.Data == nil {
			cfg.FileStore.Data = map[string]interface{}{"dir": cfg.DocumentsDir}
		}
	case "s3":
		if cfg.FileStore.Data == nil {
			return fmt.Errorf("file_store.data is required for s3 store")
		}
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}

	cfg.QueryLog.Type = strings.ToLower(strings.TrimSpace(cfg.QueryLog.Type))
	if cfg.QueryLog.Type == "" {
		cfg.QueryLog.Type = "file"
	}
	switch cfg.QueryLog.Type {
	case "file":
		if cfg.QueryLog.Data == nil {
			cfg.QueryLog.Data = map[string]interface{}{"path": cfg.LogPath}
		}
	case "sql":
		if cfg.QueryLog.Data == nil {
			return fmt.Errorf("query_log.data is required for sql log")
		}
	default:
		return fmt.Errorf("query_log.type must be file or sql")
	}

	if cfg.AI.Provider == "" {
		cfg.AI.Provider = defaultProvider
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModel
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = defaultTimeout
	}
	if cfg.AI.Temperature != nil && (*cfg.AI.Temperature < 0 || *cfg.AI.Temperature > 2) {
		return fmt.Errorf("ai.temperature must be within [0, 2]")
	}
	for i, fb := range cfg.AI.Fallbacks {
		if strings.TrimSpace(fb.Provider) == "" || strings.TrimSpace(fb.Model) == "" {
			return fmt.Errorf("ai.fallbacks[%d] needs provider and model", i)
		}
	}
	if cfg.AI.Embed.Provider == "" {
		cfg.AI.Embed.Provider = defaultEmbedProvider
		if cfg.AI.Embed.Model == "" {
			cfg.AI.Embed.Model = defaultEmbedModel
		}
	}
	if cfg.AI.Embed.Concurrency <= 0 {
		cfg.AI.Embed.Concurrency = 4
	}
	if cfg.TextCache.Size <= 0 {
		cfg.TextCache.Size = 256
	}
	return nil
}
