package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	LLM      LLMConfig
	Catalog  CatalogConfig
	Storage  StorageConfig
	Dialogue DialogueConfig
	Redis    RedisConfig
	Intent   IntentConfig
	MCP      MCPConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port     int
	APIToken string
}

type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type CatalogConfig struct {
	Source      string
	SeedFile    string
	PostgresDSN string
	CacheTTL    time.Duration
}

type StorageConfig struct {
	DataDir string
}

type DialogueConfig struct {
	MaxTranscript int
	Archive       string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type IntentConfig struct {
	PatternsFile string
}

type MCPConfig struct {
	Enabled bool
}

type LogConfig struct {
	Level string
}

const (
	SourceMemory   = "memory"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"

	ArchiveNone   = "none"
	ArchiveSQLite = "sqlite"
	ArchiveRedis  = "redis"
)

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4070,
		},
		LLM: LLMConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			MaxTokens:   500,
			Temperature: 0.7,
			Timeout:     10 * time.Second,
		},
		Catalog: CatalogConfig{
			Source:   SourceSQLite,
			CacheTTL: 2 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Dialogue: DialogueConfig{
			MaxTranscript: 500,
			Archive:       ArchiveSQLite,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
			TTL:  24 * time.Hour,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.librarybot.app) and
// secrets fall back to macOS Keychain.
// On Linux the store is a sectioned YAML file at
// $XDG_CONFIG_HOME/librarybot/config.yaml and secrets live in
// $XDG_DATA_HOME/librarybot/secrets.yaml.
//
// Environment variables (LIBRARYBOT_*) override backend values on all platforms.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

// keychainService is the secret store service name.
const keychainService = "librarybot"

func loadWith(st Store, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, st); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, kc)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applySecrets fills secret keys still empty after env overrides from the
// platform secret store. A missing secret is not an error: without an LLM
// key sessions simply start in local mode.
func applySecrets(cfg *Config, kc keychain) {
	for _, s := range specs {
		if !s.secret || s.account == "" {
			continue
		}
		if v, _ := s.extract(*cfg).(string); v != "" {
			continue
		}
		if v, err := kc.Get(keychainService, s.account); err == nil && v != "" {
			s.apply(cfg, v)
		}
	}
}

// Validate checks enumerated and ranged values.
func (c Config) Validate() error {
	var problems []string
	switch c.Catalog.Source {
	case SourceMemory, SourceSQLite, SourcePostgres:
	default:
		problems = append(problems, fmt.Sprintf("catalog.source must be memory, sqlite or postgres, got %q", c.Catalog.Source))
	}
	if c.Catalog.Source == SourcePostgres && c.Catalog.PostgresDSN == "" {
		problems = append(problems, "catalog.postgres_dsn is required when catalog.source is postgres (set LIBRARYBOT_CATALOG_POSTGRES_DSN"+secretHint("postgres_dsn")+")")
	}
	switch c.Dialogue.Archive {
	case ArchiveNone, ArchiveSQLite, ArchiveRedis:
	default:
		problems = append(problems, fmt.Sprintf("dialogue.archive must be none, sqlite or redis, got %q", c.Dialogue.Archive))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	if c.LLM.MaxTokens <= 0 {
		problems = append(problems, "llm.max_tokens must be positive")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		problems = append(problems, fmt.Sprintf("llm.temperature must be within [0,2], got %v", c.LLM.Temperature))
	}
	if c.LLM.Timeout <= 0 {
		problems = append(problems, "llm.timeout must be positive")
	}
	if c.Dialogue.MaxTranscript < 0 {
		problems = append(problems, "dialogue.max_transcript must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
