package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	account string // secret store account, secrets only
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "LIBRARYBOT_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "LIBRARYBOT_SERVER_API_TOKEN",
		secret: true, account: "api_token",
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "llm.base_url", typ: kString, env: "LIBRARYBOT_LLM_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.LLM.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.BaseURL },
	},
	{
		key: "llm.api_key", typ: kString, env: "LIBRARYBOT_LLM_API_KEY",
		secret: true, account: "llm_api_key",
		apply:   func(cfg *Config, v any) { cfg.LLM.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.APIKey },
	},
	{
		key: "llm.model", typ: kString, env: "LIBRARYBOT_LLM_MODEL",
		apply:   func(cfg *Config, v any) { cfg.LLM.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.LLM.Model },
	},
	{
		key: "llm.max_tokens", typ: kInt, env: "LIBRARYBOT_LLM_MAX_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.LLM.MaxTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.LLM.MaxTokens },
	},
	{
		key: "llm.temperature", typ: kFloat, env: "LIBRARYBOT_LLM_TEMPERATURE",
		apply:   func(cfg *Config, v any) { cfg.LLM.Temperature = v.(float64) },
		extract: func(cfg Config) any { return cfg.LLM.Temperature },
	},
	{
		key: "llm.timeout", typ: kDuration, env: "LIBRARYBOT_LLM_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.LLM.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.LLM.Timeout },
	},
	{
		key: "catalog.source", typ: kString, env: "LIBRARYBOT_CATALOG_SOURCE",
		apply:   func(cfg *Config, v any) { cfg.Catalog.Source = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.Source },
	},
	{
		key: "catalog.seed_file", typ: kString, env: "LIBRARYBOT_CATALOG_SEED_FILE",
		apply:   func(cfg *Config, v any) { cfg.Catalog.SeedFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.SeedFile },
	},
	{
		key: "catalog.postgres_dsn", typ: kString, env: "LIBRARYBOT_CATALOG_POSTGRES_DSN",
		secret: true, account: "postgres_dsn",
		apply:   func(cfg *Config, v any) { cfg.Catalog.PostgresDSN = v.(string) },
		extract: func(cfg Config) any { return cfg.Catalog.PostgresDSN },
	},
	{
		key: "catalog.cache_ttl", typ: kDuration, env: "LIBRARYBOT_CATALOG_CACHE_TTL",
		apply:   func(cfg *Config, v any) { cfg.Catalog.CacheTTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Catalog.CacheTTL },
	},
	{
		key: "storage.data_dir", typ: kString, env: "LIBRARYBOT_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "dialogue.max_transcript", typ: kInt, env: "LIBRARYBOT_DIALOGUE_MAX_TRANSCRIPT",
		apply:   func(cfg *Config, v any) { cfg.Dialogue.MaxTranscript = v.(int) },
		extract: func(cfg Config) any { return cfg.Dialogue.MaxTranscript },
	},
	{
		key: "dialogue.archive", typ: kString, env: "LIBRARYBOT_DIALOGUE_ARCHIVE",
		apply:   func(cfg *Config, v any) { cfg.Dialogue.Archive = v.(string) },
		extract: func(cfg Config) any { return cfg.Dialogue.Archive },
	},
	{
		key: "redis.addr", typ: kString, env: "LIBRARYBOT_REDIS_ADDR",
		apply:   func(cfg *Config, v any) { cfg.Redis.Addr = v.(string) },
		extract: func(cfg Config) any { return cfg.Redis.Addr },
	},
	{
		key: "redis.password", typ: kString, env: "LIBRARYBOT_REDIS_PASSWORD",
		secret: true, account: "redis_password",
		apply:   func(cfg *Config, v any) { cfg.Redis.Password = v.(string) },
		extract: func(cfg Config) any { return cfg.Redis.Password },
	},
	{
		key: "redis.db", typ: kInt, env: "LIBRARYBOT_REDIS_DB",
		apply:   func(cfg *Config, v any) { cfg.Redis.DB = v.(int) },
		extract: func(cfg Config) any { return cfg.Redis.DB },
	},
	{
		key: "redis.ttl", typ: kDuration, env: "LIBRARYBOT_REDIS_TTL",
		apply:   func(cfg *Config, v any) { cfg.Redis.TTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Redis.TTL },
	},
	{
		key: "intent.patterns_file", typ: kString, env: "LIBRARYBOT_INTENT_PATTERNS_FILE",
		apply:   func(cfg *Config, v any) { cfg.Intent.PatternsFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Intent.PatternsFile },
	},
	{
		key: "mcp.enabled", typ: kBool, env: "LIBRARYBOT_MCP_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.MCP.Enabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.MCP.Enabled },
	},
	{
		key: "log.level", typ: kString, env: "LIBRARYBOT_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// parseValue converts raw to the Go type of t.
func parseValue(t keyType, raw string) (any, error) {
	switch t {
	case kInt:
		return strconv.Atoi(raw)
	case kBool:
		return strconv.ParseBool(raw)
	case kFloat:
		return strconv.ParseFloat(raw, 64)
	case kDuration:
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}

func typeName(t keyType) string {
	switch t {
	case kInt:
		return "integer"
	case kBool:
		return "bool"
	case kFloat:
		return "float"
	case kDuration:
		return "duration"
	default:
		return "string"
	}
}

// overlay applies every non-secret key that lookup can produce. Values
// that fail to parse are reported and skipped so one typo does not keep
// the bot from starting.
func overlay(cfg *Config, origin string, lookup func(keySpec) (string, bool, error)) error {
	for _, s := range specs {
		raw, ok, err := lookup(s)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || (raw == "" && s.typ != kString) {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			slog.Warn("ignoring unparsable config value",
				"source", origin, "key", s.key, "want", typeName(s.typ), "value", raw, "error", err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyBackend(cfg *Config, st Store) error {
	return overlay(cfg, "store", func(s keySpec) (string, bool, error) {
		if s.secret {
			return "", false, nil
		}
		return st.Lookup(s.key)
	})
}

func applyEnvOverrides(cfg *Config) {
	_ = overlay(cfg, "env", func(s keySpec) (string, bool, error) {
		if s.env == "" {
			return "", false, nil
		}
		v := os.Getenv(s.env)
		return v, v != "", nil
	})
}
