package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	values map[string]string
}

func (m mockKeychain) Get(service, account string) (string, error) {
	if service != keychainService {
		return "", errors.New("unknown service")
	}
	v, ok := m.values[account]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

// mapBackend is an in-memory Store.
type mapBackend struct {
	data map[string]string
}

func newMapBackend(kv map[string]string) *mapBackend {
	if kv == nil {
		kv = make(map[string]string)
	}
	return &mapBackend{data: kv}
}

func (b *mapBackend) Lookup(key string) (string, bool, error) {
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *mapBackend) Put(key, value string) error {
	b.data[key] = value
	return nil
}

func (b *mapBackend) Remove(key string) error {
	delete(b.data, key)
	return nil
}

// clearEnv blanks every LIBRARYBOT_* variable so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies all default values are applied when nothing is configured.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend(nil), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4070 {
		t.Errorf("Server.Port = %d, want 4070", cfg.Server.Port)
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("LLM.BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM.Model = %q, want gpt-4o-mini", cfg.LLM.Model)
	}
	if cfg.LLM.MaxTokens != 500 || cfg.LLM.Temperature != 0.7 {
		t.Errorf("LLM sampling = (%d, %v), want (500, 0.7)", cfg.LLM.MaxTokens, cfg.LLM.Temperature)
	}
	if cfg.LLM.Timeout != 10*time.Second {
		t.Errorf("LLM.Timeout = %v, want 10s", cfg.LLM.Timeout)
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("LLM.APIKey = %q, want empty", cfg.LLM.APIKey)
	}
	if cfg.Catalog.Source != SourceSQLite || cfg.Catalog.CacheTTL != 2*time.Second {
		t.Errorf("Catalog = %+v", cfg.Catalog)
	}
	if cfg.Dialogue.MaxTranscript != 500 || cfg.Dialogue.Archive != ArchiveSQLite {
		t.Errorf("Dialogue = %+v", cfg.Dialogue)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.TTL != 24*time.Hour {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
	if cfg.MCP.Enabled {
		t.Error("MCP.Enabled = true, want false")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Storage.DataDir == "" {
		t.Error("Storage.DataDir is empty")
	}
}

// TestBackendValues verifies every key type is read from the backend.
func TestBackendValues(t *testing.T) {
	clearEnv(t)

	b := newMapBackend(map[string]string{
		"server.port":             "5000",
		"llm.model":               "gpt-4o",
		"llm.temperature":         "0.2",
		"llm.timeout":             "30s",
		"catalog.source":          "memory",
		"dialogue.max_transcript": "0",
		"mcp.enabled":             "true",
		"storage.data_dir":        "/tmp/librarybot-test",
	})
	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Errorf("LLM.Temperature = %v, want 0.2", cfg.LLM.Temperature)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("LLM.Timeout = %v, want 30s", cfg.LLM.Timeout)
	}
	if cfg.Catalog.Source != SourceMemory {
		t.Errorf("Catalog.Source = %q", cfg.Catalog.Source)
	}
	if cfg.Dialogue.MaxTranscript != 0 {
		t.Errorf("Dialogue.MaxTranscript = %d, want 0", cfg.Dialogue.MaxTranscript)
	}
	if !cfg.MCP.Enabled {
		t.Error("MCP.Enabled = false, want true")
	}
	if cfg.Storage.DataDir != "/tmp/librarybot-test" {
		t.Errorf("Storage.DataDir = %q", cfg.Storage.DataDir)
	}
}

// TestBackendIgnoresSecrets verifies secrets are never read from the plain backend.
func TestBackendIgnoresSecrets(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend(map[string]string{"llm.api_key": "leaked"}), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.APIKey != "" {
		t.Errorf("LLM.APIKey = %q, want empty", cfg.LLM.APIKey)
	}
}

// TestBackendUnparseableKeepsDefault verifies a bad value warns and keeps the default.
func TestBackendUnparseableKeepsDefault(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend(map[string]string{"llm.timeout": "soon"}), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.Timeout != 10*time.Second {
		t.Errorf("LLM.Timeout = %v, want default 10s", cfg.LLM.Timeout)
	}
}

// TestEnvOverride verifies that environment variables override backend values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIBRARYBOT_SERVER_PORT", "6000")
	t.Setenv("LIBRARYBOT_LLM_API_KEY", "env-key")
	t.Setenv("LIBRARYBOT_LLM_MAX_TOKENS", "not-a-number")
	t.Setenv("LIBRARYBOT_REDIS_TTL", "1h")
	t.Setenv("LIBRARYBOT_MCP_ENABLED", "1")

	cfg, err := loadWith(newMapBackend(map[string]string{"server.port": "5000"}), mockKeychain{values: map[string]string{"llm_api_key": "keychain-key"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("LLM.APIKey = %q, want env-key", cfg.LLM.APIKey)
	}
	if cfg.LLM.MaxTokens != 500 {
		t.Errorf("LLM.MaxTokens = %d, want default 500", cfg.LLM.MaxTokens)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Errorf("Redis.TTL = %v, want 1h", cfg.Redis.TTL)
	}
	if !cfg.MCP.Enabled {
		t.Error("MCP.Enabled = false, want true")
	}
}

// TestKeychainFallback verifies the secret store is consulted when no secret is in env.
func TestKeychainFallback(t *testing.T) {
	clearEnv(t)

	kc := mockKeychain{values: map[string]string{
		"llm_api_key": "keychain-secret",
		"api_token":   "token-1",
	}}
	cfg, err := loadWith(newMapBackend(nil), kc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.LLM.APIKey != "keychain-secret" {
		t.Errorf("LLM.APIKey = %q, want %q", cfg.LLM.APIKey, "keychain-secret")
	}
	if cfg.Server.APIToken != "token-1" {
		t.Errorf("Server.APIToken = %q, want token-1", cfg.Server.APIToken)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad source", func(c *Config) { c.Catalog.Source = "mongo" }, "catalog.source"},
		{"postgres without dsn", func(c *Config) { c.Catalog.Source = SourcePostgres }, "catalog.postgres_dsn"},
		{"bad archive", func(c *Config) { c.Dialogue.Archive = "s3" }, "dialogue.archive"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bad temperature", func(c *Config) { c.LLM.Temperature = 3 }, "llm.temperature"},
		{"bad tokens", func(c *Config) { c.LLM.MaxTokens = 0 }, "llm.max_tokens"},
		{"bad timeout", func(c *Config) { c.LLM.Timeout = 0 }, "llm.timeout"},
		{"negative transcript", func(c *Config) { c.Dialogue.MaxTranscript = -1 }, "dialogue.max_transcript"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}

	cfg := defaults()
	cfg.Catalog.Source = SourcePostgres
	cfg.Catalog.PostgresDSN = "postgres://localhost/library"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid postgres config rejected: %v", err)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIBRARYBOT_DIALOGUE_ARCHIVE", "tape")

	if _, err := loadWith(newMapBackend(nil), mockKeychain{}); err == nil {
		t.Fatal("expected error for invalid archive")
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.LLM.APIKey = "sk-very-secret"

	found := map[string]string{}
	for _, ki := range ShowAll(cfg) {
		found[ki.Key] = ki.Value
		if strings.Contains(ki.Value, "sk-very-secret") {
			t.Errorf("secret leaked in %s", ki.Key)
		}
	}
	if found["llm.api_key"] != "(set)" {
		t.Errorf("llm.api_key = %q, want (set)", found["llm.api_key"])
	}
	if found["server.api_token"] != "(unset)" {
		t.Errorf("server.api_token = %q, want (unset)", found["server.api_token"])
	}
	if found["llm.timeout"] != "10s" {
		t.Errorf("llm.timeout = %q, want 10s", found["llm.timeout"])
	}
}

func TestSetKey(t *testing.T) {
	b := newMapBackend(nil)

	if err := setKeyWith(b, "server.port", "8080"); err != nil {
		t.Fatalf("set int: %v", err)
	}
	if b.data["server.port"] != "8080" {
		t.Errorf("server.port stored as %v", b.data["server.port"])
	}
	if err := setKeyWith(b, "llm.timeout", "5s"); err != nil {
		t.Fatalf("set duration: %v", err)
	}
	if b.data["llm.timeout"] != "5s" {
		t.Errorf("llm.timeout stored as %v", b.data["llm.timeout"])
	}

	if err := setKeyWith(b, "server.port", "eighty"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKeyWith(b, "mcp.enabled", "maybe"); err == nil {
		t.Error("expected error for non-bool value")
	}
	if err := setKeyWith(b, "llm.api_key", "sk"); err == nil || !strings.Contains(err.Error(), "secret") {
		t.Errorf("secret key error = %v", err)
	}
	if err := setKeyWith(b, "nope", "x"); err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("unknown key error = %v", err)
	}
}

func TestSetKeyCanonicalForm(t *testing.T) {
	b := newMapBackend(nil)
	if err := setKeyWith(b, "llm.timeout", "90s"); err != nil {
		t.Fatal(err)
	}
	if err := setKeyWith(b, "mcp.enabled", "1"); err != nil {
		t.Fatal(err)
	}
	if b.data["llm.timeout"] != "1m30s" || b.data["mcp.enabled"] != "true" {
		t.Errorf("stored %v", b.data)
	}
}

func TestUnsetKey(t *testing.T) {
	clearEnv(t)
	b := newMapBackend(map[string]string{"server.port": "5000"})

	if err := unsetKeyWith(b, "server.port"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != defaults().Server.Port {
		t.Errorf("Server.Port = %d, want default", cfg.Server.Port)
	}
	if err := unsetKeyWith(b, "redis.password"); err == nil {
		t.Error("unset accepted a secret key")
	}
}

func TestSplitKey(t *testing.T) {
	for key, want := range map[string][2]string{
		"server.port":       {"server", "port"},
		"catalog.seed_file": {"catalog", "seed_file"},
		"orphan":            {"general", "orphan"},
	} {
		sec, name := splitKey(key)
		if sec != want[0] || name != want[1] {
			t.Errorf("splitKey(%q) = %q, %q", key, sec, name)
		}
	}
}

func TestKeyLists(t *testing.T) {
	valid := strings.Join(ValidKeys(), ",")
	secret := strings.Join(SecretKeys(), ",")
	if strings.Contains(valid, "llm.api_key") {
		t.Error("ValidKeys lists a secret")
	}
	for _, k := range []string{"llm.api_key", "server.api_token", "catalog.postgres_dsn", "redis.password"} {
		if !strings.Contains(secret, k) {
			t.Errorf("SecretKeys missing %s", k)
		}
	}
	if err := SetSecret("llm.model", "x"); err == nil {
		t.Error("SetSecret accepted a non-secret key")
	}
}
