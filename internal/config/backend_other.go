//go:build !darwin

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// xdgDir resolves an XDG base directory, falling back to fallback under
// the home directory and to "." when there is no home.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

func defaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "librarybot")
}

func configFilePath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "librarybot", "config.yaml")
}

func secretHint(account string) string {
	return fmt.Sprintf(" or run `librarybot config set-secret` (stored in %s as %s.%s)", secretsFilePath(), keychainService, account)
}

// yamlStore keeps settings in a sectioned YAML document:
//
//	server:
//	  port: 4100
//	llm:
//	  model: gpt-4o-mini
type yamlStore struct {
	path     string
	sections map[string]map[string]any
}

func newPlatformBackend() Store {
	s := &yamlStore{path: configFilePath(), sections: map[string]map[string]any{}}
	raw, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		slog.Warn("config file unreadable, using defaults", "path", s.path, "error", err)
	default:
		if err := yaml.Unmarshal(raw, &s.sections); err != nil {
			slog.Warn("config file malformed, using defaults", "path", s.path, "error", err)
			s.sections = map[string]map[string]any{}
		}
	}
	return s
}

func (s *yamlStore) Lookup(key string) (string, bool, error) {
	section, name := splitKey(key)
	v, ok := s.sections[section][name]
	if !ok || v == nil {
		return "", false, nil
	}
	switch v.(type) {
	case map[string]any, []any:
		return "", true, fmt.Errorf("%s holds a nested value, want a scalar", key)
	}
	return fmt.Sprint(v), true, nil
}

func (s *yamlStore) Put(key, value string) error {
	section, name := splitKey(key)
	if s.sections[section] == nil {
		s.sections[section] = map[string]any{}
	}
	s.sections[section][name] = value
	return s.flush()
}

func (s *yamlStore) Remove(key string) error {
	section, name := splitKey(key)
	delete(s.sections[section], name)
	if len(s.sections[section]) == 0 {
		delete(s.sections, section)
	}
	return s.flush()
}

func (s *yamlStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	out, err := yaml.Marshal(s.sections)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(s.path, out, 0o600)
}
