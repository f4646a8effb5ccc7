//go:build !darwin

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// secretsFilePath is the owner-only YAML file standing in for a keychain
// on platforms without one. It lives beside the data, not the config, so
// sharing config.yaml never leaks a key.
func secretsFilePath() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "librarybot", "secrets.yaml")
}

// vault maps service to account to secret.
type vault map[string]map[string]string

func readVault(path string) (vault, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return vault{}, nil
	}
	if err != nil {
		return nil, err
	}
	v := vault{}
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return v, nil
}

func keychainExec(service, account string) ([]byte, error) {
	v, err := readVault(secretsFilePath())
	if err != nil {
		return nil, err
	}
	secret, ok := v[service][account]
	if !ok {
		return nil, fmt.Errorf("no secret %s/%s", service, account)
	}
	return []byte(secret), nil
}

func keychainStore(service, account, value string) error {
	path := secretsFilePath()
	v, err := readVault(path)
	if err != nil {
		return err
	}
	if v[service] == nil {
		v[service] = map[string]string{}
	}
	v[service][account] = value

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}
