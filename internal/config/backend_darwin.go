//go:build darwin

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// defaultsDomain is the UserDefaults domain holding non-secret keys.
const defaultsDomain = "com.librarybot.app"

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "librarybot-data"
	}
	return filepath.Join(home, "Library", "Application Support", "librarybot")
}

func secretHint(account string) string {
	return fmt.Sprintf(" or run `librarybot config set-secret` (Keychain item %s/%s)", keychainService, account)
}

// defaultsStore shells out to the `defaults` tool. Every value is written
// as a string; typing happens in the key table.
type defaultsStore struct{ domain string }

func newPlatformBackend() Store {
	return defaultsStore{domain: defaultsDomain}
}

func (d defaultsStore) run(args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.Command("defaults", args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("defaults %s: %w (%s)", args[0], err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out, nil
}

func (d defaultsStore) Lookup(key string) (string, bool, error) {
	out, err := d.run("read", d.domain, key)
	if err != nil {
		var exit *exec.ExitError
		// defaults exits 1 for a missing key or domain.
		if errors.As(err, &exit) && exit.ExitCode() == 1 {
			return "", false, nil
		}
		return "", false, err
	}
	return string(bytes.TrimSpace(out)), true, nil
}

func (d defaultsStore) Put(key, value string) error {
	_, err := d.run("write", d.domain, key, "-string", value)
	return err
}

func (d defaultsStore) Remove(key string) error {
	_, err := d.run("delete", d.domain, key)
	return err
}
