//go:build darwin

package config

import (
	"fmt"
	"os/exec"
	"strings"
)

// keychainExec prints the password of a generic Keychain item.
func keychainExec(service, account string) ([]byte, error) {
	return exec.Command("security", "find-generic-password", "-w", "-s", service, "-a", account).Output()
}

// keychainStore creates the item or, with -U, updates it in place. The
// command is fed to `security -i` on stdin so the secret never appears in
// the process list.
func keychainStore(service, account, value string) error {
	cmd := exec.Command("security", "-i")
	cmd.Stdin = strings.NewReader(keychainAddCommand(service, account, value))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("storing %s/%s in Keychain: %w (%s)", service, account, err, strings.TrimSpace(string(out)))
	}
	return nil
}
