package config

import "strings"

// keychainAddCommand renders one `security -i` command line with every
// argument double-quoted.
func keychainAddCommand(service, account, value string) string {
	args := []string{"add-generic-password", "-U", "-s", quoteArg(service), "-a", quoteArg(account), "-w", quoteArg(value)}
	return strings.Join(args, " ") + "\n"
}

func quoteArg(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
