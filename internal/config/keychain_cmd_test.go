package config

import "testing"

func TestKeychainAddCommandQuotes(t *testing.T) {
	got := keychainAddCommand("librarybot", "llm_api_key", `sk "quoted" \path`)
	want := `add-generic-password -U -s "librarybot" -a "llm_api_key" -w "sk \"quoted\" \\path"` + "\n"
	if got != want {
		t.Errorf("command = %q, want %q", got, want)
	}
}
