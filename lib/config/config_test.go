// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Bridge.Timeout != 30*time.Second {
		t.Errorf("bridge.timeout = %s, want 30s", cfg.Bridge.Timeout)
	}
	if cfg.Tunnel.Binary != "cloudflared" {
		t.Errorf("tunnel.binary = %q, want cloudflared", cfg.Tunnel.Binary)
	}
	if got := strings.Join(cfg.Tunnel.Args, " "); got != "access ssh --hostname {host}" {
		t.Errorf("tunnel.args = %q", got)
	}
	if cfg.API.MaxConcurrent != 8 {
		t.Errorf("api.max_concurrent = %d, want 8", cfg.API.MaxConcurrent)
	}
	if cfg.LLM.Model != "google/gemini-2.5-flash" || cfg.LLM.Temperature != 0.7 || cfg.LLM.MaxTokens != 1024 {
		t.Errorf("llm defaults = %+v", cfg.LLM)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
	if cfg.Remote.Configured() {
		t.Error("default remote section reports Configured")
	}
}

func TestLoadRequiresEnvironmentVariable(t *testing.T) {
	t.Setenv(EnvVar, "")
	_, err := Load()
	if err == nil {
		t.Fatal("Load() with INTERN_CONFIG unset succeeded")
	}
	if !strings.Contains(err.Error(), EnvVar) {
		t.Errorf("error %q does not name %s", err, EnvVar)
	}
}

func TestLoadFileOverridesDefaultsAndExpandsVariables(t *testing.T) {
	t.Setenv("TEST_INTERN_KEY", "sk-test")
	path := filepath.Join(t.TempDir(), "intern.yaml")
	content := `
remote:
  host: vm.example.com
  user: ubuntu
  password: ${TEST_INTERN_PASSWORD:-fallback}
tunnel:
  args: ["access", "ssh", "--hostname", "{host}", "--loglevel", "error"]
bridge:
  timeout: 45s
safety:
  extra_deny: ["shutdown"]
llm:
  api_key: ${TEST_INTERN_KEY}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Remote.Host != "vm.example.com" || cfg.Remote.User != "ubuntu" {
		t.Errorf("remote = %+v", cfg.Remote)
	}
	if cfg.Remote.Password != "fallback" {
		t.Errorf("remote.password = %q, want default from ${VAR:-default}", cfg.Remote.Password)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("llm.api_key = %q, want sk-test", cfg.LLM.APIKey)
	}
	if cfg.Bridge.Timeout != 45*time.Second {
		t.Errorf("bridge.timeout = %s, want 45s", cfg.Bridge.Timeout)
	}
	if len(cfg.Tunnel.Args) != 6 {
		t.Errorf("tunnel.args = %v, want six entries replacing the default", cfg.Tunnel.Args)
	}
	if cfg.Tunnel.Binary != "cloudflared" {
		t.Errorf("tunnel.binary = %q, want default retained", cfg.Tunnel.Binary)
	}
	if len(cfg.Safety.ExtraDeny) != 1 || cfg.Safety.ExtraDeny[0] != "shutdown" {
		t.Errorf("safety.extra_deny = %v", cfg.Safety.ExtraDeny)
	}
	if !cfg.Remote.Configured() {
		t.Error("Configured() = false for a complete remote section")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("remote:\n  hostname: typo\n")); err == nil {
		t.Fatal("Parse accepted an unknown key")
	}
}

func TestParseEmptyDocumentYieldsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if cfg.Bridge.Timeout != 30*time.Second {
		t.Errorf("bridge.timeout = %s, want default", cfg.Bridge.Timeout)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("INTERN_TEST_A", "first")
	t.Setenv("INTERN_TEST_B", "second")
	t.Setenv("INTERN_TEST_EMPTY", "")

	tests := []struct {
		input    string
		expected string
	}{
		{"${INTERN_TEST_A}/${INTERN_TEST_B}", "first/second"},
		{"${INTERN_TEST_MISSING:-default}", "default"},
		{"${INTERN_TEST_A:-default}", "first"},
		{"${INTERN_TEST_EMPTY}", ""},
		{"no variables here", "no variables here"},
	}
	for _, test := range tests {
		if got := expandVars(test.input); got != test.expected {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.expected)
		}
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Bridge.Timeout = 0
	cfg.Tunnel.Binary = ""
	cfg.API.HTTPListen = "no-port"
	cfg.API.MaxConcurrent = -1
	cfg.Remote.SealedPassword = "abc"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil")
	}
	for _, want := range []string{"bridge.timeout", "tunnel.binary", "api.http_listen", "api.max_concurrent", "remote.identity_file"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %s", err, want)
		}
	}
}

func TestCredentialSources(t *testing.T) {
	directory := t.TempDir()
	passwordFile := filepath.Join(directory, "password")
	if err := os.WriteFile(passwordFile, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		remote RemoteConfig
		want   string
	}{
		{"none", RemoteConfig{}, ""},
		{"inline", RemoteConfig{Password: "inline"}, "inline"},
		{"file wins over inline", RemoteConfig{Password: "inline", PasswordFile: passwordFile}, "from-file"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buffer, err := test.remote.Credential()
			if err != nil {
				t.Fatalf("Credential: %v", err)
			}
			if test.want == "" {
				if buffer != nil {
					t.Fatalf("Credential = %q, want nil", buffer.String())
				}
				return
			}
			defer buffer.Close()
			if got := buffer.String(); got != test.want {
				t.Errorf("Credential = %q, want %q", got, test.want)
			}
		})
	}
}
