// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sleepyleo/intern/lib/secret"
	"github.com/sleepyleo/intern/lib/sealed"
)

// EnvVar names the environment variable consulted by Load.
const EnvVar = "INTERN_CONFIG"

// Config is the whole configuration file.
type Config struct {
	Remote   RemoteConfig   `yaml:"remote"`
	Tunnel   TunnelConfig   `yaml:"tunnel"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Safety   SafetyConfig   `yaml:"safety"`
	LLM      LLMConfig      `yaml:"llm"`
	Reaction ReactionConfig `yaml:"reaction"`
	API      APIConfig      `yaml:"api"`
	Health   HealthConfig   `yaml:"health"`
}

// RemoteConfig identifies the remote host and how to log in to it.
type RemoteConfig struct {
	// Host is the hostname published through the access gateway.
	Host string `yaml:"host"`

	// User is the SSH login name.
	User string `yaml:"user"`

	// Password is a plaintext password. Prefer PasswordFile or
	// SealedPassword.
	Password string `yaml:"password"`

	// PasswordFile holds the password, surrounding whitespace trimmed.
	PasswordFile string `yaml:"password_file"`

	// SealedPassword is base64 age ciphertext produced by "intern seal".
	SealedPassword string `yaml:"sealed_password"`

	// IdentityFile is the age identity that opens SealedPassword.
	IdentityFile string `yaml:"identity_file"`

	// PrivateKeyFile is an optional PEM/OpenSSH private key offered
	// alongside the password.
	PrivateKeyFile string `yaml:"private_key_file"`

	// HostKey pins the remote host key, in authorized_keys format.
	// Empty accepts any key.
	HostKey string `yaml:"host_key"`
}

// TunnelConfig selects the tunnel binary.
type TunnelConfig struct {
	// Binary is looked up on PATH. Default: cloudflared.
	Binary string `yaml:"binary"`

	// Args are passed to Binary. "{host}" is replaced with the remote
	// host. Default: access ssh --hostname {host}.
	Args []string `yaml:"args"`

	// Digest pins the BLAKE3 hash of Binary. Empty disables the check.
	Digest string `yaml:"digest"`
}

// BridgeConfig bounds a single command execution.
type BridgeConfig struct {
	// Timeout covers tunnel start through command exit. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`
}

// SafetyConfig extends the built-in command deny-list.
type SafetyConfig struct {
	ExtraDeny []string `yaml:"extra_deny"`
}

// LLMConfig points at an OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// ReactionConfig locates the emotion media catalog.
type ReactionConfig struct {
	// Catalog is a JSON (comments allowed) file. Empty disables
	// reactions.
	Catalog string `yaml:"catalog"`
}

// APIConfig controls the listeners started by "intern serve".
type APIConfig struct {
	// HTTPListen is a TCP address for the JSON API. Empty disables it.
	HTTPListen string `yaml:"http_listen"`

	// SocketPath is the unix socket the CLI talks to. Empty disables it.
	SocketPath string `yaml:"socket_path"`

	// MaxConcurrent caps socket requests handled at once. Zero means
	// no cap. Default: 8.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// HealthConfig tunes the local fallback sampler.
type HealthConfig struct {
	// SampleInterval separates the two /proc/stat reads. Default: 500ms.
	SampleInterval time.Duration `yaml:"sample_interval"`
}

// Default returns the values used for anything the file leaves unset.
func Default() *Config {
	return &Config{
		Tunnel: TunnelConfig{
			Binary: "cloudflared",
			Args:   []string{"access", "ssh", "--hostname", "{host}"},
		},
		Bridge: BridgeConfig{Timeout: 30 * time.Second},
		LLM: LLMConfig{
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "google/gemini-2.5-flash",
			Temperature: 0.7,
			MaxTokens:   1024,
		},
		API:    APIConfig{HTTPListen: "127.0.0.1:8080", MaxConcurrent: 8},
		Health: HealthConfig{SampleInterval: 500 * time.Millisecond},
	}
}

// Load reads the file named by INTERN_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your intern.yaml or pass --config", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults and expands ${VAR} references.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. An empty document yields the
// defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	for _, field := range []*string{
		&c.Remote.Host,
		&c.Remote.User,
		&c.Remote.Password,
		&c.Remote.PasswordFile,
		&c.Remote.SealedPassword,
		&c.Remote.IdentityFile,
		&c.Remote.PrivateKeyFile,
		&c.Tunnel.Binary,
		&c.LLM.BaseURL,
		&c.LLM.APIKey,
		&c.LLM.Model,
		&c.Reaction.Catalog,
		&c.API.HTTPListen,
		&c.API.SocketPath,
	} {
		*field = expandVars(*field)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars replaces ${VAR} and ${VAR:-default}. An unset or empty
// variable without a default expands to "".
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate reports every configuration error at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Bridge.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("bridge.timeout must be positive, got %s", c.Bridge.Timeout))
	}
	if c.Tunnel.Binary == "" {
		errs = append(errs, fmt.Errorf("tunnel.binary is required"))
	}
	if c.Health.SampleInterval < 0 {
		errs = append(errs, fmt.Errorf("health.sample_interval must not be negative"))
	}
	if c.LLM.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must not be negative"))
	}
	if c.API.MaxConcurrent < 0 {
		errs = append(errs, fmt.Errorf("api.max_concurrent must not be negative"))
	}
	if c.API.HTTPListen != "" {
		if _, _, err := net.SplitHostPort(c.API.HTTPListen); err != nil {
			errs = append(errs, fmt.Errorf("api.http_listen: %w", err))
		}
	}
	if c.Remote.SealedPassword != "" && c.Remote.IdentityFile == "" {
		errs = append(errs, fmt.Errorf("remote.sealed_password requires remote.identity_file"))
	}
	return errors.Join(errs...)
}

// Configured reports whether enough of the remote section is present
// to attempt a connection. The credential itself is checked when it is
// loaded.
func (r RemoteConfig) Configured() bool {
	return r.Host != "" && r.User != "" &&
		(r.Password != "" || r.PasswordFile != "" || r.SealedPassword != "")
}

// Credential loads the remote password into protected memory. It
// returns nil and no error when no credential is configured.
func (r RemoteConfig) Credential() (*secret.Buffer, error) {
	switch {
	case r.PasswordFile != "":
		buffer, err := secret.ReadFile(r.PasswordFile)
		if err != nil {
			return nil, fmt.Errorf("remote.password_file: %w", err)
		}
		return buffer, nil
	case r.SealedPassword != "":
		buffer, err := sealed.OpenWithIdentityFile(r.SealedPassword, r.IdentityFile)
		if err != nil {
			return nil, fmt.Errorf("remote.sealed_password: %w", err)
		}
		return buffer, nil
	case r.Password != "":
		return secret.FromString(r.Password)
	}
	return nil, nil
}
