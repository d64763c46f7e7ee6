// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/sleepyleo/intern/api"
	"github.com/sleepyleo/intern/bridge"
	"github.com/sleepyleo/intern/chat"
	"github.com/sleepyleo/intern/health"
	"github.com/sleepyleo/intern/lib/config"
	"github.com/sleepyleo/intern/lib/llm"
	"github.com/sleepyleo/intern/lib/secret"
	"github.com/sleepyleo/intern/reaction"
	"github.com/sleepyleo/intern/safety"
	"github.com/sleepyleo/intern/tunnel"
)

// appTitle identifies intern to the model provider.
const appTitle = "Sleepyleo's AI Intern"

// configFlags selects the configuration file.
type configFlags struct {
	ConfigPath string `flag:"config,c" desc:"configuration file (default: $INTERN_CONFIG)"`
}

func (f configFlags) load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if f.ConfigPath != "" {
		cfg, err = config.LoadFile(f.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// stack is the component graph behind "intern serve" and the
// in-process mode of exec, chat and health.
type stack struct {
	bridge  *bridge.Bridge
	handler *api.Handler

	// secrets are closed by Close.
	secrets []*secret.Buffer
}

func buildStack(cfg *config.Config, logger *slog.Logger) (_ *stack, err error) {
	s := &stack{}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	remote, err := s.remote(cfg.Remote)
	if err != nil {
		return nil, err
	}
	if !cfg.Remote.Configured() {
		logger.Warn("remote access is not configured; commands will fail until remote.host, remote.user and a password are set")
	}
	if remote.HostKey == nil {
		logger.Warn("remote.host_key is not set; accepting any SSH host key")
	}

	s.bridge = bridge.New(bridge.Config{
		Remote: remote,
		Dialer: bridge.TunnelDialer{
			Config: tunnel.Config{
				Binary: cfg.Tunnel.Binary,
				Args:   cfg.Tunnel.Args,
				Digest: cfg.Tunnel.Digest,
			},
			Logger: logger,
		},
		Filter:  &safety.Filter{Extra: cfg.Safety.ExtraDeny},
		Timeout: cfg.Bridge.Timeout,
		Logger:  logger,
	})

	collector := health.New(health.Config{
		Runner:         s.bridge,
		SampleInterval: cfg.Health.SampleInterval,
		Logger:         logger,
	})

	var responder api.Responder
	if cfg.LLM.APIKey != "" {
		orchestrator, err := s.orchestrator(cfg, logger)
		if err != nil {
			return nil, err
		}
		responder = orchestrator
	} else {
		logger.Info("llm.api_key is not set; chat is disabled")
	}

	s.handler = api.NewHandler(api.Config{
		Executor:    s.bridge,
		Collector:   collector,
		Responder:   responder,
		MediaClient: api.NewMediaClient(30 * time.Second),
		Logger:      logger,
	})
	return s, nil
}

func (s *stack) remote(cfg config.RemoteConfig) (bridge.Remote, error) {
	remote := bridge.Remote{Host: cfg.Host, User: cfg.User}

	password, err := cfg.Credential()
	if err != nil {
		return remote, err
	}
	if password != nil {
		s.secrets = append(s.secrets, password)
		remote.Password = password
	}

	if cfg.PrivateKeyFile != "" {
		signer, err := loadSigner(cfg.PrivateKeyFile)
		if err != nil {
			return remote, fmt.Errorf("remote.private_key_file: %w", err)
		}
		remote.Signer = signer
	}

	if cfg.HostKey != "" {
		hostKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(cfg.HostKey))
		if err != nil {
			return remote, fmt.Errorf("remote.host_key: %w", err)
		}
		remote.HostKey = hostKey
	}
	return remote, nil
}

func loadSigner(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	defer secret.Zero(data)
	return ssh.ParsePrivateKey(data)
}

func (s *stack) orchestrator(cfg *config.Config, logger *slog.Logger) (*chat.Orchestrator, error) {
	apiKey, err := secret.FromString(cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("llm.api_key: %w", err)
	}
	s.secrets = append(s.secrets, apiKey)

	var reactions *reaction.Bag
	if cfg.Reaction.Catalog != "" {
		catalog, err := reaction.LoadCatalog(cfg.Reaction.Catalog)
		if err != nil {
			return nil, fmt.Errorf("reaction.catalog: %w", err)
		}
		reactions = reaction.NewBag(catalog)
		logger.Info("reaction catalog loaded", "path", cfg.Reaction.Catalog, "emotions", catalog.Emotions())
	}

	return chat.New(chat.Config{
		Model: llm.NewOpenAI(llm.OpenAIConfig{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      apiKey,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Title:       appTitle,
		}),
		Runner:    s.bridge,
		Reactions: reactions,
		Logger:    logger,
	}), nil
}

// Close releases every credential the stack loaded.
func (s *stack) Close() error {
	var errs []error
	for _, buffer := range s.secrets {
		errs = append(errs, buffer.Close())
	}
	s.secrets = nil
	return errors.Join(errs...)
}
