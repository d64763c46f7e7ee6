// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/sleepyleo/intern/cmd/intern/cli"
	"github.com/sleepyleo/intern/lib/config"
	"github.com/sleepyleo/intern/lib/service"
	"github.com/sleepyleo/intern/lib/version"
)

type serveParams struct {
	cli.LogFlags
	configFlags
}

func serveCommand() *cli.Command {
	var params serveParams
	return &cli.Command{
		Name:    "serve",
		Summary: "Serve the HTTP API and the control socket",
		Description: `Serve the JSON API (POST /api/exec, POST /api/chat, GET /api/health,
GET /api/gif) on api.http_listen and the CBOR control socket used by
"intern exec", "intern chat" and "intern health" on api.socket_path.

The API has no authentication. Keep api.http_listen on loopback or put
it behind an authenticating proxy.`,
		Usage: "intern serve [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("serve", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			logger, err := params.NewLogger(os.Stderr)
			if err != nil {
				return err
			}
			cfg, err := params.load()
			if err != nil {
				return err
			}
			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.API.HTTPListen == "" && cfg.API.SocketPath == "" {
		return fmt.Errorf("nothing to serve: set api.http_listen or api.socket_path")
	}

	s, err := buildStack(cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 2)
	running := 0

	if cfg.API.HTTPListen != "" {
		httpServer := service.NewHTTPServer(service.HTTPServerConfig{
			Address: cfg.API.HTTPListen,
			Handler: s.handler.Routes(),
			Logger:  logger,
		})
		running++
		go func() {
			if err := httpServer.Serve(ctx); err != nil {
				done <- fmt.Errorf("http api: %w", err)
				return
			}
			done <- nil
		}()
		go func() {
			select {
			case <-httpServer.Ready():
				logger.Info("http api listening", "address", httpServer.Addr().String())
			case <-ctx.Done():
			}
		}()
	}

	if cfg.API.SocketPath != "" {
		socketServer := service.NewSocketServer(cfg.API.SocketPath, logger,
			service.WithMaxConcurrent(cfg.API.MaxConcurrent))
		s.handler.RegisterActions(socketServer)
		running++
		go func() {
			if err := socketServer.Serve(ctx); err != nil {
				done <- fmt.Errorf("control socket: %w", err)
				return
			}
			done <- nil
		}()
	}

	logger.Info("intern running",
		"version", version.Info(),
		"remote_host", cfg.Remote.Host,
		"remote_user", cfg.Remote.User,
		"socket", cfg.API.SocketPath,
	)

	// The first listener to fail stops the other.
	var firstErr error
	for range running {
		if err := <-done; err != nil && firstErr == nil {
			firstErr = err
			cancel()
		}
	}
	logger.Info("intern stopped")
	return firstErr
}
