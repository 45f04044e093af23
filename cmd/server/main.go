package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gemini-mcp-server/internal/clarifai"
	"gemini-mcp-server/internal/config"
	"gemini-mcp-server/internal/gemini"
	"gemini-mcp-server/internal/imagegen"
	"gemini-mcp-server/internal/mcp"
	"gemini-mcp-server/internal/tools"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not configured yet
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol, so all diagnostics go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	generator, closeGenerator, err := newGenerator(cfg, logger)
	if err != nil {
		return err
	}
	defer closeGenerator()

	server := mcp.NewServer(mcp.ServerName, mcp.ServerVersion, logger)
	if err := tools.NewHandler(generator, cfg, logger).Register(server.SDK()); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting Gemini MCP Image Generation Server...", "backend", generator.Name(), "output_dir", cfg.OutputDir)
	return server.ServeStdio(ctx)
}

// newGenerator builds the configured backend. The returned func releases any
// connection the backend holds.
func newGenerator(cfg *config.Config, logger *slog.Logger) (imagegen.Generator, func(), error) {
	switch cfg.Backend {
	case config.BackendClarifai:
		client, err := clarifai.NewClient(cfg.GrpcAddr)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			if err := client.Close(); err != nil {
				slog.Error("Error closing Clarifai client connection", "error", err)
			}
		}
		return clarifai.NewGenerator(client, cfg.Pat, logger), closeClient, nil
	default:
		if cfg.APIKey == "" {
			slog.Warn("GEMINI_API_KEY is not set; generate_image calls will fail until it is provided")
		}
		return gemini.NewGenerator(cfg.APIKey, cfg.Model, gemini.WithLogger(logger)), func() {}, nil
	}
}
