package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Supported image generation backends.
const (
	BackendGemini   = "gemini"
	BackendClarifai = "clarifai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash-exp-image-generation"

// Config holds the application configuration.
type Config struct {
	APIKey       string     // Gemini API key
	OutputDir    string     // Directory generated images are written to
	Model        string     // Gemini model identifier
	Backend      string     // gemini or clarifai
	LogLevel     slog.Level // Parsed from logLevelStr
	TimeoutSec   int        // Upstream call timeout in seconds, 0 disables it
	ErrorLogPath string     // Optional: append failed invocations to this file
	Pat          string     // Clarifai Personal Access Token (clarifai backend only)
	GrpcAddr     string     // Clarifai gRPC API address (clarifai backend only)
	logLevelStr  string     // Temporary storage for the flag string
}

// ErrUnknownBackend indicates the -backend flag named an unsupported backend.
var ErrUnknownBackend = errors.New("unknown image backend")

// ErrNegativeTimeout indicates a negative -timeout value.
var ErrNegativeTimeout = errors.New("timeout must not be negative")

// LoadConfig loads configuration from command-line flags, falling back to
// environment variables for every flag that is not set explicitly.
// A missing GEMINI_API_KEY is not an error here; it surfaces when the tool runs.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// ContinueOnError keeps flag parsing from calling os.Exit.
	fs := flag.NewFlagSet("gemini-mcp-server", flag.ContinueOnError)

	fs.StringVar(&cfg.APIKey, "api-key", os.Getenv("GEMINI_API_KEY"), "Gemini API key (env GEMINI_API_KEY)")
	fs.StringVar(&cfg.OutputDir, "output-dir", os.Getenv("OUTPUT_DIR"), "Directory to save generated images (env OUTPUT_DIR, defaults to <tmp>/gemini-mcp)")
	fs.StringVar(&cfg.Model, "model", envOr("GEMINI_MODEL", DefaultModel), "Gemini model identifier (env GEMINI_MODEL)")
	fs.StringVar(&cfg.Backend, "backend", envOr("IMAGE_BACKEND", BackendGemini), "Image backend: gemini or clarifai (env IMAGE_BACKEND)")
	fs.StringVar(&cfg.logLevelStr, "log-level", envOr("LOG_LEVEL", "INFO"), "Logging level (DEBUG, INFO, WARN, ERROR)")
	fs.IntVar(&cfg.TimeoutSec, "timeout", envInt("GENERATION_TIMEOUT", 0), "Upstream call timeout in seconds, 0 for none (env GENERATION_TIMEOUT)")
	fs.StringVar(&cfg.ErrorLogPath, "error-log", os.Getenv("ERROR_LOG_FILE"), "Append failed generations to this file (env ERROR_LOG_FILE)")
	fs.StringVar(&cfg.Pat, "pat", os.Getenv("CLARIFAI_PAT"), "Clarifai Personal Access Token (env CLARIFAI_PAT)")
	fs.StringVar(&cfg.GrpcAddr, "grpc-addr", envOr("CLARIFAI_GRPC_ADDR", "api.clarifai.com:443"), "Clarifai gRPC API address (env CLARIFAI_GRPC_ADDR)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	cfg.LogLevel = parseLogLevel(cfg.logLevelStr)

	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(os.TempDir(), "gemini-mcp")
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	switch cfg.Backend {
	case BackendGemini, BackendClarifai:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}

	if cfg.TimeoutSec < 0 {
		return nil, ErrNegativeTimeout
	}

	return cfg, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo // invalid values fall back to INFO
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt ignores values that do not parse as integers.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}
