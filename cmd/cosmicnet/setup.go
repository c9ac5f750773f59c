package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thebreadishard/CosmicNetworkSim1/internal/config"
)

const defaultConfigPath = "config/cosmicnet.toml"

// loadConfig reads .env (if any), then the TOML file, then applies the
// COSMICNET_* environment overrides.
func loadConfig(path string) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = defaultConfigPath
		if p := os.Getenv("COSMICNET_CONFIG"); p != "" {
			path = p
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if dsn := os.Getenv("COSMICNET_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
		cfg.Database.Enabled = true
	}
	if addr := os.Getenv("COSMICNET_LISTEN"); addr != "" {
		cfg.Stream.BindAddress = addr
	}
	if lvl := os.Getenv("COSMICNET_LOG_LEVEL"); lvl != "" {
		cfg.Logging.Level = lvl
	}

	if cfg.Loop.TickRate <= 0 {
		return nil, fmt.Errorf("loop.tick_rate must be positive, got %s", cfg.Loop.TickRate)
	}
	return cfg, nil
}

// newLogger builds a console (colored, terse) or json logger. An empty
// level means info.
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("logging.level: %w", err)
		}
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.TimeKey = "ts"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "", "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("logging.format: unknown format %q", cfg.Format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// sanitize clamps the simulation section, logging every corrected field.
func sanitize(sc config.SimulationConfig, log *zap.Logger) config.SimulationConfig {
	clean, fixed := sc.Sanitize()
	warnClamped(log, fixed)
	return clean
}

// sanitizeGrid clamps the index cell-size factors the same way.
func sanitizeGrid(g config.GridConfig, log *zap.Logger) config.GridConfig {
	clean, fixed := g.Sanitize()
	warnClamped(log, fixed)
	return clean
}

func warnClamped(log *zap.Logger, fixed []config.FieldError) {
	for _, fe := range fixed {
		log.Warn("config value clamped", zap.String("field", fe.Field), zap.String("problem", fe.Problem))
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(table string, groups int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             CosmicNet  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mgalaxy table:\033[0m %s \033[90m(%d groups)\033[0m\n\n", table, groups)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, value any) {
	valStr := fmt.Sprint(value)
	dotsLen := 42 - len(label) - len(valStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), valStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}
