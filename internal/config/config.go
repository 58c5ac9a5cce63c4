// Package config reads server settings from flags with environment
// fallbacks.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

type Config struct {
	Addr              string
	Origins           []string
	DataDir           string
	InMemory          bool
	SearchTimeout     time.Duration
	ThinkScale        float64
	EngineWorkers     int
	PseudoLegalSearch bool
	LogLevel          log.Level
}

var levels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Load parses args (without the program name). Flags take precedence
// over PERCATUR_* environment variables.
func Load(args []string) (Config, error) {
	var errs []error
	fs := flag.NewFlagSet("percaturan", flag.ContinueOnError)

	addr := fs.String("addr", getenv("PERCATUR_ADDR", ":3000"), "listen address")
	origins := fs.String("origins", getenv("PERCATUR_ORIGINS", "http://localhost:5173"), "comma-separated allowed origins")
	dataDir := fs.String("data-dir", getenv("PERCATUR_DATA_DIR", "./data"), "directory for the stats database")
	inMemory := fs.Bool("in-memory", getenvBool("PERCATUR_IN_MEMORY", false, &errs), "keep stats in memory only")
	timeout := fs.Duration("search-timeout", getenvDuration("PERCATUR_SEARCH_TIMEOUT", 30*time.Second, &errs), "time after which an engine search is abandoned")
	scale := fs.Float64("think-scale", getenvFloat("PERCATUR_THINK_SCALE", 1, &errs), "multiplier for the engine's minimum thinking time (0 disables it)")
	workers := fs.Int("engine-workers", getenvInt("PERCATUR_ENGINE_WORKERS", runtime.NumCPU(), &errs), "goroutines per engine search")
	pseudoLegal := fs.Bool("pseudo-legal-search", getenvBool("PERCATUR_PSEUDO_LEGAL_SEARCH", false, &errs), "search pseudo-legal instead of legal moves")
	level := fs.String("log-level", getenv("PERCATUR_LOG_LEVEL", "info"), "trace, debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	cfg := Config{
		Addr:          *addr,
		Origins:       splitList(*origins),
		DataDir:       *dataDir,
		InMemory:      *inMemory,
		SearchTimeout: *timeout,
		ThinkScale:    *scale,
		EngineWorkers: *workers,

		PseudoLegalSearch: *pseudoLegal,
	}
	lvl, ok := levels[strings.ToLower(*level)]
	if !ok {
		return Config{}, fmt.Errorf("invalid log level %q", *level)
	}
	cfg.LogLevel = lvl
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if len(c.Origins) == 0 {
		errs = append(errs, errors.New("no allowed origins"))
	}
	if !c.InMemory && c.DataDir == "" {
		errs = append(errs, errors.New("data dir is empty"))
	}
	if c.SearchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("search timeout must be positive, got %s", c.SearchTimeout))
	}
	if c.ThinkScale < 0 {
		errs = append(errs, fmt.Errorf("think scale must not be negative, got %g", c.ThinkScale))
	}
	if c.EngineWorkers < 1 {
		errs = append(errs, fmt.Errorf("engine workers must be at least 1, got %d", c.EngineWorkers))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func getenvInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func getenvFloat(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func getenvDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
