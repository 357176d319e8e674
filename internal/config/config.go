package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	CorpusPath  string
	RedisURL    string
	DatabaseURL string

	LichessBaseURL string

	MaxWorkers       int
	OversampleFactor int
	VerdictTTLSec    int

	DiagramSquareSize int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		CorpusPath:        "puzzles/lichess_db_puzzle.csv",
		LichessBaseURL:    "https://lichess.org/api",
		MaxWorkers:        4,
		OversampleFactor:  3,
		VerdictTTLSec:     86400,
		DiagramSquareSize: 72,
	}

	if v := strings.TrimSpace(os.Getenv("CORPUS_PATH")); v != "" {
		cfg.CorpusPath = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if v := strings.TrimSpace(os.Getenv("LICHESS_BASE_URL")); v != "" {
		cfg.LichessBaseURL = v
	}

	var err error
	if cfg.MaxWorkers, err = positiveEnv("MAX_WORKERS", cfg.MaxWorkers); err != nil {
		return nil, err
	}
	if cfg.OversampleFactor, err = positiveEnv("OVERSAMPLE_FACTOR", cfg.OversampleFactor); err != nil {
		return nil, err
	}
	if cfg.VerdictTTLSec, err = positiveEnv("VERDICT_TTL", cfg.VerdictTTLSec); err != nil { // seconds
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv("DIAGRAM_SQUARE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 24 || n > 256 {
			return nil, fmt.Errorf("DIAGRAM_SQUARE_SIZE must be 24..256, got %q", v)
		}
		cfg.DiagramSquareSize = n
	}

	return cfg, nil
}

// positiveEnv reads an integer env var. An unset or blank var keeps the
// default; anything set must parse to a positive integer.
func positiveEnv(name string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}
