package config

import "testing"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CORPUS_PATH", "REDIS_URL", "DATABASE_URL", "LICHESS_BASE_URL",
		"MAX_WORKERS", "OVERSAMPLE_FACTOR", "VERDICT_TTL", "DIAGRAM_SQUARE_SIZE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxWorkers != 4 || cfg.OversampleFactor != 3 || cfg.VerdictTTLSec != 86400 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DiagramSquareSize != 72 {
		t.Fatalf("square size default: %d", cfg.DiagramSquareSize)
	}
	if cfg.CorpusPath == "" || cfg.LichessBaseURL == "" {
		t.Fatalf("missing path defaults: %+v", cfg)
	}
	if cfg.RedisURL != "" || cfg.DatabaseURL != "" {
		t.Fatalf("URLs must default empty: %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORPUS_PATH", "/data/puzzles.csv")
	t.Setenv("MAX_WORKERS", "8")
	t.Setenv("OVERSAMPLE_FACTOR", "5")
	t.Setenv("VERDICT_TTL", "60")
	t.Setenv("DIAGRAM_SQUARE_SIZE", "96")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CorpusPath != "/data/puzzles.csv" {
		t.Fatalf("corpus path: %q", cfg.CorpusPath)
	}
	if cfg.MaxWorkers != 8 || cfg.OversampleFactor != 5 || cfg.VerdictTTLSec != 60 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.DiagramSquareSize != 96 {
		t.Fatalf("square size: %d", cfg.DiagramSquareSize)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct{ name, value string }{
		{"OVERSAMPLE_FACTOR", "0"},
		{"OVERSAMPLE_FACTOR", "-2"},
		{"OVERSAMPLE_FACTOR", "lots"},
		{"MAX_WORKERS", "0"},
		{"VERDICT_TTL", "never"},
		{"DIAGRAM_SQUARE_SIZE", "12"},
		{"DIAGRAM_SQUARE_SIZE", "huge"},
	}
	for _, tc := range cases {
		t.Run(tc.name+"="+tc.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.name, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected Load to reject %s=%q", tc.name, tc.value)
			}
		})
	}
}
