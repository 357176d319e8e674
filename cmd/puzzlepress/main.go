package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tsalo/puzzlepress/internal/board"
	"github.com/tsalo/puzzlepress/internal/cache"
	appcfg "github.com/tsalo/puzzlepress/internal/config"
	"github.com/tsalo/puzzlepress/internal/corpus"
	"github.com/tsalo/puzzlepress/internal/diagram"
	"github.com/tsalo/puzzlepress/internal/extract"
	"github.com/tsalo/puzzlepress/internal/latex"
	"github.com/tsalo/puzzlepress/internal/lichess"
	"github.com/tsalo/puzzlepress/internal/obslog"
	"github.com/tsalo/puzzlepress/internal/themes"
)

func main() {
	var (
		count       = flag.Int("n", 12, "number of puzzles")
		mateIn      = flag.Int("m", 0, "require forced mate in exactly N moves")
		themeList   = flag.String("themes", "", "comma-separated tactical themes")
		plyList     = flag.String("ply", "", "comma-separated solution ply counts")
		mixRatio    = flag.String("mix", "", "tactical:mate percentage split, e.g. 70:30 (requires -themes)")
		mateValues  = flag.String("mate-values", "1,2", "mate depths allowed in the mate share of a mix")
		output      = flag.String("o", "puzzles.tex", "output .tex path")
		title       = flag.String("t", "", "worksheet title")
		corpusPath  = flag.String("f", "", "corpus CSV path (overrides CORPUS_PATH)")
		minRating   = flag.Int("r1", 0, "minimum rating")
		maxRating   = flag.Int("r2", 0, "maximum rating, 0 = unbounded")
		seed        = flag.Int64("seed", 0, "sampling seed, 0 = time-based")
		progressive = flag.Bool("progressive", false, "order puzzles easiest to hardest")
		showRating  = flag.Bool("show-rating", false, "print ratings under each diagram")
		diagramsDir = flag.String("diagrams", "", "also render PNG diagrams into this directory")
		sourceKind  = flag.String("source", "csv", "record source: csv, postgres, or lichess")
	)
	flag.Parse()

	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()
	logger := obslog.L()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	catalog, err := themes.New(strings.TrimSpace(os.Getenv("THEMES_DIR")))
	if err != nil {
		log.Fatalf("theme catalog error: %v", err)
	}

	req := extract.Request{
		Count:       *count,
		MateIn:      *mateIn,
		MinRating:   *minRating,
		MaxRating:   *maxRating,
		Seed:        *seed,
		Progressive: *progressive,
		Oversample:  cfg.OversampleFactor,
	}

	if *themeList != "" {
		names, err := catalog.ValidateList(*themeList)
		if err != nil {
			log.Fatalf("theme error: %v", err)
		}
		req.Themes = names
		logger.Info("themes selected", zap.String("themes", catalog.FormatList(names)))
	}
	if *plyList != "" {
		plies, err := parseInts(*plyList)
		if err != nil {
			log.Fatalf("ply list error: %v", err)
		}
		req.PlyCounts = plies
	}
	if *mixRatio != "" {
		if len(req.Themes) == 0 {
			log.Fatalf("-mix requires -themes")
		}
		tactical, _, err := themes.ParseMixRatio(*mixRatio)
		if err != nil {
			log.Fatalf("mix ratio error: %v", err)
		}
		req.MixTactical = tactical
		values, err := parseInts(*mateValues)
		if err != nil {
			log.Fatalf("mate values error: %v", err)
		}
		req.MateValues = values
	}
	if req.MateIn == 0 && len(req.Themes) == 0 && len(req.PlyCounts) == 0 {
		log.Fatalf("nothing to select: pass -m, -themes, or -ply")
	}

	if *corpusPath != "" {
		cfg.CorpusPath = *corpusPath
	}
	source, closeSource, err := buildSource(cfg, *sourceKind)
	if err != nil {
		log.Fatalf("source init error: %v", err)
	}
	defer closeSource()

	opts := []extract.Option{
		extract.WithWorkers(cfg.MaxWorkers),
		extract.WithLogger(logger),
	}
	if cfg.RedisURL != "" {
		verdicts, err := cache.New(cfg.RedisURL, time.Duration(cfg.VerdictTTLSec)*time.Second)
		if err != nil {
			log.Fatalf("verdict cache init error: %v", err)
		}
		defer verdicts.Close()
		opts = append(opts, extract.WithVerdictCache(verdicts))
	}
	svc := extract.New(source, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := svc.Run(ctx, req)
	if err != nil {
		logger.Error("extraction failed", zap.Error(err))
		os.Exit(1)
	}
	if len(res.Puzzles) == 0 {
		logger.Error("no puzzles matched the request")
		os.Exit(1)
	}

	texOpts := latex.Options{
		Title:         *title,
		MateIn:        *mateIn,
		ShowRating:    *showRating,
		ShowMateDepth: req.MixTactical > 0 || *mateIn > 0,
		Progressive:   *progressive,
		RunID:         res.RunID,
	}
	if err := latex.WriteFile(*output, res.Puzzles, texOpts); err != nil {
		logger.Error("write worksheet failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("worksheet written",
		zap.String("path", *output),
		zap.Int("requested", res.Requested),
		zap.Int("found", len(res.Puzzles)),
		zap.String("run_id", res.RunID))

	if *diagramsDir != "" {
		if err := renderDiagrams(ctx, *diagramsDir, res, cfg.DiagramSquareSize); err != nil {
			logger.Error("render diagrams failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("diagrams written", zap.String("dir", *diagramsDir), zap.Int("count", len(res.Puzzles)))
	}
}

func buildSource(cfg *appcfg.AppConfig, kind string) (corpus.Source, func(), error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "csv":
		src, err := corpus.NewCSVSource(cfg.CorpusPath)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	case "postgres":
		src, err := corpus.NewPGSource(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	case "lichess":
		return lichess.NewClient(cfg.LichessBaseURL), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q", kind)
	}
}

func renderDiagrams(ctx context.Context, dir string, res *extract.Result, squareSize int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, p := range res.Puzzles {
		pos, err := board.FromFEN(p.PresentedFEN)
		if err != nil {
			return fmt.Errorf("puzzle %s: %w", p.ID, err)
		}
		caption := fmt.Sprintf("Puzzle %d", i+1)
		if p.WhiteToMove() {
			caption += " (White to move)"
		} else {
			caption += " (Black to move)"
		}
		data, err := diagram.RenderPNG(ctx, pos.Board(), diagram.Options{
			SquareSize: squareSize,
			Caption:    caption,
			Coords:     true,
			Flip:       !p.WhiteToMove(),
		})
		if err != nil {
			return fmt.Errorf("puzzle %s: %w", p.ID, err)
		}
		name := filepath.Join(dir, fmt.Sprintf("puzzle_%02d_%s.png", i+1, p.ID))
		if err := os.WriteFile(name, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func parseInts(list string) ([]int, error) {
	parts := strings.Split(list, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad value %q", p)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}
