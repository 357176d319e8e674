package extract

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tsalo/puzzlepress/internal/cache"
	"github.com/tsalo/puzzlepress/internal/corpus"
	"github.com/tsalo/puzzlepress/internal/domain"
	"github.com/tsalo/puzzlepress/internal/notation"
	"github.com/tsalo/puzzlepress/internal/selection"
	"github.com/tsalo/puzzlepress/internal/validate"
)

// Request describes one extraction run. Exactly one of MateIn, Themes,
// PlyCounts, or a mixed set (MixTactical with Themes and MateValues)
// drives the validation criterion.
type Request struct {
	Count       int
	MateIn      int
	Themes      []string
	PlyCounts   []int
	MixTactical int   // tactical percentage of a mixed set; 0 means not mixed
	MateValues  []int // mate depths allowed in the mate share of a mixed set
	MinRating   int
	MaxRating   int
	Seed        int64 // 0 means time-seeded
	Progressive bool
	Oversample  int // candidate fetch multiplier, defaults to 3
}

// Result is the outcome of a run. Found can fall short of Requested when
// the corpus cannot cover the request; that is reported, not an error.
type Result struct {
	RunID     string
	Requested int
	Puzzles   []domain.ValidatedPuzzle
}

// Service wires a record source, the validator, an optional verdict
// cache, and the selector into one extraction pipeline.
type Service struct {
	source    corpus.Source
	validator *validate.Validator
	verdicts  *cache.Verdicts
	workers   int
	logger    *zap.Logger
}

type Option func(*Service)

// WithVerdictCache attaches a Redis-backed verdict cache. A nil cache is
// allowed and means every record is replayed.
func WithVerdictCache(v *cache.Verdicts) Option {
	return func(s *Service) { s.verdicts = v }
}

func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(source corpus.Source, opts ...Option) *Service {
	s := &Service{
		source:  source,
		workers: 4,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = validate.New(s.logger)
	return s
}

// Run executes the pipeline: fetch candidates, validate them in
// parallel, enrich accepted puzzles with SAN, then select down to the
// requested count.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if s == nil || s.source == nil {
		return nil, fmt.Errorf("extract service not initialized")
	}
	if req.Count <= 0 {
		return nil, fmt.Errorf("puzzle count must be positive, got %d", req.Count)
	}

	runID := uuid.NewString()
	log := s.logger.With(zap.String("run_id", runID))

	oversample := req.Oversample
	if oversample <= 0 {
		oversample = 3
	}

	filter := corpus.Filter{
		MateIn:    req.MateIn,
		Themes:    req.Themes,
		PlyCounts: req.PlyCounts,
		MinRating: req.MinRating,
		MaxRating: req.MaxRating,
	}
	if req.MixTactical > 0 {
		filter.MateIn = 0
		filter.MateValues = req.MateValues
	}

	records, err := s.source.Fetch(ctx, filter, req.Count*oversample)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	log.Info("candidates fetched",
		zap.Int("records", len(records)),
		zap.Int("requested", req.Count))

	accepted, err := s.validateAll(ctx, records, req)
	if err != nil {
		return nil, err
	}
	log.Info("validation finished",
		zap.Int("accepted", len(accepted)),
		zap.Int("rejected", len(records)-len(accepted)))

	constraints := selection.Constraints{
		TargetCount: req.Count,
		MinRating:   req.MinRating,
		MaxRating:   req.MaxRating,
		Groups:      s.groupsFor(req),
		Progressive: req.Progressive,
	}
	var rng *rand.Rand
	if req.Seed != 0 {
		rng = rand.New(rand.NewSource(req.Seed))
	}
	selected, err := selection.Select(rng, accepted, constraints)
	if err != nil {
		return nil, err
	}
	if len(selected) < req.Count {
		log.Warn("request not fully covered",
			zap.Int("requested", req.Count),
			zap.Int("found", len(selected)))
	}

	return &Result{RunID: runID, Requested: req.Count, Puzzles: selected}, nil
}

// validateAll replays records on a worker pool. Results land in an
// index-addressed slice so output order matches input order regardless
// of scheduling.
func (s *Service) validateAll(ctx context.Context, records []domain.PuzzleRecord, req Request) ([]domain.ValidatedPuzzle, error) {
	results := make([]*domain.ValidatedPuzzle, len(records))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.validateOne(ctx, records[i], req)
			}
		}()
	}

	for i := range records {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	accepted := make([]domain.ValidatedPuzzle, 0, len(records))
	for _, p := range results {
		if p != nil {
			accepted = append(accepted, *p)
		}
	}
	return accepted, nil
}

func (s *Service) validateOne(ctx context.Context, rec domain.PuzzleRecord, req Request) *domain.ValidatedPuzzle {
	c := s.criterionFor(rec, req)

	// Cache by record content, not bare ID: an ID reused with a
	// different position must be replayed on its own.
	fp := rec.Fingerprint()
	if hit, err := s.verdicts.Get(ctx, c.Key(), fp); err != nil {
		s.logger.Debug("verdict cache get failed", zap.String("puzzle", rec.ID), zap.Error(err))
	} else if hit != nil {
		return hit
	}

	p := s.validator.Validate(rec, c)
	if p == nil {
		return nil
	}
	enriched := notation.Enrich(p)
	if enriched == nil {
		return nil
	}
	if err := s.verdicts.Put(ctx, c.Key(), fp, *enriched); err != nil {
		s.logger.Debug("verdict cache put failed", zap.String("puzzle", rec.ID), zap.Error(err))
	}
	return enriched
}

// criterionFor picks the correctness class for one record. In a mixed
// set the record's own tags decide: mate-tagged records get the strict
// replay, everything else the theme check.
func (s *Service) criterionFor(rec domain.PuzzleRecord, req Request) validate.Criterion {
	switch {
	case req.MixTactical > 0:
		for _, n := range req.MateValues {
			if rec.HasTheme(fmt.Sprintf("mateIn%d", n)) {
				return validate.MateInExactly(n)
			}
		}
		return validate.ThemeIn(req.Themes...)
	case req.MateIn > 0:
		return validate.MateInExactly(req.MateIn)
	case len(req.Themes) > 0:
		return validate.ThemeIn(req.Themes...)
	case len(req.PlyCounts) > 0:
		return validate.PlyCountIn(req.PlyCounts...)
	default:
		return validate.Any()
	}
}

// groupsFor returns the ratio groups for a mixed set, tactical first so
// the mate group absorbs the rounding remainder.
func (s *Service) groupsFor(req Request) []selection.Group {
	if req.MixTactical <= 0 {
		return nil
	}
	return []selection.Group{
		{
			Label:   "tactical",
			Percent: req.MixTactical,
			Matches: func(p domain.ValidatedPuzzle) bool { return p.MateDepth == 0 },
		},
		{
			Label:   "mate",
			Percent: 100 - req.MixTactical,
			Matches: func(p domain.ValidatedPuzzle) bool { return p.MateDepth > 0 },
		},
	}
}
