package extract

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/tsalo/puzzlepress/internal/cache"
	"github.com/tsalo/puzzlepress/internal/corpus"
	"github.com/tsalo/puzzlepress/internal/domain"
)

type memSource struct {
	recs []domain.PuzzleRecord
}

func (m memSource) Fetch(_ context.Context, f corpus.Filter, limit int) ([]domain.PuzzleRecord, error) {
	var out []domain.PuzzleRecord
	for _, r := range m.recs {
		if !f.Matches(r) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func testRecords() []domain.PuzzleRecord {
	return []domain.PuzzleRecord{
		{
			ID:     "scholars",
			FEN:    "r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 3 3",
			Moves:  []string{"g8f6", "h5f7"},
			Rating: 800,
			Themes: []string{"mate", "mateIn1", "opening"},
		},
		{
			ID:     "backrank",
			FEN:    "6k1/5ppp/8/8/8/8/8/R5K1 b - - 0 1",
			Moves:  []string{"g8h8", "a1a8"},
			Rating: 900,
			Themes: []string{"mate", "mateIn1", "backRankMate"},
		},
		{
			// Tagged mateIn1 but the solution does not mate; replay must
			// reject it.
			ID:     "liar",
			FEN:    "3k4/8/8/8/8/8/8/RR4K1 b - - 0 1",
			Moves:  []string{"d8e8", "a1a7"},
			Rating: 1000,
			Themes: []string{"mate", "mateIn1"},
		},
		{
			ID:     "fork-ish",
			FEN:    "3k4/8/8/8/8/8/8/RR4K1 b - - 0 1",
			Moves:  []string{"d8e8", "a1a7"},
			Rating: 1100,
			Themes: []string{"fork", "endgame"},
		},
	}
}

func TestRun_MateValidatesAndEnriches(t *testing.T) {
	s := New(memSource{recs: testRecords()})
	res, err := s.Run(context.Background(), Request{Count: 2, MateIn: 1, Seed: 42})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == "" {
		t.Fatalf("missing run id")
	}
	if len(res.Puzzles) != 2 {
		t.Fatalf("expected 2 puzzles, got %d", len(res.Puzzles))
	}
	for _, p := range res.Puzzles {
		if p.ID == "liar" {
			t.Fatalf("tag-only record slipped through replay")
		}
		if p.MateDepth != 1 {
			t.Fatalf("puzzle %s: mate depth %d", p.ID, p.MateDepth)
		}
		if len(p.SolutionSAN) == 0 || !strings.HasSuffix(p.SolutionSAN[len(p.SolutionSAN)-1], "#") {
			t.Fatalf("puzzle %s: SAN not enriched: %v", p.ID, p.SolutionSAN)
		}
	}
}

func TestRun_ShortfallIsNotAnError(t *testing.T) {
	s := New(memSource{recs: testRecords()})
	res, err := s.Run(context.Background(), Request{Count: 5, MateIn: 1, Seed: 1})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Puzzles) != 2 || res.Requested != 5 {
		t.Fatalf("expected a reported shortfall of 2/5, got %d/%d", len(res.Puzzles), res.Requested)
	}
}

func TestRun_MixedSetHonorsRatio(t *testing.T) {
	s := New(memSource{recs: testRecords()})
	res, err := s.Run(context.Background(), Request{
		Count:       2,
		MixTactical: 50,
		Themes:      []string{"fork"},
		MateValues:  []int{1},
		Seed:        7,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Puzzles) != 2 {
		t.Fatalf("expected 2 puzzles, got %d", len(res.Puzzles))
	}
	var tactical, mate int
	for _, p := range res.Puzzles {
		if p.MateDepth > 0 {
			mate++
		} else {
			tactical++
		}
	}
	if tactical != 1 || mate != 1 {
		t.Fatalf("expected a 1/1 split, got tactical=%d mate=%d", tactical, mate)
	}
}

func TestRun_SeedIsDeterministic(t *testing.T) {
	s := New(memSource{recs: testRecords()})
	req := Request{Count: 2, MateIn: 1, Seed: 99}

	a, err := s.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	b, err := s.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(a.Puzzles) != len(b.Puzzles) {
		t.Fatalf("runs differ in size")
	}
	for i := range a.Puzzles {
		if a.Puzzles[i].ID != b.Puzzles[i].ID {
			t.Fatalf("seeded runs differ at %d: %s vs %s", i, a.Puzzles[i].ID, b.Puzzles[i].ID)
		}
	}
}

func TestRun_InvalidCount(t *testing.T) {
	s := New(memSource{recs: testRecords()})
	if _, err := s.Run(context.Background(), Request{Count: 0, MateIn: 1}); err == nil {
		t.Fatalf("expected error for zero count")
	}
}

func TestRun_SharedIDRecordsValidatedSeparately(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	v, err := cache.New(fmt.Sprintf("redis://%s/0", mr.Addr()), time.Minute)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	defer v.Close()

	// Two corpus rows reuse one ID with different positions. Each must
	// get its own replay and verdict; neither may hit the other's cache
	// entry.
	recs := []domain.PuzzleRecord{
		{
			ID:     "dup",
			FEN:    "6k1/5ppp/8/8/8/8/8/R5K1 b - - 0 1",
			Moves:  []string{"g8h8", "a1a8"},
			Rating: 900,
			Themes: []string{"mate", "mateIn1"},
		},
		{
			ID:     "dup",
			FEN:    "r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 3 3",
			Moves:  []string{"g8f6", "h5f7"},
			Rating: 800,
			Themes: []string{"mate", "mateIn1"},
		},
	}

	s := New(memSource{recs: recs}, WithVerdictCache(v))
	res, err := s.Run(context.Background(), Request{Count: 2, MateIn: 1, Seed: 3})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Puzzles) != 2 {
		t.Fatalf("expected both variants to survive, got %d", len(res.Puzzles))
	}
	if res.Puzzles[0].PresentedFEN == res.Puzzles[1].PresentedFEN {
		t.Fatalf("variants collapsed onto one position: %s", res.Puzzles[0].PresentedFEN)
	}

	var verdicts int
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "pzl:verdict:mate1:") {
			verdicts++
		}
	}
	if verdicts != 2 {
		t.Fatalf("expected 2 cached verdicts, got %d (keys: %v)", verdicts, mr.Keys())
	}
}

func TestRun_VerdictCachePopulated(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	v, err := cache.New(fmt.Sprintf("redis://%s/0", mr.Addr()), time.Minute)
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	defer v.Close()

	s := New(memSource{recs: testRecords()}, WithVerdictCache(v))
	if _, err := s.Run(context.Background(), Request{Count: 2, MateIn: 1, Seed: 42}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var verdicts int
	for _, k := range mr.Keys() {
		if strings.HasPrefix(k, "pzl:verdict:mate1:") {
			verdicts++
		}
	}
	if verdicts != 2 {
		t.Fatalf("expected 2 cached verdicts, got %d (keys: %v)", verdicts, mr.Keys())
	}
}
