package corpus

import (
	"context"
	"fmt"

	"github.com/tsalo/puzzlepress/internal/domain"
)

// Filter narrows the raw records a source hands out. It is a cheap
// metadata pre-filter; the validator remains the ground truth.
type Filter struct {
	MateIn     int   // require the mateIn{n} tag when > 0
	MateValues []int // mixed sets: any of these mate depths qualifies
	Themes     []string
	PlyCounts  []int
	MinRating  int
	MaxRating  int // <= 0 means unbounded
}

// Source supplies candidate records. Fetch returns at most limit records
// matching the filter, in corpus order.
type Source interface {
	Fetch(ctx context.Context, f Filter, limit int) ([]domain.PuzzleRecord, error)
}

// Matches reports whether rec passes the metadata pre-filter.
func (f Filter) Matches(rec domain.PuzzleRecord) bool {
	if rec.Rating < f.MinRating {
		return false
	}
	if f.MaxRating > 0 && rec.Rating > f.MaxRating {
		return false
	}
	if f.MateIn > 0 && !rec.HasTheme(fmt.Sprintf("mateIn%d", f.MateIn)) {
		return false
	}
	if len(f.PlyCounts) > 0 {
		// The first recorded move is the setup move, not part of the
		// solution.
		ply := len(rec.Moves) - 1
		ok := false
		for _, p := range f.PlyCounts {
			if ply == p {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.Themes) > 0 || len(f.MateValues) > 0 {
		ok := false
		for _, t := range f.Themes {
			if rec.HasTheme(t) {
				ok = true
				break
			}
		}
		if !ok {
			for _, m := range f.MateValues {
				if rec.HasTheme(fmt.Sprintf("mateIn%d", m)) {
					ok = true
					break
				}
			}
		}
		if !ok {
			return false
		}
	}
	return true
}
