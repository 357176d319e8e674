package selection

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/tsalo/puzzlepress/internal/domain"
)

var ErrInvalidConstraint = errors.New("invalid selection constraint")

// Group is one criterion bucket in a ratio-based selection, e.g.
// {"tactical", 70} + {"mate", 30}. A candidate matching several groups
// is assigned to the first match in caller order; that rule is fixed and
// deterministic, not true multi-membership.
type Group struct {
	Label   string
	Percent int
	Matches func(domain.ValidatedPuzzle) bool
}

type Constraints struct {
	TargetCount int
	MinRating   int
	MaxRating   int // <= 0 means unbounded
	Groups      []Group
	Progressive bool
}

func (c Constraints) validate() error {
	if c.TargetCount < 0 {
		return fmt.Errorf("%w: target count %d", ErrInvalidConstraint, c.TargetCount)
	}
	if c.MaxRating > 0 && c.MinRating > c.MaxRating {
		return fmt.Errorf("%w: rating range %d-%d", ErrInvalidConstraint, c.MinRating, c.MaxRating)
	}
	if len(c.Groups) == 0 {
		return nil
	}
	sum := 0
	seen := make(map[string]struct{}, len(c.Groups))
	for _, g := range c.Groups {
		if g.Label == "" || g.Matches == nil {
			return fmt.Errorf("%w: group %q incomplete", ErrInvalidConstraint, g.Label)
		}
		if _, dup := seen[g.Label]; dup {
			return fmt.Errorf("%w: duplicate group %q", ErrInvalidConstraint, g.Label)
		}
		seen[g.Label] = struct{}{}
		if g.Percent < 0 || g.Percent > 100 {
			return fmt.Errorf("%w: group %q percent %d", ErrInvalidConstraint, g.Label, g.Percent)
		}
		sum += g.Percent
	}
	if sum != 100 {
		return fmt.Errorf("%w: group percentages sum to %d, want 100", ErrInvalidConstraint, sum)
	}
	return nil
}

// Select filters candidates by rating, deduplicates them keeping the
// first occurrence in input order, and samples down to the target count,
// honoring group ratios when given. rng drives the sampling; pass a
// seeded source for reproducible output, or nil for a time-based seed.
// Fewer results than TargetCount is not an error; the caller reads the
// shortfall off the returned length.
func Select(rng *rand.Rand, candidates []domain.ValidatedPuzzle, c Constraints) ([]domain.ValidatedPuzzle, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	pool := dedupe(filterRating(candidates, c.MinRating, c.MaxRating))

	var out []domain.ValidatedPuzzle
	if len(c.Groups) == 0 {
		out = sample(rng, pool, c.TargetCount)
	} else {
		buckets := make([][]domain.ValidatedPuzzle, len(c.Groups))
		for _, p := range pool {
			for gi, g := range c.Groups {
				if g.Matches(p) {
					buckets[gi] = append(buckets[gi], p)
					break
				}
			}
		}
		assigned := 0
		for gi, g := range c.Groups {
			want := c.TargetCount * g.Percent / 100
			if gi == len(c.Groups)-1 {
				// The last group absorbs the rounding remainder so the
				// subcounts sum exactly to the target.
				want = c.TargetCount - assigned
			}
			assigned += want
			out = append(out, sample(rng, buckets[gi], want)...)
		}
	}

	if c.Progressive {
		// Stable so equal ratings preserve the sampling order.
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating < out[j].Rating })
	}
	return out, nil
}

func filterRating(in []domain.ValidatedPuzzle, min, max int) []domain.ValidatedPuzzle {
	out := make([]domain.ValidatedPuzzle, 0, len(in))
	for _, p := range in {
		if p.Rating < min {
			continue
		}
		if max > 0 && p.Rating > max {
			continue
		}
		out = append(out, p)
	}
	return out
}

// dedupe keeps the first occurrence per (id, presented position) key.
// Input order defines precedence; no hidden tiebreaks.
func dedupe(in []domain.ValidatedPuzzle) []domain.ValidatedPuzzle {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.ValidatedPuzzle, 0, len(in))
	for _, p := range in {
		key := p.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// sample draws up to n members uniformly without replacement.
func sample(rng *rand.Rand, pool []domain.ValidatedPuzzle, n int) []domain.ValidatedPuzzle {
	if n <= 0 {
		return nil
	}
	shuffled := append([]domain.ValidatedPuzzle(nil), pool...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if len(shuffled) > n {
		shuffled = shuffled[:n]
	}
	return shuffled
}
