package validate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type kind int

const (
	kindAny kind = iota
	kindMateInExactly
	kindPlyCountIn
	kindThemeIn
)

// Criterion is the correctness class a record is validated against.
// Build one with MateInExactly, PlyCountIn, ThemeIn or Any.
type Criterion struct {
	kind   kind
	mateIn int
	plies  map[int]struct{}
	themes map[string]struct{}
}

// MateInExactly requires the record to resolve as a forced mate in
// exactly n solver moves, verified by full replay.
func MateInExactly(n int) Criterion {
	return Criterion{kind: kindMateInExactly, mateIn: n}
}

// PlyCountIn accepts records whose solution length is one of the given
// ply counts. No mate requirement; only the setup move is replayed.
func PlyCountIn(plies ...int) Criterion {
	set := make(map[int]struct{}, len(plies))
	for _, p := range plies {
		set[p] = struct{}{}
	}
	return Criterion{kind: kindPlyCountIn, plies: set}
}

// ThemeIn accepts records tagged with at least one of the given themes.
func ThemeIn(themes ...string) Criterion {
	set := make(map[string]struct{}, len(themes))
	for _, t := range themes {
		if t = strings.TrimSpace(t); t != "" {
			set[t] = struct{}{}
		}
	}
	return Criterion{kind: kindThemeIn, themes: set}
}

// Any applies only basic integrity checks.
func Any() Criterion {
	return Criterion{kind: kindAny}
}

// Key is a stable identifier for the criterion, used for cache keys and
// log fields.
func (c Criterion) Key() string {
	switch c.kind {
	case kindMateInExactly:
		return fmt.Sprintf("mate%d", c.mateIn)
	case kindPlyCountIn:
		vals := make([]int, 0, len(c.plies))
		for p := range c.plies {
			vals = append(vals, p)
		}
		sort.Ints(vals)
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = strconv.Itoa(v)
		}
		return "ply:" + strings.Join(parts, ",")
	case kindThemeIn:
		names := make([]string, 0, len(c.themes))
		for t := range c.themes {
			names = append(names, t)
		}
		sort.Strings(names)
		return "theme:" + strings.Join(names, ",")
	default:
		return "any"
	}
}

// MateDepth returns n for a MateInExactly criterion and 0 otherwise.
func (c Criterion) MateDepth() int {
	if c.kind == kindMateInExactly {
		return c.mateIn
	}
	return 0
}
