package domain

import (
	"hash/fnv"
	"io"
	"strconv"
)

// PuzzleRecord is one raw row from a puzzle corpus. The FEN is the
// position before any move in the record is applied, and Moves are UCI
// strings that remain untrusted until the validator has replayed them.
// By corpus convention Moves[0] is the setup move: the opponent's move
// that produces the position shown to the solver.
type PuzzleRecord struct {
	ID      string
	FEN     string
	Moves   []string
	Rating  int
	Themes  []string
	GameURL string
}

// IsZero reports whether the record carries no usable data, which is how
// malformed corpus rows are represented.
func (r PuzzleRecord) IsZero() bool {
	return r.ID == "" && r.FEN == "" && len(r.Moves) == 0
}

func (r PuzzleRecord) HasTheme(name string) bool {
	for _, t := range r.Themes {
		if t == name {
			return true
		}
	}
	return false
}

// Fingerprint identifies the record by content. A corpus can reuse an ID
// with a different position or move list; those variants must never
// alias each other in caches or indexes keyed by this value.
func (r PuzzleRecord) Fingerprint() string {
	h := fnv.New64a()
	_, _ = io.WriteString(h, r.ID)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, r.FEN)
	for _, m := range r.Moves {
		_, _ = io.WriteString(h, "|")
		_, _ = io.WriteString(h, m)
	}
	return r.ID + "-" + strconv.FormatUint(h.Sum64(), 16)
}

// ValidatedPuzzle is a record that survived validation. It is constructed
// once, enriched once with SAN via WithSolutionSAN, and read-only after
// that; callers must never mutate fields in place.
type ValidatedPuzzle struct {
	ID            string
	Rating        int
	Themes        []string
	GameURL       string
	PresentedFEN  string
	SolutionMoves []string
	SolutionSAN   []string
	MateDepth     int // 0 unless validated against a mate-in-N criterion
	PlyCount      int
}

// Key is the deduplication identity. Two records sharing an ID but
// producing different presented positions are distinct on purpose: that
// is a data-corruption case and both stay in the pool.
func (p ValidatedPuzzle) Key() string {
	return p.ID + "_" + p.PresentedFEN
}

// WithSolutionSAN returns a copy carrying the rendered notation.
func (p ValidatedPuzzle) WithSolutionSAN(san []string) ValidatedPuzzle {
	out := p
	out.SolutionSAN = append([]string(nil), san...)
	return out
}

func (p ValidatedPuzzle) HasTheme(name string) bool {
	for _, t := range p.Themes {
		if t == name {
			return true
		}
	}
	return false
}

// WhiteToMove reports which side the presented position expects to move.
func (p ValidatedPuzzle) WhiteToMove() bool {
	for i := 0; i < len(p.PresentedFEN)-2; i++ {
		if p.PresentedFEN[i] == ' ' {
			return p.PresentedFEN[i+1] == 'w'
		}
	}
	return true
}
