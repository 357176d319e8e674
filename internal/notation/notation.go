package notation

import (
	"strings"

	"github.com/tsalo/puzzlepress/internal/board"
	"github.com/tsalo/puzzlepress/internal/domain"
)

// Render converts a solution from UCI into standard algebraic notation,
// one string per move, starting from the presented position. The engine
// encoder handles disambiguation and check markers; the final move is
// forced to carry the mate marker when the line actually mates, since
// that is what the answer key prints.
func Render(presentedFEN string, moves []string) ([]string, error) {
	pos, err := board.FromFEN(presentedFEN)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(moves))
	cur := pos
	for _, mv := range moves {
		san, err := cur.EncodeSAN(mv)
		if err != nil {
			return nil, err
		}
		next, err := cur.Apply(mv)
		if err != nil {
			return nil, err
		}
		out = append(out, san)
		cur = next
	}
	if len(out) > 0 && cur.IsCheckmate() {
		last := out[len(out)-1]
		if !strings.HasSuffix(last, "#") {
			out[len(out)-1] = strings.TrimSuffix(last, "+") + "#"
		}
	}
	return out, nil
}

// Enrich renders the solution of a validated puzzle and returns a copy
// carrying the SAN strings. The puzzle is dropped (nil) when a move does
// not apply, mirroring the validator's reject-not-fail policy.
func Enrich(p *domain.ValidatedPuzzle) *domain.ValidatedPuzzle {
	if p == nil {
		return nil
	}
	san, err := Render(p.PresentedFEN, p.SolutionMoves)
	if err != nil {
		return nil
	}
	out := p.WithSolutionSAN(san)
	return &out
}
