package validate

import (
	"fmt"

	"github.com/tsalo/puzzlepress/internal/board"
	"github.com/tsalo/puzzlepress/internal/domain"
	"go.uber.org/zap"
)

// Validator replays candidate records against the rules of chess and
// turns the survivors into ValidatedPuzzles. Per-record failures are
// rejections, never errors: a corpus entry with bad data is dropped, not
// surfaced to the caller.
type Validator struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger}
}

// Validate checks rec against the criterion. It returns nil when the
// record is rejected for any reason.
func (v *Validator) Validate(rec domain.PuzzleRecord, c Criterion) *domain.ValidatedPuzzle {
	// Need at least the setup move and one solution move.
	if rec.ID == "" || rec.FEN == "" || len(rec.Moves) < 2 {
		v.reject(rec, "incomplete_record")
		return nil
	}
	if c.kind == kindMateInExactly {
		return v.validateMate(rec, c.mateIn)
	}
	return v.validateShallow(rec, c)
}

// validateMate replays the full move list and accepts the record only if
// checkmate lands on a solver move after exactly n solver moves. Tags
// are a fast pre-filter; the replay is the ground truth.
func (v *Validator) validateMate(rec domain.PuzzleRecord, n int) *domain.ValidatedPuzzle {
	if n < 1 {
		v.reject(rec, "bad_mate_depth")
		return nil
	}
	if len(rec.Moves) < n+1 {
		v.reject(rec, "too_few_moves")
		return nil
	}
	if !rec.HasTheme("mate") || !rec.HasTheme(fmt.Sprintf("mateIn%d", n)) {
		v.reject(rec, "tag_mismatch")
		return nil
	}

	start, err := board.FromFEN(rec.FEN)
	if err != nil {
		v.reject(rec, "bad_fen")
		return nil
	}
	presented, err := start.Apply(rec.Moves[0])
	if err != nil {
		v.reject(rec, "illegal_setup_move")
		return nil
	}
	solver := presented.Turn()

	solution := rec.Moves[1:]
	cur := presented
	solverMoves := 0
	for i, mv := range solution {
		mover := cur.Turn()
		next, err := cur.Apply(mv)
		if err != nil {
			v.reject(rec, "illegal_move")
			return nil
		}
		if mover == solver {
			solverMoves++
		}
		if next.IsCheckmate() {
			if mover != solver {
				v.reject(rec, "mate_by_opponent")
				return nil
			}
			if solverMoves != n {
				v.reject(rec, "wrong_mate_depth")
				return nil
			}
			moves := append([]string(nil), solution[:i+1]...)
			return &domain.ValidatedPuzzle{
				ID:            rec.ID,
				Rating:        rec.Rating,
				Themes:        append([]string(nil), rec.Themes...),
				GameURL:       rec.GameURL,
				PresentedFEN:  presented.FEN(),
				SolutionMoves: moves,
				MateDepth:     n,
				PlyCount:      len(moves),
			}
		}
		if solverMoves > n {
			v.reject(rec, "solution_too_long")
			return nil
		}
		cur = next
	}
	v.reject(rec, "no_mate")
	return nil
}

// validateShallow covers the non-mate criteria: metadata filters plus a
// setup-move legality check. Correctness of the solution line is not
// asserted for these classes, only presentation readiness.
func (v *Validator) validateShallow(rec domain.PuzzleRecord, c Criterion) *domain.ValidatedPuzzle {
	switch c.kind {
	case kindThemeIn:
		matched := false
		for _, t := range rec.Themes {
			if _, ok := c.themes[t]; ok {
				matched = true
				break
			}
		}
		if !matched {
			v.reject(rec, "theme_mismatch")
			return nil
		}
	case kindPlyCountIn:
		if _, ok := c.plies[len(rec.Moves)-1]; !ok {
			v.reject(rec, "ply_mismatch")
			return nil
		}
	}

	start, err := board.FromFEN(rec.FEN)
	if err != nil {
		v.reject(rec, "bad_fen")
		return nil
	}
	presented, err := start.Apply(rec.Moves[0])
	if err != nil {
		v.reject(rec, "illegal_setup_move")
		return nil
	}

	moves := append([]string(nil), rec.Moves[1:]...)
	return &domain.ValidatedPuzzle{
		ID:            rec.ID,
		Rating:        rec.Rating,
		Themes:        append([]string(nil), rec.Themes...),
		GameURL:       rec.GameURL,
		PresentedFEN:  presented.FEN(),
		SolutionMoves: moves,
		PlyCount:      len(moves),
	}
}

func (v *Validator) reject(rec domain.PuzzleRecord, reason string) {
	v.logger.Debug("puzzle_rejected",
		zap.String("puzzle_id", rec.ID),
		zap.String("reason", reason),
	)
}
