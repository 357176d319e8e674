package validate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tsalo/puzzlepress/internal/domain"
)

// Ladder mate: after 1...Ke8, 1.Ra7 boxes the king on the back rank and
// 2.Rb8 is mate whatever black plays.
func ladderMateRecord() domain.PuzzleRecord {
	return domain.PuzzleRecord{
		ID:      "ladder01",
		FEN:     "3k4/8/8/8/8/8/8/RR4K1 b - - 0 1",
		Moves:   []string{"d8e8", "a1a7", "e8d8", "b1b8"},
		Rating:  1400,
		Themes:  []string{"mate", "mateIn2", "endgame"},
		GameURL: "https://lichess.org/training/ladder01",
	}
}

// Scholar's mate: after 3...Nf6, Qxf7 is mate on the spot.
func scholarsMateRecord() domain.PuzzleRecord {
	return domain.PuzzleRecord{
		ID:     "scholar01",
		FEN:    "r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 3 3",
		Moves:  []string{"g8f6", "h5f7"},
		Rating: 900,
		Themes: []string{"mate", "mateIn1", "short"},
	}
}

func TestValidate_MateInExactly_Accepts(t *testing.T) {
	v := New(nil)
	rec := ladderMateRecord()

	got := v.Validate(rec, MateInExactly(2))
	if got == nil {
		t.Fatalf("expected ladder mate to validate as mate-in-2")
	}
	if got.MateDepth != 2 {
		t.Fatalf("MateDepth = %d, want 2", got.MateDepth)
	}
	if got.PlyCount != 3 || len(got.SolutionMoves) != 3 {
		t.Fatalf("PlyCount = %d, moves = %v, want 3 solution plies", got.PlyCount, got.SolutionMoves)
	}
	if got.SolutionMoves[0] != "a1a7" || got.SolutionMoves[2] != "b1b8" {
		t.Fatalf("unexpected solution moves: %v", got.SolutionMoves)
	}
	// The presented position is after the setup move, black king on e8.
	if got.PresentedFEN == rec.FEN {
		t.Fatalf("presented position must differ from the record position")
	}
}

func TestValidate_MateInExactly_WrongDepthRejected(t *testing.T) {
	v := New(nil)
	rec := ladderMateRecord()

	if got := v.Validate(rec, MateInExactly(1)); got != nil {
		t.Fatalf("mate-in-2 record accepted under MateInExactly(1)")
	}
	if got := v.Validate(rec, MateInExactly(3)); got != nil {
		t.Fatalf("mate-in-2 record accepted under MateInExactly(3)")
	}
}

func TestValidate_LyingTagsRejectedByReplay(t *testing.T) {
	// Tags claim mate-in-2, but the replay mates after one solver move.
	v := New(nil)
	rec := scholarsMateRecord()
	rec.Themes = []string{"mate", "mateIn2"}

	if got := v.Validate(rec, MateInExactly(2)); got != nil {
		t.Fatalf("replay must reject a mate-in-1 line tagged mateIn2")
	}
}

func TestValidate_MateInOne(t *testing.T) {
	v := New(nil)
	got := v.Validate(scholarsMateRecord(), MateInExactly(1))
	if got == nil {
		t.Fatalf("expected scholar's mate to validate as mate-in-1")
	}
	if got.MateDepth != 1 || got.PlyCount != 1 {
		t.Fatalf("MateDepth = %d, PlyCount = %d, want 1/1", got.MateDepth, got.PlyCount)
	}
}

func TestValidate_MateByOpponentRejected(t *testing.T) {
	// After the setup move white is the solver, but the mate in the
	// recorded line is delivered by black (fool's mate).
	v := New(nil)
	rec := domain.PuzzleRecord{
		ID:     "fools01",
		FEN:    "rnbqkbnr/pppppppp/8/8/8/5P2/PPPPP1PP/RNBQKBNR b KQkq - 0 1",
		Moves:  []string{"e7e5", "g2g4", "d8h4"},
		Rating: 600,
		Themes: []string{"mate", "mateIn1"},
	}
	if got := v.Validate(rec, MateInExactly(1)); got != nil {
		t.Fatalf("mate delivered by the non-solver side must be rejected")
	}
}

func TestValidate_IllegalMovesRejectNotPanic(t *testing.T) {
	v := New(nil)

	rec := ladderMateRecord()
	rec.Moves = []string{"d8d4", "a1a7", "e8d8", "b1b8"} // illegal setup
	if got := v.Validate(rec, MateInExactly(2)); got != nil {
		t.Fatalf("illegal setup move must reject the record")
	}

	rec = ladderMateRecord()
	rec.Moves[2] = "e8e4" // illegal reply mid-solution
	if got := v.Validate(rec, MateInExactly(2)); got != nil {
		t.Fatalf("illegal solution move must reject the record")
	}

	rec = ladderMateRecord()
	rec.FEN = "garbage"
	if got := v.Validate(rec, MateInExactly(2)); got != nil {
		t.Fatalf("malformed FEN must reject the record")
	}
}

func TestValidate_TagFastReject(t *testing.T) {
	v := New(nil)
	rec := ladderMateRecord()
	rec.Themes = []string{"endgame"}
	if got := v.Validate(rec, MateInExactly(2)); got != nil {
		t.Fatalf("record without mate tags must be rejected before replay")
	}
}

func TestValidate_Idempotent(t *testing.T) {
	v := New(nil)
	rec := ladderMateRecord()
	first := v.Validate(rec, MateInExactly(2))
	second := v.Validate(rec, MateInExactly(2))
	if first == nil || second == nil {
		t.Fatalf("expected both validations to accept")
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("validation is not idempotent (-first +second):\n%s", diff)
	}
}

func TestValidate_ShallowCriteria(t *testing.T) {
	v := New(nil)
	rec := domain.PuzzleRecord{
		ID:     "tact01",
		FEN:    "3k4/8/8/8/8/8/8/RR4K1 b - - 0 1",
		Moves:  []string{"d8e8", "a1a7", "e8d8"},
		Rating: 1600,
		Themes: []string{"fork", "endgame"},
	}

	got := v.Validate(rec, ThemeIn("fork", "pin"))
	if got == nil {
		t.Fatalf("expected theme match to validate")
	}
	if got.MateDepth != 0 {
		t.Fatalf("shallow validation must not set MateDepth")
	}
	if got.PlyCount != 2 {
		t.Fatalf("PlyCount = %d, want 2", got.PlyCount)
	}

	if v.Validate(rec, ThemeIn("sacrifice")) != nil {
		t.Fatalf("non-matching theme must reject")
	}
	if v.Validate(rec, PlyCountIn(2)) == nil {
		t.Fatalf("expected ply count 2 to validate")
	}
	if v.Validate(rec, PlyCountIn(4)) != nil {
		t.Fatalf("ply count 4 must reject a 2-ply solution")
	}
	if v.Validate(rec, Any()) == nil {
		t.Fatalf("Any must accept a well-formed record")
	}
}

func TestCriterionKey(t *testing.T) {
	cases := map[string]Criterion{
		"mate2":          MateInExactly(2),
		"ply:2,4":        PlyCountIn(4, 2),
		"theme:fork,pin": ThemeIn("pin", "fork"),
		"any":            Any(),
	}
	for want, c := range cases {
		if got := c.Key(); got != want {
			t.Fatalf("Key() = %q, want %q", got, want)
		}
	}
}
