package lichess

import "github.com/tsalo/puzzlepress/internal/domain"

// fallbackRecords returns a small bundled corpus used when the API is
// unreachable or cannot cover the request. Each record has been checked
// by replay.
func fallbackRecords() []domain.PuzzleRecord {
	return []domain.PuzzleRecord{
		{
			ID:      "bundled-ladder",
			FEN:     "3k4/8/8/8/8/8/8/RR4K1 b - - 0 1",
			Moves:   []string{"d8e8", "a1a7", "e8d8", "b1b8"},
			Rating:  1200,
			Themes:  []string{"mate", "mateIn2", "endgame", "ladderMate"},
			GameURL: "https://lichess.org/training/bundled-ladder",
		},
		{
			ID:      "bundled-scholars",
			FEN:     "r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 3 3",
			Moves:   []string{"g8f6", "h5f7"},
			Rating:  800,
			Themes:  []string{"mate", "mateIn1", "opening"},
			GameURL: "https://lichess.org/training/bundled-scholars",
		},
		{
			ID:      "bundled-backrank",
			FEN:     "6k1/5ppp/8/8/8/8/8/R5K1 b - - 0 1",
			Moves:   []string{"g8h8", "a1a8"},
			Rating:  900,
			Themes:  []string{"mate", "mateIn1", "backRankMate", "endgame"},
			GameURL: "https://lichess.org/training/bundled-backrank",
		},
	}
}
