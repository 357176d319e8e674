package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/tsalo/puzzlepress/internal/domain"
)

// PGSource reads the same puzzle records from a Postgres table, for
// installs that load the corpus into a database instead of shipping the
// flat file around. Rating bounds and the limit are pushed into SQL;
// theme and ply filtering reuse the shared matcher.
type PGSource struct {
	db *sql.DB
}

func NewPGSource(databaseURL string) (*PGSource, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &PGSource{db: db}, nil
}

func (s *PGSource) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PGSource) Fetch(ctx context.Context, f Filter, limit int) ([]domain.PuzzleRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("pg source not initialized")
	}
	maxRating := f.MaxRating
	if maxRating <= 0 {
		maxRating = 1 << 30
	}
	rowCap := limit * 4
	if rowCap <= 0 {
		rowCap = 1 << 20
	}
	// Oversample in SQL: theme and ply filters still run in Go, so rows
	// matched on rating alone may be discarded below.
	q := `SELECT puzzle_id, fen, moves, rating, themes, game_url
	        FROM puzzles
	       WHERE rating BETWEEN $1 AND $2
	       ORDER BY corpus_order
	       LIMIT $3`
	rows, err := s.db.QueryContext(ctx, q, f.MinRating, maxRating, rowCap)
	if err != nil {
		return nil, fmt.Errorf("query puzzles: %w", err)
	}
	defer rows.Close()

	var out []domain.PuzzleRecord
	for rows.Next() {
		var (
			rec    domain.PuzzleRecord
			moves  string
			themes string
			url    sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.FEN, &moves, &rec.Rating, &themes, &url); err != nil {
			return nil, fmt.Errorf("scan puzzle row: %w", err)
		}
		rec.Moves = strings.Fields(moves)
		rec.Themes = strings.Fields(themes)
		rec.GameURL = url.String
		if !f.Matches(rec) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, rows.Err()
}
