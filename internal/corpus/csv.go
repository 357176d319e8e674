package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tsalo/puzzlepress/internal/domain"
	"github.com/tsalo/puzzlepress/internal/obslog"
	"go.uber.org/zap"
)

// Lichess puzzle CSV columns, by position.
const (
	colID     = 0
	colFEN    = 1
	colMoves  = 2
	colRating = 3
	colThemes = 7
	colURL    = 8

	minFields = 8
)

// CSVSource streams records out of a lichess-format puzzle CSV. Rows
// with too few fields or a non-numeric rating degrade to a zero record
// that the validator rejects later; a bad row never aborts the read.
type CSVSource struct {
	path string
}

func NewCSVSource(path string) (*CSVSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("corpus path required")
	}
	return &CSVSource{path: path}, nil
}

func (s *CSVSource) Fetch(ctx context.Context, f Filter, limit int) ([]domain.PuzzleRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	var out []domain.PuzzleRecord
	rows := 0
	for {
		if rows%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return out, err
			}
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A mangled line is a per-row problem, same as a short one.
			obslog.L().Debug("corpus_row_unreadable", zap.Int("row", rows), zap.Error(err))
			rows++
			continue
		}
		if rows == 0 && isHeader(row) {
			rows++
			continue
		}
		rows++

		rec := parseRow(row)
		if !f.Matches(rec) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// isHeader detects the corpus header row by its first column name.
func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[colID]), "puzzleid")
}

func parseRow(row []string) domain.PuzzleRecord {
	if len(row) < minFields {
		return domain.PuzzleRecord{}
	}
	rating, err := strconv.Atoi(strings.TrimSpace(row[colRating]))
	if err != nil || rating < 0 {
		rating = 0
	}
	rec := domain.PuzzleRecord{
		ID:     strings.TrimSpace(row[colID]),
		FEN:    strings.TrimSpace(row[colFEN]),
		Moves:  strings.Fields(row[colMoves]),
		Rating: rating,
		Themes: strings.Fields(row[colThemes]),
	}
	if len(row) > colURL {
		rec.GameURL = strings.TrimSpace(row[colURL])
	}
	return rec
}
