package board

import (
	"errors"
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrInvalidEncoding = errors.New("invalid position encoding")
	ErrIllegalMove     = errors.New("illegal move")
)

// Position is a snapshot of a game state. Apply returns a fresh Position
// backed by a cloned game, so a Position handed to another goroutine is
// never mutated underneath it.
type Position struct {
	game *nchess.Game
}

// FromFEN builds a Position from a FEN encoding.
func FromFEN(fen string) (Position, error) {
	opt, err := nchess.FEN(fen)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return Position{game: nchess.NewGame(opt)}, nil
}

// Apply plays a UCI move and returns the resulting Position. Full
// legality is enforced by the engine: piece movement, check avoidance,
// castling, en passant and promotion rules.
func (p Position) Apply(uci string) (Position, error) {
	if p.game == nil {
		return Position{}, ErrIllegalMove
	}
	g := p.game.Clone()
	if err := g.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
		return Position{}, fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	return Position{game: g}, nil
}

// IsCheckmate reports whether the side to move is mated.
func (p Position) IsCheckmate() bool {
	return p.game != nil && p.game.Method() == nchess.Checkmate
}

// Turn returns the side to move.
func (p Position) Turn() nchess.Color {
	if p.game == nil {
		return nchess.NoColor
	}
	return p.game.Position().Turn()
}

// FEN encodes the current position.
func (p Position) FEN() string {
	if p.game == nil {
		return ""
	}
	return p.game.FEN()
}

// EncodeSAN renders a UCI move as disambiguated algebraic notation for
// this position, without applying it. The encoder appends check and mate
// markers itself.
func (p Position) EncodeSAN(uci string) (string, error) {
	if p.game == nil {
		return "", ErrIllegalMove
	}
	pos := p.game.Position()
	mv, err := nchess.UCINotation{}.Decode(pos, uci)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	return nchess.AlgebraicNotation{}.Encode(pos, mv), nil
}

// Board exposes the piece placement for diagram rendering.
func (p Position) Board() *nchess.Board {
	if p.game == nil {
		return nil
	}
	return p.game.Position().Board()
}
