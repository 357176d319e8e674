package diagram

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

// pieceSet holds the twelve piece sprites rasterized at one square size.
// A worksheet run draws every diagram at the same size, so a single set
// is kept and only replaced when the size changes.
type pieceSet struct {
	size int
	mu   sync.Mutex
	imgs map[nchess.Piece]image.Image
}

var (
	setMu     sync.Mutex
	activeSet *pieceSet
)

func piecesAt(size int) *pieceSet {
	setMu.Lock()
	defer setMu.Unlock()
	if activeSet == nil || activeSet.size != size {
		activeSet = &pieceSet{size: size, imgs: make(map[nchess.Piece]image.Image, 12)}
	}
	return activeSet
}

func (s *pieceSet) image(piece nchess.Piece) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.imgs[piece]; ok {
		return img, nil
	}
	img, err := rasterizePiece(piece, s.size)
	if err != nil {
		return nil, err
	}
	s.imgs[piece] = img
	return img, nil
}

// rasterizePiece scales one embedded sprite onto a transparent square.
// The sprites are bundled with the binary and always carry a viewBox, so
// a parse failure here is a build defect, not an input problem.
func rasterizePiece(piece nchess.Piece, size int) (image.Image, error) {
	data, err := pieceFiles.ReadFile(assetPath(piece))
	if err != nil {
		return nil, fmt.Errorf("read piece sprite: %w", err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece sprite %s: %w", assetPath(piece), err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)
	return img, nil
}

var pieceLetters = map[nchess.PieceType]string{
	nchess.King:   "K",
	nchess.Queen:  "Q",
	nchess.Rook:   "R",
	nchess.Bishop: "B",
	nchess.Knight: "N",
	nchess.Pawn:   "P",
}

func assetPath(piece nchess.Piece) string {
	side := "b"
	if piece.Color() == nchess.White {
		side = "w"
	}
	return "assets/pieces/" + side + pieceLetters[piece.Type()] + ".svg"
}
