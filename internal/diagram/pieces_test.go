package diagram

import (
	"image"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

// allPieces collects the twelve distinct pieces off a start position.
func allPieces(t *testing.T) []nchess.Piece {
	t.Helper()
	board := nchess.NewGame().Position().Board()
	seen := make(map[nchess.Piece]struct{})
	var out []nchess.Piece
	for _, piece := range board.SquareMap() {
		if _, ok := seen[piece]; ok {
			continue
		}
		seen[piece] = struct{}{}
		out = append(out, piece)
	}
	if len(out) != 12 {
		t.Fatalf("expected 12 distinct pieces, got %d", len(out))
	}
	return out
}

func TestPieceSpritesCoverBothArmies(t *testing.T) {
	set := piecesAt(40)
	for _, piece := range allPieces(t) {
		img, err := set.image(piece)
		if err != nil {
			t.Fatalf("piece %v: %v", piece, err)
		}
		if img.Bounds() != image.Rect(0, 0, 40, 40) {
			t.Fatalf("piece %v: bounds %v", piece, img.Bounds())
		}
		opaque := false
		for y := 0; y < 40 && !opaque; y++ {
			for x := 0; x < 40; x++ {
				if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
					opaque = true
					break
				}
			}
		}
		if !opaque {
			t.Fatalf("piece %v rendered fully transparent", piece)
		}
	}
}

func TestPieceSetReuseAndResize(t *testing.T) {
	pieces := allPieces(t)
	wk := pieces[0]

	set := piecesAt(32)
	first, err := set.image(wk)
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	second, err := piecesAt(32).image(wk)
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if first != second {
		t.Fatalf("same size must reuse the rasterized sprite")
	}

	resized, err := piecesAt(64).image(wk)
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if resized.Bounds().Dx() != 64 {
		t.Fatalf("size change must re-rasterize, got bounds %v", resized.Bounds())
	}
}
