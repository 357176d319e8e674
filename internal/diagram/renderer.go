package diagram

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Options controls a rendered board image. A zero SquareSize falls back
// to 72 pixels. Flip orients the board from Black's side, which is how a
// puzzle is presented when Black is the solver.
type Options struct {
	SquareSize int
	Caption    string
	Coords     bool
	Flip       bool
}

const (
	boardSquares  = 8
	defaultSquare = 72
)

var (
	lightSquare  = color.RGBA{233, 207, 163, 255}
	darkSquare   = color.RGBA{187, 136, 96, 255}
	marginColor  = color.RGBA{250, 248, 242, 255}
	labelColor   = color.NRGBA{60, 52, 40, 255}
	captionColor = color.NRGBA{30, 30, 30, 255}
)

// RenderPNG draws the position as a PNG suitable for embedding next to
// the typeset worksheet.
func RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}

	squareSize := opts.SquareSize
	if squareSize <= 0 {
		squareSize = defaultSquare
	}

	margin := 0
	if opts.Coords {
		margin = squareSize / 3
	}
	captionHeight := 0
	if strings.TrimSpace(opts.Caption) != "" {
		captionHeight = squareSize / 2
	}

	boardSize := squareSize * boardSquares
	totalWidth := boardSize + margin*2
	totalHeight := boardSize + margin*2 + captionHeight
	origin := image.Point{X: margin, Y: margin}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(marginColor), image.Point{}, imagedraw.Src)

	drawSquares(img, squareSize, origin, opts.Flip)
	if err := drawPieces(img, board, squareSize, origin, opts.Flip); err != nil {
		return nil, err
	}
	if opts.Coords {
		drawCoordinates(img, squareSize, origin, margin, opts.Flip)
	}
	if captionHeight > 0 {
		drawCaption(img, opts.Caption, totalWidth, boardSize+margin*2+captionHeight/2)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func boardOrder(flip bool) ([]nchess.Rank, []nchess.File) {
	ranks := []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
	files := []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
	if flip {
		for i, j := 0, len(ranks)-1; i < j; i, j = i+1, j-1 {
			ranks[i], ranks[j] = ranks[j], ranks[i]
			files[i], files[j] = files[j], files[i]
		}
	}
	return ranks, files
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point, flip bool) {
	ranks, files := boardOrder(flip)
	for row, rank := range ranks {
		for col, file := range files {
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			sq := nchess.NewSquare(file, rank)
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(squareColor(sq)), image.Point{}, imagedraw.Src)
		}
	}
}

func drawPieces(dst imagedraw.Image, board *nchess.Board, squareSize int, origin image.Point, flip bool) error {
	boardMap := board.SquareMap()
	sprites := piecesAt(squareSize)
	ranks, files := boardOrder(flip)
	for row, rank := range ranks {
		for col, file := range files {
			sq := nchess.NewSquare(file, rank)
			piece := boardMap[sq]
			if piece == nchess.NoPiece {
				continue
			}
			img, err := sprites.image(piece)
			if err != nil {
				return err
			}
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			imagedraw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), img, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawCoordinates(dst imagedraw.Image, squareSize int, origin image.Point, margin int, flip bool) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  dst,
		Face: face,
		Src:  image.NewUniform(labelColor),
	}
	ascent := face.Metrics().Ascent.Ceil()

	ranks, files := boardOrder(flip)
	boardEndY := origin.Y + len(ranks)*squareSize

	for row, rank := range ranks {
		baseline := origin.Y + row*squareSize + squareSize/2 + ascent/2
		drawCenteredText(drawer, rank.String(), origin.X-margin/2, baseline)
	}
	for col, file := range files {
		centerX := origin.X + col*squareSize + squareSize/2
		drawCenteredText(drawer, file.String(), centerX, boardEndY+margin/2+ascent/2)
	}
}

func drawCaption(dst imagedraw.Image, caption string, totalWidth, baselineCenterY int) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  dst,
		Face: face,
		Src:  image.NewUniform(captionColor),
	}
	ascent := face.Metrics().Ascent.Ceil()
	drawCenteredText(drawer, strings.TrimSpace(caption), totalWidth/2, baselineCenterY+ascent/2)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

func squareColor(sq nchess.Square) color.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return darkSquare
	}
	return lightSquare
}
