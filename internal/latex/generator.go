package latex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tsalo/puzzlepress/internal/domain"
)

// Options controls the rendered worksheet.
type Options struct {
	Title         string
	MateIn        int
	ShowRating    bool
	ShowMateDepth bool
	Progressive   bool
	RunID         string
}

const puzzlesPerPage = 4

// Generate renders a complete LaTeX document: a title page note, four
// diagrams per page, and an answer key at the end. The document relies
// on the xskak and chessboard packages for the diagrams.
func Generate(puzzles []domain.ValidatedPuzzle, opts Options) string {
	var b strings.Builder

	writePreamble(&b, opts)

	for i, p := range puzzles {
		if i > 0 && i%puzzlesPerPage == 0 {
			b.WriteString("\\newpage\n\n")
		}
		writePuzzle(&b, i+1, p, opts)
	}

	writeAnswerKey(&b, puzzles)

	b.WriteString("\\end{document}\n")
	return b.String()
}

// WriteFile renders the document and writes it to path, creating parent
// directories as needed.
func WriteFile(path string, puzzles []domain.ValidatedPuzzle, opts Options) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	doc := Generate(puzzles, opts)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

func writePreamble(b *strings.Builder, opts Options) {
	title := opts.Title
	if title == "" {
		if opts.MateIn > 0 {
			title = fmt.Sprintf("Mate-in-%d Chess Puzzles", opts.MateIn)
		} else {
			title = "Chess Puzzles"
		}
	}

	if opts.RunID != "" {
		fmt.Fprintf(b, "%% puzzlepress run %s\n", opts.RunID)
	}
	b.WriteString("\\documentclass[11pt,a4paper]{article}\n")
	b.WriteString("\\usepackage[margin=1.5cm]{geometry}\n")
	b.WriteString("\\usepackage{xskak}\n")
	b.WriteString("\\usepackage{chessboard}\n")
	b.WriteString("\\usepackage{multicol}\n")
	b.WriteString("\\setlength{\\parindent}{0pt}\n")
	b.WriteString("\\pagestyle{empty}\n\n")
	b.WriteString("\\begin{document}\n\n")

	b.WriteString("\\begin{center}\n")
	fmt.Fprintf(b, "{\\Large\\bfseries %s}\\\\[2mm]\n", escape(title))
	fmt.Fprintf(b, "{\\small %s}\n", time.Now().Format("January 2, 2006"))
	b.WriteString("\\end{center}\n\n")

	writeInstructions(b, opts)
}

func writeInstructions(b *strings.Builder, opts Options) {
	var lines []string
	if opts.MateIn > 0 {
		lines = append(lines, fmt.Sprintf("Each position below is a forced mate in %d. Find the winning line for the side to move.", opts.MateIn))
	} else {
		lines = append(lines, "Find the best line for the side to move in each position below.")
	}
	if opts.Progressive {
		lines = append(lines, "Puzzles are ordered from easiest to hardest.")
	}
	lines = append(lines, "Solutions are listed in the answer key on the last page.")
	fmt.Fprintf(b, "{\\small %s}\\\\[4mm]\n\n", strings.Join(lines, " "))
}

func writePuzzle(b *strings.Builder, num int, p domain.ValidatedPuzzle, opts Options) {
	side := "Black"
	flip := "true"
	if p.WhiteToMove() {
		side = "White"
		flip = "false"
	}

	b.WriteString("\\begin{minipage}[t]{0.48\\textwidth}\n")
	b.WriteString("\\begin{center}\n")

	label := fmt.Sprintf("Puzzle %d", num)
	var extras []string
	if opts.ShowMateDepth && p.MateDepth > 0 {
		extras = append(extras, fmt.Sprintf("mate in %d", p.MateDepth))
	}
	if opts.ShowRating && p.Rating > 0 {
		extras = append(extras, fmt.Sprintf("rating %d", p.Rating))
	}
	if len(extras) > 0 {
		label += " (" + strings.Join(extras, ", ") + ")"
	}
	fmt.Fprintf(b, "{\\bfseries %s}\\\\[1mm]\n", escape(label))

	fmt.Fprintf(b, "\\newchessgame\n")
	fmt.Fprintf(b, "\\chessboard[setfen=%s,inverse=%s,showmover=true,boardfontsize=18pt]\\\\[1mm]\n",
		p.PresentedFEN, flip)
	fmt.Fprintf(b, "{\\small %s to move}\n", side)

	b.WriteString("\\end{center}\n")
	b.WriteString("\\end{minipage}\n")
	if num%2 == 1 {
		b.WriteString("\\hfill\n")
	} else {
		b.WriteString("\\\\[4mm]\n")
	}
	b.WriteString("\n")
}

func writeAnswerKey(b *strings.Builder, puzzles []domain.ValidatedPuzzle) {
	b.WriteString("\\newpage\n\n")
	b.WriteString("\\begin{center}\n{\\Large\\bfseries Answer Key}\n\\end{center}\n\n")
	b.WriteString("\\begin{multicols}{2}\n")
	for i, p := range puzzles {
		line := strings.Join(p.SolutionSAN, ", ")
		if line == "" {
			line = strings.Join(p.SolutionMoves, ", ")
		}
		fmt.Fprintf(b, "\\textbf{%d.} %s\\\\\n", i+1, escape(line))
	}
	b.WriteString("\\end{multicols}\n\n")
}

// escape quotes the LaTeX special characters that can appear in titles,
// SAN lines, and run identifiers. Backslash handling is not needed: none
// of the escaped inputs contain one.
func escape(s string) string {
	r := strings.NewReplacer(
		"#", "\\#",
		"&", "\\&",
		"%", "\\%",
		"$", "\\$",
		"_", "\\_",
		"{", "\\{",
		"}", "\\}",
	)
	return r.Replace(s)
}
