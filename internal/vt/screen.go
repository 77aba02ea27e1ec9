package vt

import (
	"strings"

	"github.com/hinshun/vt10x"
)

// DefaultRows/DefaultCols match the PTY default size (24x80).
const (
	DefaultRows = 24
	DefaultCols = 80
)

// Screen is a windowed terminal model for interactive output whose
// meaning depends on cursor state (editors, top-likes). Backed by
// hinshun/vt10x, grounded in the WiseWiseWiser-mobile-coding-connector
// (ai-critic) go.mod, which pairs vt10x with creack/pty + gorilla/
// websocket for exactly this PTY-to-browser shape.
type Screen struct {
	term vt10x.Terminal
	rows int
	cols int
}

// NewScreen constructs a screen of the given size, defaulting to 24x80
// when either dimension is zero.
func NewScreen(rows, cols int) *Screen {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	return &Screen{
		term: vt10x.New(vt10x.WithSize(cols, rows)),
		rows: rows,
		cols: cols,
	}
}

// Write feeds raw PTY bytes through the terminal emulator. Color
// attributes are tracked by vt10x but ignored by every accessor below,
// per spec §4.6.
func (s *Screen) Write(p []byte) (int, error) {
	return s.term.Write(p)
}

// Contents returns each row's text, right-trimmed of trailing spaces.
func (s *Screen) Contents() []string {
	s.term.Lock()
	defer s.term.Unlock()
	rows := make([]string, s.rows)
	for y := 0; y < s.rows; y++ {
		var b strings.Builder
		for x := 0; x < s.cols; x++ {
			g := s.term.Cell(x, y)
			if g.Char == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteRune(g.Char)
		}
		rows[y] = strings.TrimRight(b.String(), " ")
	}
	return rows
}

// Lines is an alias for Contents, named to match the spec's accessor list.
func (s *Screen) Lines() []string { return s.Contents() }

// NonEmptyLines returns Contents with blank rows elided.
func (s *Screen) NonEmptyLines() []string {
	all := s.Contents()
	out := make([]string, 0, len(all))
	for _, l := range all {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Cursor returns the current cursor column and row.
func (s *Screen) Cursor() (col, row int) {
	s.term.Lock()
	defer s.term.Unlock()
	c := s.term.Cursor()
	return c.X, c.Y
}

// Clear resets the screen to a blank state.
func (s *Screen) Clear() {
	s.term.Lock()
	defer s.term.Unlock()
	s.term.Resize(s.cols, s.rows)
}
