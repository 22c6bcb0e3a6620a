package console

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/stackvity/vterm/internal/session"
)

const (
	defaultHeight = 24

	clearScreen = "\x1b[H\x1b[2J"
	crlf        = "\r\n"
)

// Renderer redraws the whole screen from a session view.
type Renderer struct {
	out    io.Writer
	height func() int
	prompt *color.Color
}

// NewRenderer writes to out. height reports the terminal rows; nil means a
// fixed default.
func NewRenderer(out io.Writer, height func() int, noColor bool) *Renderer {
	if height == nil {
		height = func() int { return defaultHeight }
	}
	c := color.New(color.FgGreen, color.Bold)
	if noColor {
		c.DisableColor()
	}
	return &Renderer{out: out, height: height, prompt: c}
}

// Render draws the tail of the transcript that fits above the input line,
// then the prompt and input, and parks the cursor inside the input.
func (r *Renderer) Render(v session.View) error {
	var buf bytes.Buffer
	buf.WriteString(clearScreen)

	rows := r.height()
	if rows < 1 {
		rows = defaultHeight
	}
	lines := v.Lines
	if keep := rows - 1; len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteString(crlf)
	}

	buf.WriteString(r.prompt.Sprint(v.Prompt))
	buf.WriteByte(' ')
	buf.WriteString(v.Input)

	col := utf8.RuneCountInString(v.Prompt) + 1 + v.Cursor
	buf.WriteByte('\r')
	if col > 0 {
		fmt.Fprintf(&buf, "\x1b[%dC", col)
	}

	_, err := r.out.Write(buf.Bytes())
	return err
}
