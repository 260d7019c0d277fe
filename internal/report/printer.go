package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/term"
)

// Printer writes rendered output, dropping styling when the destination is
// not a terminal or NO_COLOR is set.
type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter detects whether w supports color.
func NewPrinter(w io.Writer) *Printer {
	color := false
	if f, ok := w.(*os.File); ok && os.Getenv("NO_COLOR") == "" {
		color = term.IsTerminal(f.Fd())
	}
	return &Printer{w: w, color: color}
}

// PlainPrinter never emits styling.
func PlainPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

func (p *Printer) render(s string) string {
	if p.color {
		return s
	}
	return ansi.Strip(s)
}

// Println writes s and a newline.
func (p *Printer) Println(s string) {
	fmt.Fprintln(p.w, p.render(s))
}

// Printf formats and writes.
func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprint(p.w, p.render(fmt.Sprintf(format, args...)))
}
