package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Progress reports one line per completed image. On a terminal it redraws
// a single \r-overwritten status line; otherwise it logs at debug level so
// piped output stays quiet. Not safe for concurrent use.
type Progress struct {
	total  int
	done   int
	failed int
	tty    bool
	out    io.Writer
}

// NewProgress detects whether stderr is a terminal.
func NewProgress(total int) *Progress {
	fd := os.Stderr.Fd()
	return &Progress{
		total: total,
		tty:   isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		out:   os.Stderr,
	}
}

// NewProgressTo writes to w and never redraws.
func NewProgressTo(w io.Writer, total int) *Progress {
	return &Progress{total: total, out: w}
}

// Step records one completed image.
func (p *Progress) Step(filename string, ok bool) {
	p.done++
	if !ok {
		p.failed++
	}

	if !p.tty {
		Logger.Debug("Image done", "file", filename, "ok", ok, "done", p.done, "total", p.total)
		return
	}

	pct := p.done * 100 / p.total
	status := fmt.Sprintf("  Processing images [%d/%d] %d%% ", p.done, p.total, pct)
	if p.failed > 0 {
		status += fmt.Sprintf("(%d failed) ", p.failed)
	}
	const maxName = 40
	if r := []rune(filename); len(r) > maxName {
		filename = string(r[:maxName-1]) + "…"
	}
	status += filename
	if len(status) < 80 {
		status += strings.Repeat(" ", 80-len(status))
	}
	fmt.Fprintf(p.out, "\r%s", status)
}

// Done returns the completed and failed counts.
func (p *Progress) Done() (done, failed int) {
	return p.done, p.failed
}

// Finish erases the status line on a terminal.
func (p *Progress) Finish() {
	if p.tty {
		fmt.Fprintf(p.out, "\r%s\r", strings.Repeat(" ", 80))
	}
}
