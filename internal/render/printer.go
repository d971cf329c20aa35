// Package render prints clone progress and dialog listings to a terminal.
package render

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/flemzord/pigram/internal/clone"
)

// Printer writes one line per notable progress event. Per-message events
// are condensed to a periodic counter line.
type Printer struct {
	mu    sync.Mutex
	out   io.Writer
	every int
	now   func() time.Time

	info  *color.Color
	warn  *color.Color
	fail  *color.Color
	ok    *color.Color
	faint *color.Color
}

// NewPrinter creates a Printer writing to out. every sets how often a
// message counter line is printed; zero prints none.
func NewPrinter(out io.Writer, every int) *Printer {
	return &Printer{
		out:   out,
		every: every,
		now:   time.Now,
		info:  color.New(color.FgCyan),
		warn:  color.New(color.FgYellow),
		fail:  color.New(color.FgRed, color.Bold),
		ok:    color.New(color.FgGreen, color.Bold),
		faint: color.New(color.Faint),
	}
}

// Observe implements clone.Observer.
func (p *Printer) Observe(ev clone.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Kind {
	case clone.EventStatus:
		p.line(p.info, ev.Status)
	case clone.EventMessage:
		if ev.Outcome == clone.OutcomeFailed {
			p.line(p.fail, fmt.Sprintf("message %d failed", ev.MessageID))
			return
		}
		if p.every > 0 && ev.Processed%p.every == 0 {
			p.line(p.faint, fmt.Sprintf("%s messages processed (last id %d)", humanize.Comma(int64(ev.Processed)), ev.LastMessageID))
		}
	case clone.EventThrottle, clone.EventCooldown:
		p.line(p.warn, ev.Status)
	case clone.EventCheckpointError:
		p.line(p.fail, fmt.Sprintf("checkpoint not saved: %v", ev.Err))
	case clone.EventFinished:
		c := p.ok
		if ev.Err != nil {
			c = p.fail
		}
		p.line(c, ev.Status)
	}
}

func (p *Printer) line(c *color.Color, text string) {
	if text == "" {
		return
	}
	_, _ = p.faint.Fprint(p.out, p.now().Format("15:04:05")+" ")
	_, _ = c.Fprintln(p.out, text)
}
