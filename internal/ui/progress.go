package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var spinnerFrames = []string{"◐", "◓", "◑", "◒"}

// Progress reports advancement of a long-running job such as a catalog dump.
type Progress interface {
	SetLabel(label string)
	SetTotal(total int)
	Tick(delta int)
	Done()
}

type spinner struct {
	mu      sync.Mutex
	w       io.Writer
	label   string
	total   int
	current int
	frame   int
	done    bool
	stop    chan struct{}
}

// NewProgress starts a spinner on stderr. When stderr is not a terminal the
// returned Progress does nothing.
func NewProgress(label string, total int) Progress {
	if !isTTY(os.Stderr) {
		return noopProgress{}
	}

	p := &spinner{
		w:     os.Stderr,
		label: label,
		total: total,
		stop:  make(chan struct{}),
	}
	go p.animate()
	return p
}

func (p *spinner) animate() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.render()
			p.frame = (p.frame + 1) % len(spinnerFrames)
			p.mu.Unlock()
		}
	}
}

func (p *spinner) render() {
	// Clear line
	fmt.Fprint(p.w, "\r\033[K")

	frame := spinnerFrames[p.frame]
	if IsRich() {
		frame = Accent("%s", frame)
	}

	if p.total > 0 {
		percent := p.current * 100 / p.total
		fmt.Fprintf(p.w, "  %s %s %s %d/%d", frame, Subtle("%s", p.label), progressBar(percent, 20), p.current, p.total)
		return
	}
	fmt.Fprintf(p.w, "  %s %s %d", frame, Subtle("%s", p.label), p.current)
}

func (p *spinner) SetLabel(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.label = label
}

func (p *spinner) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

func (p *spinner) Tick(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += delta
	if p.total > 0 && p.current > p.total {
		p.current = p.total
	}
}

func (p *spinner) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return
	}
	p.done = true
	close(p.stop)
	fmt.Fprint(p.w, "\r\033[K")
}

func progressBar(percent, width int) string {
	filled := percent * width / 100
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if IsRich() {
		return Accent("%s", bar)
	}
	return bar
}

// NoProgress discards every update.
var NoProgress Progress = noopProgress{}

type noopProgress struct{}

func (noopProgress) SetLabel(string) {}
func (noopProgress) SetTotal(int)    {}
func (noopProgress) Tick(int)        {}
func (noopProgress) Done()           {}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
