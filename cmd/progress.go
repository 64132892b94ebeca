package cmd

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

const detailWidth = 72

// progress draws one target release on two terminal lines: the current step
// with a step bar, and the latest build tool output line under it.
type progress struct {
	out    io.Writer
	target string
	spin   spinner.Spinner

	mu      sync.Mutex
	step    int
	total   int
	label   string
	detail  string
	started time.Time

	done chan struct{}
	wg   sync.WaitGroup
}

func newProgress(out io.Writer, target string) *progress {
	return &progress{
		out:    out,
		target: target,
		spin:   spinner.MiniDot,
		done:   make(chan struct{}),
	}
}

// setStep is a release.Releaser OnStep callback.
func (p *progress) setStep(step, total int, label string) {
	p.mu.Lock()
	p.step, p.total, p.label = step, total, label
	p.detail = ""
	p.mu.Unlock()
}

// setDetail is a release.Releaser OnLine callback.
func (p *progress) setDetail(line string) {
	p.mu.Lock()
	p.detail = truncate(line, detailWidth)
	p.mu.Unlock()
}

func (p *progress) start() {
	p.started = time.Now()
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		tick := time.NewTicker(p.spin.FPS)
		defer tick.Stop()
		for i := 0; ; i++ {
			select {
			case <-p.done:
				return
			case <-tick.C:
				p.mu.Lock()
				status, detail := p.status(), p.detail
				p.mu.Unlock()

				frame := p.spin.Frames[i%len(p.spin.Frames)]
				// Draw both lines, then move the cursor back up so the next
				// tick overwrites them.
				fmt.Fprintf(p.out, "\r\033[K  %s %s\n\r\033[K    %s\033[1A", frame, status, dim.Render(detail))
			}
		}
	}()
}

// stop ends the render loop and replaces both lines with the outcome.
func (p *progress) stop(err error) {
	close(p.done)
	p.wg.Wait()
	fmt.Fprint(p.out, "\r\033[K\033[1B\r\033[K\033[1A")

	p.mu.Lock()
	defer p.mu.Unlock()
	took := time.Since(p.started).Round(100 * time.Millisecond)
	if err == nil {
		ok := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		fmt.Fprintf(p.out, "  %s %-8s %s  %s\n", ok.Render("✓"), p.target, stepBar(p.total, p.total), took)
		return
	}
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	fmt.Fprintf(p.out, "  %s %s  %s\n", bad.Render("✗"), p.status(), bad.Render("failed"))
}

// status renders the target, its step bar and the current step label.
// Callers hold p.mu.
func (p *progress) status() string {
	if p.total == 0 {
		return p.target
	}
	return fmt.Sprintf("%-8s %s %d/%d %s", p.target, stepBar(p.step, p.total), p.step, p.total, p.label)
}

// stepBar shows reached steps as filled dots.
func stepBar(step, total int) string {
	if total <= 0 {
		return ""
	}
	step = min(max(step, 0), total)
	return strings.Repeat("●", step) + strings.Repeat("○", total-step)
}

// truncate shortens s to at most width runes.
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
