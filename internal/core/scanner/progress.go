package scanner

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressCallback receives one update per discovered session.
type ProgressCallback interface {
	Update(sessionKey string)
	Finish()
}

// ProgressReporter draws a terminal progress bar during a scan.
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	startTime time.Time
}

// NewProgressReporter creates a reporter for an expected total.
func NewProgressReporter(w io.Writer, total int) *ProgressReporter {
	return &ProgressReporter{writer: w, total: total, startTime: time.Now()}
}

// Update advances the bar and shows the session just indexed.
func (p *ProgressReporter) Update(sessionKey string) {
	p.current++
	if p.total <= 0 {
		_, _ = fmt.Fprintf(p.writer, "\rIndexed %d sessions", p.current)
		return
	}

	pct := float64(p.current) / float64(p.total) * 100

	barWidth := 40
	filled := int(float64(barWidth) * float64(p.current) / float64(p.total))
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	display := sessionKey
	if len(display) > 50 {
		display = display[:47] + "..."
	}

	elapsed := time.Since(p.startTime)
	rate := float64(p.current) / elapsed.Seconds()
	remaining := float64(p.total-p.current) / rate
	eta := time.Duration(remaining) * time.Second

	_, _ = fmt.Fprintf(p.writer, "\r[%s] %3.0f%% (%d/%d) ETA: %s | %s",
		bar, pct, p.current, p.total, eta.Round(time.Second), display)
}

// Finish completes the progress display.
func (p *ProgressReporter) Finish() {
	elapsed := time.Since(p.startTime)
	_, _ = fmt.Fprintf(p.writer, "\nIndexed %d sessions in %s\n", p.current, elapsed.Round(time.Millisecond))
}
