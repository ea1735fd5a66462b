// Package report renders the user-facing console output of a claim run.
// Diagnostics go through pkg/logger; this package only writes what the
// operator is meant to read.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	TimestampLayout = "2006-01-02 15:04:05"
	dividerWidth    = 60

	// clearLine moves the cursor to column 0 and erases the line.
	clearLine = "\r\x1b[2K"
)

// DefaultPlainInterval spaces countdown lines when the output is not a terminal.
const DefaultPlainInterval = time.Minute

// Timestamp formats t the way every status line is prefixed, always in UTC.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatRemaining renders d as "Xh Ym Zs", truncated to whole seconds.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// Reporter writes status lines, dividers and the cooldown countdown.
// It implements scheduler.ProgressReporter.
type Reporter struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time

	inPlace       bool
	plainInterval time.Duration

	// countdownOpen is set while an in-place countdown line has no newline yet.
	countdownOpen bool
	lastPlain     time.Time
}

type Option func(*Reporter)

// WithClock overrides the clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// WithInPlace forces in-place countdown rendering on or off.
func WithInPlace(inPlace bool) Option {
	return func(r *Reporter) {
		r.inPlace = inPlace
	}
}

// WithPlainInterval sets how often a non-terminal countdown prints a line.
func WithPlainInterval(d time.Duration) Option {
	return func(r *Reporter) {
		r.plainInterval = d
	}
}

// New creates a Reporter on out. The countdown is drawn in place when out is a terminal.
func New(out io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		out:           out,
		now:           time.Now,
		inPlace:       isTerminal(out),
		plainInterval: DefaultPlainInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stdout is the reporter used by the command line.
func Stdout() *Reporter {
	return New(os.Stdout)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Line writes a plain line.
func (r *Reporter) Line(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeLine(fmt.Sprintf(format, args...))
}

// Stamp writes a line prefixed with the current UTC timestamp.
func (r *Reporter) Stamp(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeLine(r.stamped(fmt.Sprintf(format, args...)))
}

// Step writes a completed pipeline step, e.g. "Status: Login completed... ✓".
func (r *Reporter) Step(step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeLine(fmt.Sprintf("Status: %s... ✓", step))
}

// Failure writes a failed status line.
func (r *Reporter) Failure(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeLine("Status: Failed - " + message)
}

func (r *Reporter) Divider() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeLine(strings.Repeat("-", dividerWidth))
}

// Blank writes an empty line.
func (r *Reporter) Blank() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeLine("")
}

// CooldownProgress draws the remaining cooldown.
func (r *Reporter) CooldownProgress(remaining time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	text := r.stamped("Waiting for next faucet claim: " + FormatRemaining(remaining))
	if r.inPlace {
		fmt.Fprint(r.out, clearLine+text)
		r.countdownOpen = true
		return
	}

	now := r.now()
	if !r.lastPlain.IsZero() && now.Sub(r.lastPlain) < r.plainInterval {
		return
	}
	r.lastPlain = now
	fmt.Fprintln(r.out, text)
}

// CooldownCompleted replaces the countdown with the completion notice.
func (r *Reporter) CooldownCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countdownOpen {
		fmt.Fprint(r.out, clearLine)
		r.countdownOpen = false
	}
	r.lastPlain = time.Time{}
	fmt.Fprintln(r.out, r.stamped("Status: Cooldown completed, attempting faucet claim..."))
}

func (r *Reporter) stamped(text string) string {
	return "[" + Timestamp(r.now()) + "] " + text
}

// writeLine terminates an open countdown line before writing.
func (r *Reporter) writeLine(text string) {
	if r.countdownOpen {
		fmt.Fprintln(r.out)
		r.countdownOpen = false
	}
	fmt.Fprintln(r.out, text)
}
