package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/safeconv"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/search"
)

// DefaultProgressInterval is the minimum run time between progress lines.
const DefaultProgressInterval = 2 * time.Second

// BannerInfo describes a run before it starts.
type BannerInfo struct {
	Iterations   uint32
	SaltLength   int
	Rules        int
	Wordlist     string
	WordlistSize int64
	Compressed   bool
	// Words is the number of words in the list, zero when not counted.
	Words        uint64
	Workers      int
	BatchSize    int
	Resume       bool
}

// Banner writes the run parameters.
func Banner(w io.Writer, b BannerInfo) error {
	details := ""
	if b.Compressed {
		details = ", lz4"
	}

	if b.Words > 0 {
		details += ", " + humanize.Comma(safeconv.SaturatingInt64(b.Words)) + " words"
	}

	resume := ""
	if b.Resume {
		resume = " (resuming)"
	}

	_, err := fmt.Fprintf(w,
		"Target:    PBKDF2-HMAC-SHA256, %s iterations, %d-byte salt\n"+
			"Word list: %s (%s%s)\n"+
			"Rules:     %s per word\n"+
			"Workers:   %d, batch %s words%s\n",
		humanize.Comma(int64(b.Iterations)), b.SaltLength,
		b.Wordlist, humanize.Bytes(uint64(max(b.WordlistSize, 0))), details,
		humanize.Comma(int64(b.Rules)),
		b.Workers, humanize.Comma(int64(b.BatchSize)), resume,
	)
	if err != nil {
		return fmt.Errorf("write banner: %w", err)
	}

	return nil
}

// ProgressLine formats a snapshot as a single status line.
func ProgressLine(s search.Snapshot) string {
	return fmt.Sprintf("[%s] attempts %s | words %s | offset %s | %s",
		s.Elapsed.Round(time.Second),
		humanize.Comma(safeconv.SaturatingInt64(s.Attempts)),
		humanize.Comma(safeconv.SaturatingInt64(s.WordsConsumed)),
		humanize.Comma(safeconv.SaturatingInt64(s.LastOffset)),
		formatRate(s.Rate),
	)
}

// ProgressPrinter writes progress lines no more often than its interval,
// measured in run time. It is meant to be used as a search progress
// callback and is not safe for concurrent use.
type ProgressPrinter struct {
	w        io.Writer
	interval time.Duration
	last     time.Duration
}

// NewProgressPrinter returns a printer writing to w. A non-positive
// interval selects DefaultProgressInterval.
func NewProgressPrinter(w io.Writer, interval time.Duration) *ProgressPrinter {
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	return &ProgressPrinter{w: w, interval: interval}
}

// Print writes s when at least one interval has passed since the last
// printed snapshot. It reports whether a line was written.
func (p *ProgressPrinter) Print(s search.Snapshot) bool {
	if s.Elapsed-p.last < p.interval {
		return false
	}

	p.last = s.Elapsed

	_, err := fmt.Fprintln(p.w, ProgressLine(s))

	return err == nil
}
