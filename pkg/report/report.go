// Package report renders search banners, progress lines and final results
// for the terminal and for machine consumption.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/persist"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/safeconv"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/search"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const rateDigits = 2

// ErrUnknownFormat is returned by Write for an unsupported format name.
var ErrUnknownFormat = errors.New("report: unknown format")

// Meta describes the inputs of a run for the summary.
type Meta struct {
	Wordlist   string
	Iterations uint32
	Rules      int
	Workers    int
}

// Summary is the serializable result of a run.
type Summary struct {
	Outcome            string  `json:"outcome" yaml:"outcome"`
	Found              bool    `json:"found" yaml:"found"`
	Password           string  `json:"password,omitempty" yaml:"password,omitempty"`
	Word               string  `json:"word,omitempty" yaml:"word,omitempty"`
	WordOffset         *uint64 `json:"word_offset,omitempty" yaml:"word_offset,omitempty"`
	Attempts           uint64  `json:"attempts" yaml:"attempts"`
	CumulativeAttempts uint64  `json:"cumulative_attempts" yaml:"cumulative_attempts"`
	WordsConsumed      uint64  `json:"words_consumed" yaml:"words_consumed"`
	StartOffset        uint64  `json:"start_offset" yaml:"start_offset"`
	LastOffset         uint64  `json:"last_offset" yaml:"last_offset"`
	ElapsedSeconds     float64 `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	HashesPerSecond    float64 `json:"hashes_per_second" yaml:"hashes_per_second"`
	RunID              string  `json:"run_id" yaml:"run_id"`
	Wordlist           string  `json:"wordlist,omitempty" yaml:"wordlist,omitempty"`
	Iterations         uint32  `json:"iterations,omitempty" yaml:"iterations,omitempty"`
	Rules              int     `json:"rules,omitempty" yaml:"rules,omitempty"`
	Workers            int     `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// NewSummary combines a search result with the run inputs.
func NewSummary(res search.Result, meta Meta) Summary {
	s := Summary{
		Outcome:            string(res.Outcome),
		Found:              res.Outcome == search.OutcomeFound,
		Password:           res.Password,
		Word:               res.Word,
		Attempts:           res.TotalAttempts,
		CumulativeAttempts: res.CumulativeAttempts(),
		WordsConsumed:      res.WordsConsumed,
		StartOffset:        res.StartOffset,
		LastOffset:         res.LastOffset,
		ElapsedSeconds:     res.Elapsed.Seconds(),
		HashesPerSecond:    res.Rate(),
		RunID:              res.RunID,
		Wordlist:           meta.Wordlist,
		Iterations:         meta.Iterations,
		Rules:              meta.Rules,
		Workers:            meta.Workers,
	}

	if s.Found {
		offset := res.WordOffset
		s.WordOffset = &offset
	}

	return s
}

// Write renders s to w in the named format.
func Write(w io.Writer, format string, s Summary) error {
	switch format {
	case FormatText, "":
		return Text(w, s)
	case FormatJSON:
		return persist.NewJSONCodec().Encode(w, s)
	case FormatYAML:
		return persist.NewYAMLCodec().Encode(w, s)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Text renders a human-readable result box.
func Text(w io.Writer, s Summary) error {
	var err error

	if s.Found {
		_, err = color.New(color.FgGreen, color.Bold).Fprintf(w, "Password found: %s\n", s.Password)
	} else {
		_, err = color.New(color.FgYellow, color.Bold).Fprintln(w, "Password not found: word list exhausted")
	}

	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	if s.Found {
		tbl.AppendRow(table.Row{"Base word", s.Word})

		if s.WordOffset != nil {
			tbl.AppendRow(table.Row{"Word offset", humanize.Comma(safeconv.SaturatingInt64(*s.WordOffset))})
		}
	}

	tbl.AppendRow(table.Row{"Attempts", humanize.Comma(safeconv.SaturatingInt64(s.Attempts))})

	if s.CumulativeAttempts != s.Attempts {
		tbl.AppendRow(table.Row{"Attempts (all runs)", humanize.Comma(safeconv.SaturatingInt64(s.CumulativeAttempts))})
	}

	tbl.AppendRow(table.Row{"Words", humanize.Comma(safeconv.SaturatingInt64(s.WordsConsumed))})
	tbl.AppendRow(table.Row{"Elapsed", formatElapsed(s.ElapsedSeconds)})
	tbl.AppendRow(table.Row{"Rate", formatRate(s.HashesPerSecond)})
	tbl.AppendRow(table.Row{"Run ID", s.RunID})

	_, err = fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func formatElapsed(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond).String()
}

func formatRate(hps float64) string {
	return humanize.SIWithDigits(hps, rateDigits, "H/s")
}
