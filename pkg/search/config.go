// Package search drives the parallel dictionary attack: it streams words,
// expands them through a rule set, fans candidates out to a worker pool and
// checkpoints progress between batches.
package search

import (
	"runtime"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/checkpoint"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/wordlist"
)

// DefaultBatchSize is the number of words pulled from the source per batch.
const DefaultBatchSize = 1000

// Tester reports whether a candidate password matches the target.
type Tester interface {
	Test(candidate string) bool
}

// WordSource opens a pass over a word list starting at a word offset.
type WordSource interface {
	Stream(start uint64) (*wordlist.Stream, error)
}

// Config controls a search run.
type Config struct {
	// Workers is the pool size. Zero or less selects runtime.NumCPU.
	Workers int

	// BatchSize is the number of words per batch. Zero or less selects
	// DefaultBatchSize.
	BatchSize int

	CheckpointPath     string
	CheckpointInterval uint64

	// Resume loads CheckpointPath before streaming.
	Resume bool

	// Checkpointing enables checkpoint writes.
	Checkpointing bool
}

// DefaultConfig returns the configuration used by the CLI when nothing is
// overridden.
func DefaultConfig() Config {
	return Config{
		Workers:            runtime.NumCPU(),
		BatchSize:          DefaultBatchSize,
		CheckpointPath:     checkpoint.DefaultPath,
		CheckpointInterval: checkpoint.DefaultInterval,
		Checkpointing:      true,
	}
}

func (c Config) normalized() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}

	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}

	if c.CheckpointPath == "" {
		c.CheckpointPath = checkpoint.DefaultPath
	}

	if c.CheckpointInterval == 0 {
		c.CheckpointInterval = checkpoint.DefaultInterval
	}

	return c
}
