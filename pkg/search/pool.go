package search

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

const noHit = -1

// candidate is one rule output tagged with the word it came from.
type candidate struct {
	text   string
	word   string
	offset uint64
}

// batch is the unit of work handed to the pool. Workers claim candidates
// through cursor until it runs past the end.
type batch struct {
	candidates []candidate
	cursor     atomic.Int64
	hit        atomic.Int64
	wg         sync.WaitGroup
}

func newBatch(candidates []candidate) *batch {
	b := &batch{candidates: candidates}
	b.hit.Store(noHit)

	return b
}

// winner returns the candidate whose match was published, if it belongs
// to this batch.
func (b *batch) winner() (candidate, bool) {
	idx := b.hit.Load()
	if idx == noHit {
		return candidate{}, false
	}

	return b.candidates[idx], true
}

// Pool is a fixed set of goroutines created once per run and fed one batch
// at a time.
type Pool struct {
	size     int
	tester   Tester
	progress *Progress
	work     chan *batch
	group    errgroup.Group
}

// NewPool starts size workers testing candidates with tester.
func NewPool(size int, tester Tester, progress *Progress) *Pool {
	p := &Pool{
		size:     size,
		tester:   tester,
		progress: progress,
		work:     make(chan *batch, size),
	}

	for range size {
		p.group.Go(func() error {
			for b := range p.work {
				p.drain(b)
			}

			return nil
		})
	}

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// run hands b to every worker and blocks until all of them are done with it.
func (p *Pool) run(b *batch) {
	b.wg.Add(p.size)

	for range p.size {
		p.work <- b
	}

	b.wg.Wait()
}

func (p *Pool) drain(b *batch) {
	defer b.wg.Done()

	n := int64(len(b.candidates))

	for {
		if p.progress.Stopped() {
			return
		}

		idx := b.cursor.Add(1) - 1
		if idx >= n {
			return
		}

		c := b.candidates[idx]
		matched := p.tester.Test(c.text)
		p.progress.AddAttempt()

		if matched && p.progress.PublishFound(c.text) {
			b.hit.Store(idx)

			return
		}
	}
}

// Close stops the workers and waits for them to exit.
func (p *Pool) Close() error {
	close(p.work)

	return p.group.Wait()
}
