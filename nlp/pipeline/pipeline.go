// Package pipeline maps the segmentation engine over many words concurrently.
package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/oarkflow/segtag/nlp/morphology"
)

// Analyzer is the part of *morphology.Analyzer the pipeline needs.
type Analyzer interface {
	Analyze(word string) morphology.Result
}

type Options struct {
	// Workers bounds concurrent analyses; zero means GOMAXPROCS.
	Workers int
	// RatePerSecond throttles analyses; zero disables throttling.
	RatePerSecond float64
	// BatchSize is the number of words Stream buffers per round; zero means 256.
	BatchSize int
	// Skip drops tokens from Stream before analysis.
	Skip func(word string) bool
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return 256
}

func (o Options) limiter() *rate.Limiter {
	if o.RatePerSecond <= 0 {
		return nil
	}
	burst := int(o.RatePerSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(o.RatePerSecond), burst)
}

// Run analyzes words and returns results in input order. It stops early and
// returns ctx.Err() when ctx is cancelled.
func Run(ctx context.Context, a Analyzer, words []string, opts Options) ([]morphology.Result, error) {
	return run(ctx, a, words, opts.workers(), opts.limiter())
}

func run(ctx context.Context, a Analyzer, words []string, workers int, lim *rate.Limiter) ([]morphology.Result, error) {
	results := make([]morphology.Result, len(words))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, w := range words {
		if lim != nil {
			if err := lim.Wait(gctx); err != nil {
				_ = g.Wait()
				return nil, ctxErr(ctx, err)
			}
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.Analyze(w)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ctxErr maps a limiter failure onto the context error. The limiter fails
// early when the next token would arrive after the deadline.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}
