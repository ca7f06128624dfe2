package pipeline

import (
	"bufio"
	"context"
	"io"

	"github.com/oarkflow/segtag/nlp/morphology"
	"github.com/oarkflow/segtag/nlp/tokenizer"
)

// Stream reads whitespace-separated text from r, analyzes every word token in
// batches and calls handler with each result in input order. Handler errors
// stop the stream.
func Stream(ctx context.Context, r io.Reader, a Analyzer, opts Options, handler func(morphology.Result) error) error {
	workers, lim, size := opts.workers(), opts.limiter(), opts.batchSize()

	flush := func(batch []string) error {
		results, err := run(ctx, a, batch, workers, lim)
		if err != nil {
			return err
		}
		for _, res := range results {
			if err := handler(res); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	batch := make([]string, 0, size)
	for scanner.Scan() {
		for _, w := range tokenizer.Words(scanner.Text()) {
			if opts.Skip != nil && opts.Skip(w) {
				continue
			}
			batch = append(batch, w)
			if len(batch) == size {
				if err := flush(batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return flush(batch)
	}
	return nil
}
