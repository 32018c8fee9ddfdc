package aec

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job codes one independently decodable unit, such as a slice or an LCU
// row, into e. Jobs share no coder state.
type Job func(ctx context.Context, e *Encoder) error

// Result is the outcome of one Job.
type Result struct {
	// Data is the finished bitstream of an exact job, nil for estimates.
	Data []byte
	// Bits is the number of bits written or estimated before Finish.
	Bits int
}

// EncodeParallel runs jobs concurrently, one Encoder per job, with at most
// o.Workers jobs in flight. Exact jobs code into their own bufSize byte
// buffer. Results are returned in job order.
//
// The first job error cancels the jobs that have not started yet and is
// returned. Cancelling ctx does the same.
func EncodeParallel(ctx context.Context, jobs []Job, bufSize int, o *Options) ([]Result, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if bufSize <= 0 && o.Backend == Exact {
		return nil, fmt.Errorf("buffer size %d for exact jobs: %w", bufSize, ErrInvalidOptions)
	}

	logger := newLogger(o.LoggerFactory)
	results := make([]Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers())
	for i, job := range jobs {
		i, job := i, job
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var buf []byte
			if o.Backend == Exact {
				buf = make([]byte, bufSize)
			}
			e, err := NewEncoder(buf, o)
			if err != nil {
				return err
			}
			if err := job(gctx, e); err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			results[i] = Result{Bits: e.Bits()}
			results[i].Data = e.Finish()
			logger.Debugf("job %d: %d bits", i, results[i].Bits)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Jobs skipped after a cancellation leave no error behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
