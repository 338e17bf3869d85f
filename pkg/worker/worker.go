package worker

import (
	"context"

	"github.com/nimasrn/sms-portal/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Job processes item i. Returning an error cancels the ctx passed to jobs
// that have not finished yet.
type Job = func(ctx context.Context, i int) error

// ForEach runs job for every index in [0, count) with at most limit jobs in
// flight. Jobs are started in index order; a limit of 1 runs them
// sequentially. It returns the first job error.
func ForEach(ctx context.Context, limit, count int, job Job) error {
	if count <= 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < count; i++ {
		if gctx.Err() != nil {
			logger.Debug("worker: stop scheduling", "next", i, "count", count)
			break
		}
		idx := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return job(gctx, idx)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
