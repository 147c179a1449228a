package engine

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/redditlens/internal/model"
)

// DefaultBatchConcurrency bounds how many communities run at once.
// Each run is still single-threaded internally; the bound only limits
// how many independent runs proceed in parallel.
const DefaultBatchConcurrency = 3

// BatchRunner executes full analysis runs for several communities.
type BatchRunner struct {
	engine      *Engine
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithConcurrency bounds the number of concurrent runs.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchLogger sets a custom logger for batch execution.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		b.logger = logger
	}
}

// NewBatchRunner creates a BatchRunner over an engine.
func NewBatchRunner(engine *Engine, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		engine:      engine,
		concurrency: DefaultBatchConcurrency,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Run analyzes every community and returns the final states in input
// order. A failed run occupies its slot with a failed state; only context
// cancellation or an engine wiring defect aborts the batch.
func (b *BatchRunner) Run(ctx context.Context, communities []string, opts ...model.RunOption) ([]*model.RunState, error) {
	results := make([]*model.RunState, len(communities))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, community := range communities {
		g.Go(func() error {
			state, err := b.engine.Run(ctx, community, opts...)
			results[i] = state
			if err != nil {
				b.logger.Error("batch run aborted", "community", community, "error", err)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
