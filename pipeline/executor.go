package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/vitalsink/vitalsink/chunk"
	"github.com/vitalsink/vitalsink/log"
	"github.com/vitalsink/vitalsink/metrics"
	"github.com/vitalsink/vitalsink/types"
)

// Executor runs planned chunks concurrently, bounded by a weighted
// semaphore. Chunks of different kinds interleave freely; ordering
// guarantees come from dedup and the store's constraints, not execution
// order.
type Executor struct {
	runner    *ChunkRunner
	parallel  int64
	collector *metrics.Collector
	logger    *log.Logger
}

// NewExecutor creates an executor running at most parallel chunks at once.
func NewExecutor(runner *ChunkRunner, parallel int, collector *metrics.Collector, logger *log.Logger) *Executor {
	if parallel < 1 {
		parallel = 1
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Executor{
		runner:    runner,
		parallel:  int64(parallel),
		collector: collector,
		logger:    logger,
	}
}

// Execute runs every chunk to a terminal state and returns outcomes in the
// same order as chunks. When ctx expires, chunks already in flight finish
// their current attempt; chunks not yet started are reported NotAttempted.
func (e *Executor) Execute(ctx context.Context, userID uuid.UUID, chunks []chunk.Chunk) []types.ChunkOutcome {
	outcomes := make([]types.ChunkOutcome, len(chunks))
	sem := semaphore.NewWeighted(e.parallel)
	var wg sync.WaitGroup

	for i := range chunks {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context gone before this chunk could start.
			for j := i; j < len(chunks); j++ {
				outcomes[j] = types.ChunkOutcome{
					Kind:  chunks[j].Kind,
					State: types.ChunkNotAttempted,
				}
				e.collector.IncChunkNotAttempted()
			}
			e.logger.Warn("deadline reached, remaining chunks not attempted", map[string]any{
				"not_attempted": len(chunks) - i,
			})
			break
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i] = e.runner.Run(ctx, userID, chunks[i])
		}(i)
	}

	wg.Wait()
	return outcomes
}
