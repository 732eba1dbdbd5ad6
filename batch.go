package applylm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ieee0824/applylm-go/compose"
	"github.com/ieee0824/applylm-go/fst"
)

// Result is the outcome of one lattice in a batch.
type Result struct {
	Lattice *fst.VectorFST[fst.TropicalWeight]
	Stats   compose.Stats
	Skipped bool // input was empty; Lattice is nil
	Err     error
}

// ApplyBatch rescores lattices on a pool of workers, each owning one engine.
// Results are returned in input order. Empty or nil lattices are marked
// Skipped and do not fail the batch. Other failures are recorded per result
// and joined into the returned error.
func (a *Applier) ApplyBatch(ctx context.Context, lattices []*fst.VectorFST[fst.TropicalWeight]) ([]Result, error) {
	runID := uuid.NewString()
	workers := min(a.workers(), len(lattices))
	log := a.Logger.With("run", runID)
	log.Info("Applying language model", "lattices", len(lattices), "workers", workers)

	results := make([]Result, len(lattices))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			e := a.NewEngine()
			e.SetLogger(log.With("worker", w))
			for i := range jobs {
				if lattices[i] == nil {
					results[i] = Result{Skipped: true}
					continue
				}
				out, err := e.Compose(ctx, lattices[i])
				switch {
				case errors.Is(err, compose.ErrEmptyLattice):
					results[i] = Result{Skipped: true}
				case err != nil:
					results[i] = Result{Err: fmt.Errorf("lattice %d: %w", i, err)}
				default:
					results[i] = Result{Lattice: out, Stats: e.Stats()}
				}
			}
		}(w)
	}

feed:
	for i := range lattices {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	var errs []error
	skipped := 0
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
		if r.Skipped {
			skipped++
		}
	}
	log.Info("Batch done", "lattices", len(lattices), "skipped", skipped, "failed", len(errs))
	return results, errors.Join(errs...)
}
