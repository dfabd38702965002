package localnav

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/jward/localnav/internal/store"
)

// indexFilesParallel indexes files using a three-phase pipeline:
//
//	Phase A (serial):   Hash check, delete old data, prepare file records.
//	Phase B (parallel): Parse and resolve on a bounded worker pool, each
//	                    file buffering into its own BatchedStore.
//	Phase C (serial):   Commit batches to SQLite.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string) (int, error) {
	var errs []error

	// ---- Phase A: Serial file preparation ----
	var items []workItem
	for _, path := range paths {
		item, skip, err := e.prepareFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		item.batch = store.NewBatchedStore(e.store)
		items = append(items, item)
	}

	// ---- Phase B: Parallel resolution ----
	results := make([]error, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount(len(items)))
	for i := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.resolveFile(gctx, items[i], items[i].batch)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, item := range items {
			e.dropFile(item)
		}
		return 0, err
	}

	// ---- Phase C: Serial commit ----
	indexed := 0
	for i, item := range items {
		if results[i] != nil {
			e.dropFile(item)
			errs = append(errs, fmt.Errorf("resolve %s: %w", item.path, results[i]))
			continue
		}
		if err := e.store.CommitBatch(item.batch); err != nil {
			e.dropFile(item)
			errs = append(errs, fmt.Errorf("commit %s: %w", item.path, err))
			continue
		}
		indexed++
	}

	if len(errs) > 0 {
		return indexed, fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return indexed, nil
}

func (e *Engine) workerCount(items int) int {
	n := e.workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, items))
}
