// Package inventory runs the extraction pipeline over a set of input
// files and aggregates the per-file results in command-line order.
package inventory

import (
	"context"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	svinverr "svinv/internal/errors"
	"svinv/internal/extractor"
	"svinv/internal/logging"
	"svinv/internal/output"
	"svinv/internal/storage"
)

// Options configures one processing run.
type Options struct {
	FrontEnd FrontEnd        // required
	Workers  int             // defaults to GOMAXPROCS
	FailFast bool            // stop dispatching after the first failure
	Cache    *storage.Cache  // optional lookaside cache
	Logger   *logging.Logger // required
}

// FileError is one file's failure, attributed for diagnostics.
type FileError struct {
	Path string
	Err  error
}

// Result aggregates one run. Files holds the successful results in input
// order (failed files are omitted); Errors holds the failures in input
// order.
type Result struct {
	RunID  string
	Files  []output.FileInventory
	Errors []FileError
}

// OK reports whether every input file succeeded.
func (r *Result) OK() bool {
	return len(r.Errors) == 0
}

// fileSlot is the position-indexed outcome of one input file. Indexing by
// input position keeps the aggregate ordered no matter which worker
// finishes first.
type fileSlot struct {
	inv output.FileInventory
	err error
}

// Process extracts the inventory of every path. Files are processed
// independently by a bounded worker pool; no state is shared across files
// beyond the cache and the final indexed join.
func Process(ctx context.Context, paths []string, opts Options) (*Result, error) {
	runID := uuid.New().String()
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	opts.Logger.Debug("Starting extraction run", map[string]interface{}{
		"run_id":  runID,
		"files":   len(paths),
		"workers": workers,
	})

	slots := make([]fileSlot, len(paths))
	indexes := make(chan int)
	var failed atomic.Bool

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				slots[i].inv, slots[i].err = processFile(paths[i], opts)
				if slots[i].err != nil {
					failed.Store(true)
				}
			}
		}()
	}

dispatch:
	for i := range paths {
		if opts.FailFast && failed.Load() {
			break
		}
		select {
		case indexes <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(indexes)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{RunID: runID, Files: make([]output.FileInventory, 0, len(paths))}
	for i, slot := range slots {
		switch {
		case slot.err != nil:
			result.Errors = append(result.Errors, FileError{Path: paths[i], Err: slot.err})
		case slot.inv.FileName != "":
			result.Files = append(result.Files, slot.inv)
		}
		// A zero slot means dispatch stopped before reaching this file.
	}

	opts.Logger.Info("Extraction run finished", map[string]interface{}{
		"run_id":    runID,
		"succeeded": len(result.Files),
		"failed":    len(result.Errors),
	})
	return result, nil
}

// processFile runs the per-file pipeline: read, cache probe, parse,
// collect, cache fill.
func processFile(path string, opts Options) (output.FileInventory, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return output.FileInventory{}, svinverr.Wrap(svinverr.FileUnreadable, "cannot read source file", err).InFile(path)
	}

	var digest string
	if opts.Cache != nil {
		digest = storage.Digest(content)
		if modules, hit, err := opts.Cache.Get(path, digest); err == nil && hit {
			opts.Logger.Debug("Cache hit", map[string]interface{}{"path": path})
			return output.FileFromModules(path, modules), nil
		}
	}

	tree, err := opts.FrontEnd.Parse(path, content)
	if err != nil {
		return output.FileInventory{}, err
	}

	modules, err := extractor.Collect(tree)
	if err != nil {
		return output.FileInventory{}, err
	}

	if opts.Cache != nil {
		if err := opts.Cache.Put(path, digest, modules); err != nil {
			// A cache write failure costs a re-parse next run, nothing more.
			opts.Logger.Warn("Cache write failed", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
	}

	return output.FileFromModules(path, modules), nil
}
