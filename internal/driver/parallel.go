package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FinalizeDir finalizes every unit found under root, in parallel. Each unit
// gets its own FileSet, module and diagnostic bag, so the goroutines share
// nothing beyond the result slice, which they index disjointly.
func FinalizeDir(ctx context.Context, root string, opts Options) (*Result, error) {
	manifests, err := ListManifests(root)
	if err != nil {
		return nil, err
	}
	if len(manifests) == 0 {
		return &Result{}, nil
	}
	if len(manifests) > 1 && (opts.OutPath != "" || opts.ReflectOut != "") {
		return nil, fmt.Errorf("output overrides apply to a single unit, found %d under %s", len(manifests), root)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	labels := make([]string, len(manifests))
	for i, path := range manifests {
		labels[i] = UnitLabel(path)
	}
	emitQueued(opts.Sink, labels)

	// Indexed slots, one per goroutine, so no mutex is needed.
	units := make([]*UnitResult, len(manifests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(manifests)))

	for i, path := range manifests {
		g.Go(func(i int, path string) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				units[i] = finalizeUnit(path, opts)
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return collectUnits(units), err
	}

	return collectUnits(units), nil
}

// collectUnits drops the slots of units that never ran because the run was
// cancelled, and aggregates stage timings over the rest.
func collectUnits(units []*UnitResult) *Result {
	res := &Result{Units: make([]*UnitResult, 0, len(units))}
	for _, u := range units {
		if u == nil {
			continue
		}
		res.Units = append(res.Units, u)
		accumulateTimings(&res.Timings, u)
	}
	return res
}
