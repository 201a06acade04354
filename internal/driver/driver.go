// Package driver orchestrates finalize runs: it discovers unit manifests,
// parses each compiled module, runs the cleanup and finalize passes, and
// writes the linked output. Units share nothing, so the driver is free to
// process them in parallel.
package driver

import (
	"time"

	"emberlink/internal/diag"
	"emberlink/internal/export"
	"emberlink/internal/linkpipeline"
	"emberlink/internal/observ"
	"emberlink/internal/source"
)

// Options configures a finalize run.
type Options struct {
	// OutPath overrides the linked-module path. Valid for single-unit runs
	// only.
	OutPath string
	// ReflectOut writes a reflection sidecar to the given path. Valid for
	// single-unit runs only.
	ReflectOut string
	// Jobs bounds unit-level parallelism; values <= 0 mean GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps each unit's diagnostic bag.
	MaxDiagnostics int
	// Timings appends a timing report diagnostic to each unit's bag.
	Timings bool
	// Sink receives progress events; nil disables progress reporting.
	Sink linkpipeline.ProgressSink
}

// UnitResult is the outcome of finalizing one unit.
type UnitResult struct {
	// Dir is the unit root, the directory holding the manifest.
	Dir          string
	ManifestPath string
	// Unit is nil when the manifest failed to load or validate.
	Unit *export.Unit
	// ModulePath is the compiled IR input named by the manifest.
	ModulePath string
	// OutPath is the linked-module destination; Wrote reports whether it
	// was actually written.
	OutPath string
	Wrote   bool
	Bag     *diag.Bag
	// Fset resolves the spans of the unit's diagnostics.
	Fset *source.FileSet
	// Stages holds per-stage wall time; Timing is the same data in the
	// serializable phase-report form.
	Stages linkpipeline.Timings
	Timing observ.Report
}

// Failed reports whether the unit produced at least one error diagnostic.
func (r *UnitResult) Failed() bool {
	return r.Bag != nil && r.Bag.HasErrors()
}

// Result aggregates a finalize run over one or more units.
type Result struct {
	Units   []*UnitResult
	Timings linkpipeline.Timings
}

// Failed reports whether any unit in the run failed.
func (r *Result) Failed() bool {
	for _, u := range r.Units {
		if u.Failed() {
			return true
		}
	}
	return false
}

func emitQueued(sink linkpipeline.ProgressSink, units []string) {
	if sink == nil {
		return
	}
	for _, unit := range units {
		sink.OnEvent(linkpipeline.Event{Unit: unit, Stage: linkpipeline.StageManifest, Status: linkpipeline.StatusQueued})
	}
}

func emitStage(sink linkpipeline.ProgressSink, unit string, stage linkpipeline.Stage, status linkpipeline.Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(linkpipeline.Event{Unit: unit, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
