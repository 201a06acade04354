package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/llir/llvm/asm"
	"github.com/llir/llvm/ir"

	"emberlink/internal/backend"
	"emberlink/internal/cleanup"
	"emberlink/internal/diag"
	"emberlink/internal/linkpipeline"
	"emberlink/internal/manifest"
	"emberlink/internal/observ"
	"emberlink/internal/reflection"
	"emberlink/internal/source"
)

const defaultMaxDiagnostics = 100

// LinkedSuffix replaces the compiled module's .ll suffix on the output path.
const LinkedSuffix = ".linked.ll"

// FinalizeUnit runs the finalize pipeline for the single unit described by
// manifestPath. Unit-level failures land in the result's diagnostic bag; the
// error return is reserved for cancellation.
func FinalizeUnit(ctx context.Context, manifestPath string, opts Options) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	emitQueued(opts.Sink, []string{UnitLabel(manifestPath)})
	unit := finalizeUnit(manifestPath, opts)

	result := &Result{Units: []*UnitResult{unit}}
	accumulateTimings(&result.Timings, unit)
	return result, nil
}

// finalizeUnit drives one unit start to finish. Every stage reports progress
// through the sink; the first failing stage stops the unit.
func finalizeUnit(manifestPath string, opts Options) *UnitResult {
	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = defaultMaxDiagnostics
	}

	label := UnitLabel(manifestPath)
	dir := filepath.Dir(manifestPath)
	timer := observ.NewTimer()
	bag := diag.NewBag(maxDiag)
	fset := source.NewFileSetWithBase(dir)
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: bag})

	res := &UnitResult{
		Dir:          dir,
		ManifestPath: manifestPath,
		Bag:          bag,
		Fset:         fset,
	}

	// Stage: manifest.
	emitStage(opts.Sink, label, linkpipeline.StageManifest, linkpipeline.StatusWorking, nil, 0)
	stageStart := time.Now()
	phase := timer.Begin(string(linkpipeline.StageManifest))
	man, err := manifest.Load(fset, manifestPath, reporter)
	timer.End(phase, "")
	if err != nil {
		if !errors.Is(err, manifest.ErrInvalid) {
			bag.Add(diag.Diagnostic{
				Severity: diag.SevError,
				Code:     diag.IOLoadFileError,
				Message:  "failed to load manifest: " + err.Error(),
				Primary:  source.Span{},
			})
		}
		emitStage(opts.Sink, label, linkpipeline.StageManifest, linkpipeline.StatusError, err, 0)
		return finishUnit(res, timer, opts, label)
	}
	res.Unit = man.Unit
	res.ModulePath = man.ModulePath
	res.OutPath = opts.OutPath
	if res.OutPath == "" {
		res.OutPath = linkedPath(man.ModulePath)
	}
	res.Stages.Set(linkpipeline.StageManifest, time.Since(stageStart))
	emitStage(opts.Sink, label, linkpipeline.StageManifest, linkpipeline.StatusDone, nil, time.Since(stageStart))

	// Stage: parse.
	emitStage(opts.Sink, label, linkpipeline.StageParse, linkpipeline.StatusWorking, nil, 0)
	stageStart = time.Now()
	phase = timer.Begin(string(linkpipeline.StageParse))
	m, err := asm.ParseFile(man.ModulePath)
	timer.End(phase, "")
	if err != nil {
		code := diag.LnkBadModule
		msg := fmt.Sprintf("failed to parse compiled module %s: %v", man.ModulePath, err)
		if errors.Is(err, fs.ErrNotExist) {
			code = diag.IOLoadFileError
			msg = fmt.Sprintf("failed to load compiled module %s: %v", man.ModulePath, err)
		}
		reporter.Report(code, diag.SevError, man.Unit.Span, msg, nil)
		emitStage(opts.Sink, label, linkpipeline.StageParse, linkpipeline.StatusError, err, 0)
		return finishUnit(res, timer, opts, label)
	}
	res.Stages.Set(linkpipeline.StageParse, time.Since(stageStart))
	emitStage(opts.Sink, label, linkpipeline.StageParse, linkpipeline.StatusDone, nil, time.Since(stageStart))

	// Stage: cleanup.
	emitStage(opts.Sink, label, linkpipeline.StageCleanup, linkpipeline.StatusWorking, nil, 0)
	stageStart = time.Now()
	phase = timer.Begin(string(linkpipeline.StageCleanup))
	_, err = cleanup.Synthesize(man.Unit, m, reporter)
	timer.End(phase, "")
	if err != nil {
		// Diagnostics are already in the bag.
		emitStage(opts.Sink, label, linkpipeline.StageCleanup, linkpipeline.StatusError, err, 0)
		return finishUnit(res, timer, opts, label)
	}
	res.Stages.Set(linkpipeline.StageCleanup, time.Since(stageStart))
	emitStage(opts.Sink, label, linkpipeline.StageCleanup, linkpipeline.StatusDone, nil, time.Since(stageStart))

	// Stage: finalize.
	emitStage(opts.Sink, label, linkpipeline.StageFinalize, linkpipeline.StatusWorking, nil, 0)
	stageStart = time.Now()
	phase = timer.Begin(string(linkpipeline.StageFinalize))
	err = backend.New(reporter, man.Target).Finalize(man.Unit, m)
	timer.End(phase, "")
	if err != nil {
		// The export gate reported the rejection already.
		emitStage(opts.Sink, label, linkpipeline.StageFinalize, linkpipeline.StatusError, err, 0)
		return finishUnit(res, timer, opts, label)
	}
	res.Stages.Set(linkpipeline.StageFinalize, time.Since(stageStart))
	emitStage(opts.Sink, label, linkpipeline.StageFinalize, linkpipeline.StatusDone, nil, time.Since(stageStart))

	// Stage: write.
	emitStage(opts.Sink, label, linkpipeline.StageWrite, linkpipeline.StatusWorking, nil, 0)
	stageStart = time.Now()
	phase = timer.Begin(string(linkpipeline.StageWrite))
	err = writeModule(res.OutPath, m)
	if err == nil {
		res.Wrote = true
		if opts.ReflectOut != "" {
			err = writeSidecar(opts.ReflectOut, man)
		}
	}
	timer.End(phase, "")
	if err != nil {
		reporter.Report(diag.IOWriteFileError, diag.SevError, man.Unit.Span, err.Error(), nil)
		emitStage(opts.Sink, label, linkpipeline.StageWrite, linkpipeline.StatusError, err, 0)
		return finishUnit(res, timer, opts, label)
	}
	res.Stages.Set(linkpipeline.StageWrite, time.Since(stageStart))
	emitStage(opts.Sink, label, linkpipeline.StageWrite, linkpipeline.StatusDone, nil, time.Since(stageStart))

	return finishUnit(res, timer, opts, label)
}

func finishUnit(res *UnitResult, timer *observ.Timer, opts Options, label string) *UnitResult {
	res.Timing = timer.Report()
	if opts.Timings {
		appendTimingDiagnostic(res.Bag, res.Timing, label)
	}
	return res
}

// writeSidecar builds the reflection manifest and writes it atomically.
func writeSidecar(path string, man *manifest.Manifest) error {
	refl, err := reflection.Build(man.Unit, man.Target)
	if err != nil {
		return err
	}
	return reflection.Write(path, refl)
}

// writeModule renders m to LLVM assembly and atomically replaces path.
func writeModule(path string, m *ir.Module) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.CreateTemp(dir, ".emberlink-*.ll")
	if err != nil {
		return fmt.Errorf("failed to create temp output: %w", err)
	}
	tmpName := f.Name()
	if _, err := f.WriteString(m.String()); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write linked module: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// linkedPath derives the default output path from the compiled module path.
func linkedPath(modulePath string) string {
	return strings.TrimSuffix(modulePath, ".ll") + LinkedSuffix
}

// UnitLabel is the display form of a unit in progress events.
func UnitLabel(manifestPath string) string {
	return filepath.ToSlash(filepath.Dir(manifestPath))
}

func accumulateTimings(total *linkpipeline.Timings, unit *UnitResult) {
	stages := []linkpipeline.Stage{
		linkpipeline.StageManifest,
		linkpipeline.StageParse,
		linkpipeline.StageCleanup,
		linkpipeline.StageFinalize,
		linkpipeline.StageWrite,
	}
	for _, stage := range stages {
		if unit.Stages.Has(stage) {
			total.Add(stage, unit.Stages.Duration(stage))
		}
	}
}
