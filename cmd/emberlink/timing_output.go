package main

import (
	"fmt"
	"io"
	"time"

	"emberlink/internal/linkpipeline"
)

func printStageTimings(out io.Writer, timings linkpipeline.Timings, includeWrite bool) {
	if out == nil {
		return
	}
	var printErr error
	if timings.Has(linkpipeline.StageManifest) {
		_, printErr = fmt.Fprintf(out, "manifest %.1f ms\n", toMillis(timings.Duration(linkpipeline.StageManifest)))
		if printErr != nil {
			panic(printErr)
		}
	}
	if timings.Has(linkpipeline.StageParse) {
		_, printErr = fmt.Fprintf(out, "parsed %.1f ms\n", toMillis(timings.Duration(linkpipeline.StageParse)))
		if printErr != nil {
			panic(printErr)
		}
	}
	if timings.Has(linkpipeline.StageCleanup) || timings.Has(linkpipeline.StageFinalize) {
		finalized := timings.Sum(linkpipeline.StageCleanup, linkpipeline.StageFinalize)
		_, printErr = fmt.Fprintf(out, "finalized %.1f ms\n", toMillis(finalized))
		if printErr != nil {
			panic(printErr)
		}
	}
	if includeWrite && timings.Has(linkpipeline.StageWrite) {
		_, printErr = fmt.Fprintf(out, "wrote %.1f ms\n", toMillis(timings.Duration(linkpipeline.StageWrite)))
		if printErr != nil {
			panic(printErr)
		}
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
