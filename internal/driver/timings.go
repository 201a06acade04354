package driver

import (
	"encoding/json"
	"fmt"

	"emberlink/internal/diag"
	"emberlink/internal/observ"
	"emberlink/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Unit    string               `json:"unit,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic attaches the unit's timing report to its bag as an
// info diagnostic with a machine-readable JSON note.
func appendTimingDiagnostic(bag *diag.Bag, report observ.Report, unit string) {
	if bag == nil {
		return
	}
	payload := timingPayload{
		Kind:    "finalize",
		Unit:    unit,
		TotalMS: report.TotalMS,
		Phases:  report.Phases,
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if unit != "" {
		msg = fmt.Sprintf("%s for %s", msg, unit)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Primary:  source.Span{},
		Notes: []diag.Note{
			{Span: source.Span{}, Msg: string(data)},
		},
	}

	if bag.Add(entry) {
		return
	}
	// The bag is full; grow it so the report still lands.
	overflow := diag.NewBag(1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
