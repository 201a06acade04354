package backend

import (
	"errors"
	"fmt"

	"emberlink/internal/abi"
	"emberlink/internal/diag"
	"emberlink/internal/export"
)

// ErrRejected is returned when the export gate refuses a unit. The reason
// has already been reported through the diagnostic sink by then.
var ErrRejected = errors.New("backend: unit rejected by the export gate")

// checkVersion enforces the export format gate. Units that never declared a
// format version and units declaring one this finalizer does not speak are
// both rejected before any export channel is written.
func (f *Finalizer) checkVersion(unit *export.Unit) bool {
	switch {
	case unit.Version == abi.FormatVersionNone:
		diag.ReportError(f.reporter, diag.VerMissing, unit.Span,
			fmt.Sprintf("unit %q declares no export format version; set version = %d in its manifest",
				unit.Name, abi.FormatVersion1)).Emit()
		return false
	case unit.Version != abi.FormatVersion1:
		diag.ReportError(f.reporter, diag.VerUnsupported, unit.Span,
			fmt.Sprintf("unit %q declares export format version %d, but only versions up to %d are supported",
				unit.Name, unit.Version, abi.MaxFormatVersion)).Emit()
		return false
	}
	return true
}
