// Package diag defines the diagnostic model shared by every finalizer phase.
//
// # Purpose
//
//   - Provide deterministic, serialisable data structures that capture findings
//     produced by manifest loading, the export gate and the link stage.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to concrete storage or formatting layers.
//
// # Data model
//
// Diagnostic is the central record. It contains:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//
// Notes should be used sparingly: each note must add new context (e.g. “first
// export declared here”) rather than repeating the diagnostic message.
//
// # Emitting diagnostics
//
// Phases use a diag.Reporter to decouple emission from storage. Producers
// construct a ReportBuilder via NewReportBuilder (or the helpers ReportError /
// ReportWarning / ReportInfo) and chain WithNote before calling Emit. When no
// extra metadata is needed, call Reporter.Report directly. BagReporter
// aggregates diagnostics into a Bag, which supports sorting, deduplication
// and merging across units.
//
// Keep the data model deterministic: diagnostics are sorted and rendered into
// stable one-line forms for CLI output and test fixtures, so any new field
// must not introduce ordering or formatting nondeterminism.
package diag
