// Package manifest loads the export manifest the analysis phase writes next
// to each compiled unit. The manifest is the serialized form of the validated
// export surface: everything in it has already passed semantic checks, so
// loading re-validates only structure and cross-references, not language
// rules.
package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"fortio.org/safecast"

	"emberlink/internal/abi"
	"emberlink/internal/diag"
	"emberlink/internal/export"
	"emberlink/internal/layout"
	"emberlink/internal/source"
)

// Schema is the manifest format this loader understands. Distinct from the
// unit's export format version: Schema covers the TOML layout, the format
// version covers the metadata ABI.
const Schema = 1

// ErrInvalid is returned when the manifest parsed but failed validation;
// details were sent to the diag.Reporter.
var ErrInvalid = errors.New("manifest: validation failed")

// Manifest couples the loaded unit with the file-level settings that are not
// part of the export surface.
type Manifest struct {
	Unit   *export.Unit
	Target layout.Target
	// ModulePath is the compiled IR file, resolved relative to the manifest.
	ModulePath string
	Path       string
	Root       string
}

type unitConfig struct {
	Schema int        `toml:"schema"`
	Unit   unitTable  `toml:"unit"`
	Pragma []pragmaTC `toml:"pragma"`
	Var    []varTC    `toml:"var"`
	Func   []funcTC   `toml:"func"`
	Kernel []kernelTC `toml:"kernel"`
	Record []recordTC `toml:"record"`
}

type unitTable struct {
	Name    string `toml:"name"`
	Version int    `toml:"version"`
	Exports bool   `toml:"exports"`
	Module  string `toml:"module"`
	Target  string `toml:"target"`
}

type pragmaTC struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type varTC struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type funcTC struct {
	Name   string   `toml:"name"`
	Params []string `toml:"params"`
	Return string   `toml:"return"`
}

type kernelTC struct {
	Name      string `toml:"name"`
	Signature int64  `toml:"signature"`
}

type recordTC struct {
	Name   string    `toml:"name"`
	Fields []fieldTC `toml:"fields"`
}

type fieldTC struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// Load reads and validates a manifest. The file is registered in fs so
// diagnostics can point into it; validation problems are reported through r
// and collapse into ErrInvalid.
func Load(fs *source.FileSet, path string, r diag.Reporter) (*Manifest, error) {
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	file := fs.Get(fileID)

	var cfg unitConfig
	meta, err := toml.Decode(string(file.Content), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	ld := &loader{
		file:     file,
		meta:     meta,
		reporter: r,
	}
	unit, target := ld.build(&cfg)
	if ld.failed {
		return nil, ErrInvalid
	}

	root := filepath.Dir(path)
	modulePath := strings.TrimSpace(cfg.Unit.Module)
	if modulePath == "" {
		modulePath = unit.Name + ".ll"
	}
	return &Manifest{
		Unit:       unit,
		Target:     target,
		ModulePath: filepath.Join(root, filepath.FromSlash(modulePath)),
		Path:       path,
		Root:       root,
	}, nil
}

type loader struct {
	file     *source.File
	meta     toml.MetaData
	reporter diag.Reporter
	failed   bool
}

func (ld *loader) errorf(span source.Span, code diag.Code, format string, args ...any) {
	ld.failed = true
	diag.ReportError(ld.reporter, code, span, fmt.Sprintf(format, args...)).Emit()
}

func (ld *loader) build(cfg *unitConfig) (*export.Unit, layout.Target) {
	fileSpan := ld.spanOf("")
	if cfg.Schema != Schema {
		ld.errorf(fileSpan, diag.ManBadVersion, "unsupported manifest schema %d (expected %d)", cfg.Schema, Schema)
	}
	if !ld.meta.IsDefined("unit") {
		ld.errorf(fileSpan, diag.ManMissingKey, "missing [unit] table")
		return &export.Unit{Span: fileSpan}, layout.X86_64LinuxGNU()
	}
	if !ld.meta.IsDefined("unit", "name") || strings.TrimSpace(cfg.Unit.Name) == "" {
		ld.errorf(fileSpan, diag.ManMissingKey, "missing [unit].name")
	}

	unitSpan := ld.spanOf(cfg.Unit.Name)
	unit := &export.Unit{
		Name:    strings.TrimSpace(cfg.Unit.Name),
		Version: cfg.Unit.Version,
		Exports: true,
		Span:    unitSpan,
	}
	if ld.meta.IsDefined("unit", "exports") {
		unit.Exports = cfg.Unit.Exports
	}
	if cfg.Unit.Version < 0 {
		ld.errorf(unitSpan, diag.ManBadVersion, "negative format version %d", cfg.Unit.Version)
	}

	target := layout.X86_64LinuxGNU()
	if ld.meta.IsDefined("unit", "target") && cfg.Unit.Target != "" && cfg.Unit.Target != target.Triple {
		ld.errorf(unitSpan, diag.ManBadTarget, "unsupported target %q (only %q is supported)", cfg.Unit.Target, target.Triple)
	}

	for _, p := range cfg.Pragma {
		unit.Pragmas = append(unit.Pragmas, export.Pragma{Name: p.Name, Value: p.Value})
	}

	// Record shells first, so type expressions anywhere in the manifest can
	// reference any record, including ones declared later.
	records := make(map[string]*export.Record, len(cfg.Record))
	for _, rc := range cfg.Record {
		span := ld.spanOf(rc.Name)
		if strings.TrimSpace(rc.Name) == "" {
			ld.errorf(span, diag.ManMissingKey, "record without a name")
			continue
		}
		if _, dup := records[rc.Name]; dup {
			ld.errorf(span, diag.ManDuplicateName, "duplicate record type %q", rc.Name)
			continue
		}
		rec := &export.Record{Name: rc.Name}
		records[rc.Name] = rec
		unit.Records = append(unit.Records, rec)
	}
	for _, rc := range cfg.Record {
		rec, ok := records[rc.Name]
		if !ok {
			continue
		}
		seen := make(map[string]bool, len(rc.Fields))
		for _, fc := range rc.Fields {
			span := ld.spanOf(fc.Name)
			if strings.TrimSpace(fc.Name) == "" {
				ld.errorf(ld.spanOf(rc.Name), diag.ManBadField, "record %q has a field without a name", rc.Name)
				continue
			}
			if seen[fc.Name] {
				ld.errorf(span, diag.ManDuplicateName, "duplicate field %q in record %q", fc.Name, rc.Name)
				continue
			}
			seen[fc.Name] = true
			ft, err := parseTypeExpr(fc.Type, records)
			if err != nil {
				ld.reportTypeError(span, fc.Type, err)
				continue
			}
			rec.Fields = append(rec.Fields, export.Field{Name: fc.Name, Type: ft})
		}
	}

	seenVars := make(map[string]bool, len(cfg.Var))
	for _, vc := range cfg.Var {
		span := ld.spanOf(vc.Name)
		if strings.TrimSpace(vc.Name) == "" {
			ld.errorf(fileSpan, diag.ManMissingKey, "variable without a name")
			continue
		}
		if seenVars[vc.Name] {
			ld.errorf(span, diag.ManDuplicateName, "duplicate exported variable %q", vc.Name)
			continue
		}
		seenVars[vc.Name] = true
		vt, err := parseTypeExpr(vc.Type, records)
		if err != nil {
			ld.reportTypeError(span, vc.Type, err)
			continue
		}
		unit.Vars = append(unit.Vars, &export.Var{Name: vc.Name, Type: vt})
	}

	seenFuncs := make(map[string]bool, len(cfg.Func))
	for _, fc := range cfg.Func {
		span := ld.spanOf(fc.Name)
		if strings.TrimSpace(fc.Name) == "" {
			ld.errorf(fileSpan, diag.ManMissingKey, "function without a name")
			continue
		}
		if seenFuncs[fc.Name] {
			ld.errorf(span, diag.ManDuplicateName, "duplicate exported function %q", fc.Name)
			continue
		}
		seenFuncs[fc.Name] = true
		fn := &export.Func{Name: fc.Name}
		ok := true
		for _, param := range fc.Params {
			pt, err := parseTypeExpr(param, records)
			if err != nil {
				ld.reportTypeError(span, param, err)
				ok = false
				break
			}
			fn.Params = append(fn.Params, pt)
		}
		if !ok {
			continue
		}
		if ret := strings.TrimSpace(fc.Return); ret != "" && ret != "void" {
			rt, err := parseTypeExpr(ret, records)
			if err != nil {
				ld.reportTypeError(span, ret, err)
				continue
			}
			fn.Return = rt
		}
		unit.Funcs = append(unit.Funcs, fn)
	}

	seenKernels := make(map[string]bool, len(cfg.Kernel))
	for _, kc := range cfg.Kernel {
		span := ld.spanOf(kc.Name)
		if strings.TrimSpace(kc.Name) == "" {
			ld.errorf(fileSpan, diag.ManMissingKey, "kernel without a name")
			continue
		}
		if seenKernels[kc.Name] {
			ld.errorf(span, diag.ManDuplicateName, "duplicate exported kernel %q", kc.Name)
			continue
		}
		seenKernels[kc.Name] = true
		sig, err := safecast.Conv[uint32](kc.Signature)
		if err != nil {
			ld.errorf(span, diag.ManBadSignature, "kernel %q signature %d out of range", kc.Name, kc.Signature)
			continue
		}
		unit.Kernels = append(unit.Kernels, &export.Kernel{Name: kc.Name, Signature: abi.Signature(sig)})
	}

	return unit, target
}

func (ld *loader) reportTypeError(span source.Span, expr string, err error) {
	var unknown *unknownRecordError
	if errors.As(err, &unknown) {
		ld.errorf(span, diag.ManUnknownRecord, "type %q references undeclared record %q", expr, unknown.Name)
		return
	}
	ld.errorf(span, diag.ManBadType, "malformed type %q: %v", expr, err)
}

// spanOf points a diagnostic at the first occurrence of needle in the
// manifest, falling back to the start of the file. Good enough for a loader:
// names are unique per category and manifests are machine-written.
func (ld *loader) spanOf(needle string) source.Span {
	span := source.Span{File: ld.file.ID, Start: 0, End: 0}
	if needle == "" {
		return span
	}
	if idx := strings.Index(string(ld.file.Content), needle); idx >= 0 {
		span.Start = uint32(idx)
		span.End = uint32(idx + len(needle))
	}
	return span
}
