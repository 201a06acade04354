package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"emberlink/internal/abi"
	"emberlink/internal/diag"
	"emberlink/internal/export"
	"emberlink/internal/manifest"
	"emberlink/internal/source"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "ember.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func load(t *testing.T, content string) (*manifest.Manifest, *diag.Bag, error) {
	t.Helper()
	path := writeManifest(t, content)
	fs := source.NewFileSet()
	bag := diag.NewBag(16)
	m, err := manifest.Load(fs, path, diag.BagReporter{Bag: bag})
	return m, bag, err
}

const fullManifest = `
schema = 1

[unit]
name = "blur"
version = 1
module = "blur.ll"

[[pragma]]
name = "version"
value = "1"

[[pragma]]
name = "java_package_name"
value = "com.example.blur"

[[var]]
name = "gain"
type = "float32"

[[var]]
name = "input"
type = "buffer"

[[var]]
name = "transform"
type = "mat4"

[[var]]
name = "weights"
type = "*float32"

[[func]]
name = "reset"

[[func]]
name = "configure"
params = ["float32", "int32"]
return = "float32"

[[kernel]]
name = "blurKernel"
signature = 27

[[record]]
name = "Sample"
fields = [
  { name = "position", type = "float32x4" },
  { name = "weight", type = "float32" },
  { name = "next", type = "*Sample" },
]
`

func TestLoadFullManifest(t *testing.T) {
	m, bag, err := load(t, fullManifest)
	if err != nil {
		t.Fatalf("Load: %v (diags: %+v)", err, bag.Items())
	}
	u := m.Unit

	if u.Name != "blur" || u.Version != 1 || !u.Exports {
		t.Fatalf("unit header = %q v%d exports=%v", u.Name, u.Version, u.Exports)
	}
	if len(u.Pragmas) != 2 || u.Pragmas[0].Name != "version" || u.Pragmas[1].Value != "com.example.blur" {
		t.Fatalf("pragmas = %+v", u.Pragmas)
	}
	if len(u.Vars) != 4 {
		t.Fatalf("expected 4 vars, got %d", len(u.Vars))
	}
	if u.Vars[1].Name != "input" || !u.Vars[1].IsObject() {
		t.Fatalf("expected input to be an object var, got %+v", u.Vars[1])
	}
	if _, ok := u.Vars[2].Type.(export.Matrix); !ok {
		t.Fatalf("transform should be a matrix, got %T", u.Vars[2].Type)
	}
	if ptr, ok := u.Vars[3].Type.(export.Pointer); !ok {
		t.Fatalf("weights should be a pointer, got %T", u.Vars[3].Type)
	} else if ptr.TypeName() != "*float32" {
		t.Fatalf("weights type name = %q", ptr.TypeName())
	}

	if len(u.Funcs) != 2 {
		t.Fatalf("expected 2 funcs, got %d", len(u.Funcs))
	}
	if u.Funcs[0].HasParams() {
		t.Fatal("reset should have no params")
	}
	if !u.Funcs[1].HasParams() || u.Funcs[1].Return == nil {
		t.Fatalf("configure should have params and a return, got %+v", u.Funcs[1])
	}

	if len(u.Kernels) != 1 || u.Kernels[0].Signature != abi.Signature(27) {
		t.Fatalf("kernels = %+v", u.Kernels)
	}

	if len(u.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(u.Records))
	}
	rec := u.Records[0]
	if len(rec.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(rec.Fields))
	}
	if rec.Fields[0].KindCode() != abi.KindFloat32 {
		t.Fatalf("vector field kind = %d", rec.Fields[0].KindCode())
	}
	// Self-reference through a pointer resolves to the same record.
	ptr, ok := rec.Fields[2].Type.(export.Pointer)
	if !ok || ptr.Pointee != export.Type(rec) {
		t.Fatalf("next should point back at Sample, got %+v", rec.Fields[2].Type)
	}

	if filepath.Base(m.ModulePath) != "blur.ll" {
		t.Fatalf("module path = %q", m.ModulePath)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestLoadDefaultsModulePathToUnitName(t *testing.T) {
	m, _, err := load(t, "schema = 1\n\n[unit]\nname = \"fade\"\nversion = 1\n")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if filepath.Base(m.ModulePath) != "fade.ll" {
		t.Fatalf("module path = %q", m.ModulePath)
	}
	if !m.Unit.Exports {
		t.Fatal("exports should default to true")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    diag.Code
	}{
		{
			name:    "wrong schema",
			content: "schema = 9\n\n[unit]\nname = \"x\"\n",
			code:    diag.ManBadVersion,
		},
		{
			name:    "missing unit table",
			content: "schema = 1\n",
			code:    diag.ManMissingKey,
		},
		{
			name:    "missing unit name",
			content: "schema = 1\n\n[unit]\nversion = 1\n",
			code:    diag.ManMissingKey,
		},
		{
			name:    "duplicate var",
			content: "schema = 1\n\n[unit]\nname = \"x\"\n\n[[var]]\nname = \"a\"\ntype = \"float32\"\n\n[[var]]\nname = \"a\"\ntype = \"int32\"\n",
			code:    diag.ManDuplicateName,
		},
		{
			name:    "bad type",
			content: "schema = 1\n\n[unit]\nname = \"x\"\n\n[[var]]\nname = \"a\"\ntype = \"floof32\"\n",
			code:    diag.ManBadType,
		},
		{
			name:    "undeclared record",
			content: "schema = 1\n\n[unit]\nname = \"x\"\n\n[[var]]\nname = \"a\"\ntype = \"Missing\"\n",
			code:    diag.ManUnknownRecord,
		},
		{
			name:    "signature out of range",
			content: "schema = 1\n\n[unit]\nname = \"x\"\n\n[[kernel]]\nname = \"k\"\nsignature = 4294967296\n",
			code:    diag.ManBadSignature,
		},
		{
			name:    "unknown target",
			content: "schema = 1\n\n[unit]\nname = \"x\"\ntarget = \"riscv64-unknown-elf\"\n",
			code:    diag.ManBadTarget,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag, err := load(t, tt.content)
			if !errors.Is(err, manifest.ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			found := false
			for _, d := range bag.Items() {
				if d.Code == tt.code {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected code %v in diagnostics, got %+v", tt.code, bag.Items())
			}
		})
	}
}

func TestTypeExpressions(t *testing.T) {
	tests := []struct {
		expr string
		name string
	}{
		{"float32", "float32"},
		{"buffer", "buffer"},
		{"mat2", "mat2"},
		{"int16x2", "int16x2"},
		{"[8]float32", "[8]float32"},
		{"*[4]uint8", "*[4]uint8"},
		{"**float64", "**float64"},
	}
	for _, tt := range tests {
		content := "schema = 1\n\n[unit]\nname = \"x\"\n\n[[var]]\nname = \"v\"\ntype = \"" + tt.expr + "\"\n"
		m, bag, err := load(t, content)
		if err != nil {
			t.Fatalf("%s: Load failed: %v (%+v)", tt.expr, err, bag.Items())
		}
		if got := m.Unit.Vars[0].Type.TypeName(); got != tt.name {
			t.Errorf("%s: TypeName() = %q", tt.expr, got)
		}
	}
}
