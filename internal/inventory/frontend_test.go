package inventory

import (
	"os"
	"path/filepath"
	"testing"

	svinverr "svinv/internal/errors"
)

func writeInclude(t *testing.T) (dir, top string) {
	t.Helper()
	dir = t.TempDir()
	defs := filepath.Join(dir, "defs.svh")
	if err := os.WriteFile(defs, []byte("wire a;\nwire b;\nwire c;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, filepath.Join(dir, "top.sv")
}

// A parse error below an `include must name the including file's own line,
// not the line of the spliced expanded text.
func TestFrontEndErrorLineAfterInclude(t *testing.T) {
	_, top := writeInclude(t)
	src := "`include \"defs.svh\"\nmodule m (\n  input logic CLK,\n);\nendmodule\n"

	fe := NewFrontEnd(nil, nil, false)
	_, err := fe.Parse(top, []byte(src))
	if err == nil {
		t.Fatal("expected parse error")
	}

	var ee *svinverr.ExtractError
	if !svinverr.IsCode(err, svinverr.ParseError) {
		t.Fatalf("error code = %v, want PARSE_ERROR", svinverr.CodeOf(err))
	}
	if ok := asExtract(err, &ee); !ok {
		t.Fatalf("error type = %T", err)
	}
	if ee.File != top {
		t.Errorf("error file = %q, want %q", ee.File, top)
	}
	// The ")" with no preceding port name sits on line 4 of top.sv; the
	// three included lines must not shift it.
	if ee.Line != 4 {
		t.Errorf("error line = %d, want 4", ee.Line)
	}
}

func TestFrontEndTreeLinesAfterInclude(t *testing.T) {
	_, top := writeInclude(t)
	src := "`include \"defs.svh\"\nmodule m (input logic [7:0] D);\nendmodule\n"

	fe := NewFrontEnd(nil, nil, false)
	tree, err := fe.Parse(top, []byte(src))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	m := tree.Modules[0]
	if m.Line != 2 {
		t.Errorf("module line = %d, want 2 (origin numbering)", m.Line)
	}
	if m.Header[0].Line != 2 {
		t.Errorf("header entry line = %d, want 2", m.Header[0].Line)
	}
}

func asExtract(err error, target **svinverr.ExtractError) bool {
	for err != nil {
		if ee, ok := err.(*svinverr.ExtractError); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
