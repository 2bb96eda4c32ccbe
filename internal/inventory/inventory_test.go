package inventory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	svinverr "svinv/internal/errors"
	"svinv/internal/logging"
	"svinv/internal/storage"
	"svinv/internal/syntax"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Level: logging.ErrorLevel})
}

// fakeFrontEnd serves hand-built trees, optionally delaying some files to
// scramble completion order.
type fakeFrontEnd struct {
	trees  map[string]*syntax.SourceText
	errs   map[string]error
	delays map[string]time.Duration
}

func (f *fakeFrontEnd) Parse(path string, src []byte) (*syntax.SourceText, error) {
	if d, ok := f.delays[path]; ok {
		time.Sleep(d)
	}
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	tree, ok := f.trees[path]
	if !ok {
		return nil, fmt.Errorf("no tree for %s", path)
	}
	return tree, nil
}

func writeFiles(t *testing.T, names []string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("// "+name+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return dir, paths
}

func simpleTree(file, moduleName string) *syntax.SourceText {
	return &syntax.SourceText{
		File:    file,
		Modules: []*syntax.ModuleDecl{{Name: moduleName}},
	}
}

func TestProcessPreservesInputOrder(t *testing.T) {
	_, paths := writeFiles(t, []string{"a.sv", "b.sv", "c.sv", "d.sv"})

	fe := &fakeFrontEnd{
		trees:  map[string]*syntax.SourceText{},
		delays: map[string]time.Duration{},
	}
	for i, p := range paths {
		fe.trees[p] = simpleTree(p, fmt.Sprintf("m%d", i))
	}
	// Make the first file finish last.
	fe.delays[paths[0]] = 50 * time.Millisecond

	result, err := Process(context.Background(), paths, Options{
		FrontEnd: fe,
		Workers:  4,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if !result.OK() {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Files) != len(paths) {
		t.Fatalf("got %d files, want %d", len(result.Files), len(paths))
	}
	for i, p := range paths {
		if result.Files[i].FileName != p {
			t.Errorf("Files[%d] = %q, want %q", i, result.Files[i].FileName, p)
		}
	}
}

func TestProcessContinueOnFailure(t *testing.T) {
	_, paths := writeFiles(t, []string{"good1.sv", "bad.sv", "good2.sv"})

	fe := &fakeFrontEnd{
		trees: map[string]*syntax.SourceText{
			paths[0]: simpleTree(paths[0], "g1"),
			paths[2]: simpleTree(paths[2], "g2"),
		},
		errs: map[string]error{
			paths[1]: svinverr.New(svinverr.ParseError, "boom").InFile(paths[1]),
		},
	}

	result, err := Process(context.Background(), paths, Options{
		FrontEnd: fe,
		Workers:  1,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if result.OK() {
		t.Fatal("run should report failure")
	}
	if len(result.Files) != 2 {
		t.Fatalf("got %d successful files, want 2", len(result.Files))
	}
	if result.Files[0].FileName != paths[0] || result.Files[1].FileName != paths[2] {
		t.Errorf("successful files = %+v", result.Files)
	}
	if len(result.Errors) != 1 || result.Errors[0].Path != paths[1] {
		t.Fatalf("errors = %+v", result.Errors)
	}
	if !svinverr.IsCode(result.Errors[0].Err, svinverr.ParseError) {
		t.Errorf("error code = %v, want PARSE_ERROR", svinverr.CodeOf(result.Errors[0].Err))
	}
}

func TestProcessFailFast(t *testing.T) {
	names := make([]string, 20)
	for i := range names {
		names[i] = fmt.Sprintf("f%02d.sv", i)
	}
	_, paths := writeFiles(t, names)

	fe := &fakeFrontEnd{
		trees: map[string]*syntax.SourceText{},
		errs: map[string]error{
			paths[0]: svinverr.New(svinverr.ParseError, "boom").InFile(paths[0]),
		},
	}
	for _, p := range paths[1:] {
		fe.trees[p] = simpleTree(p, "m")
	}

	result, err := Process(context.Background(), paths, Options{
		FrontEnd: fe,
		Workers:  1,
		FailFast: true,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if result.OK() {
		t.Fatal("run should report failure")
	}
	if len(result.Files) == len(paths)-1 {
		t.Error("fail-fast should have stopped dispatch before processing every file")
	}
}

func TestProcessUnreadableFile(t *testing.T) {
	result, err := Process(context.Background(), []string{"/nonexistent/x.sv"}, Options{
		FrontEnd: &fakeFrontEnd{},
		Workers:  1,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("Process error: %v", err)
	}
	if result.OK() {
		t.Fatal("missing file should fail")
	}
	if !svinverr.IsCode(result.Errors[0].Err, svinverr.FileUnreadable) {
		t.Errorf("error code = %v, want FILE_UNREADABLE", svinverr.CodeOf(result.Errors[0].Err))
	}
}

func TestProcessUsesCache(t *testing.T) {
	dir, paths := writeFiles(t, []string{"a.sv"})

	cache, err := storage.Open(filepath.Join(dir, ".svinv"), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	fe := &fakeFrontEnd{trees: map[string]*syntax.SourceText{
		paths[0]: simpleTree(paths[0], "m"),
	}}
	opts := Options{FrontEnd: fe, Workers: 1, Cache: cache, Logger: testLogger()}

	first, err := Process(context.Background(), paths, opts)
	if err != nil || !first.OK() {
		t.Fatalf("first run: err=%v result=%+v", err, first)
	}

	// Second run must be served from the cache, not the front-end.
	opts.FrontEnd = &fakeFrontEnd{errs: map[string]error{
		paths[0]: fmt.Errorf("front-end should not be called"),
	}}
	second, err := Process(context.Background(), paths, opts)
	if err != nil {
		t.Fatalf("second run error: %v", err)
	}
	if !second.OK() {
		t.Fatalf("second run errors: %+v", second.Errors)
	}
	if second.Files[0].Defs[0].ModName != "m" {
		t.Errorf("cached result = %+v", second.Files[0])
	}
}

func TestProcessCacheInvalidatedByContentChange(t *testing.T) {
	dir, paths := writeFiles(t, []string{"a.sv"})

	cache, err := storage.Open(filepath.Join(dir, ".svinv"), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	fe := &fakeFrontEnd{trees: map[string]*syntax.SourceText{
		paths[0]: simpleTree(paths[0], "before"),
	}}
	opts := Options{FrontEnd: fe, Workers: 1, Cache: cache, Logger: testLogger()}
	if _, err := Process(context.Background(), paths, opts); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(paths[0], []byte("// changed\n"), 0644); err != nil {
		t.Fatal(err)
	}
	opts.FrontEnd = &fakeFrontEnd{trees: map[string]*syntax.SourceText{
		paths[0]: simpleTree(paths[0], "after"),
	}}

	result, err := Process(context.Background(), paths, opts)
	if err != nil || !result.OK() {
		t.Fatalf("err=%v errors=%+v", err, result.Errors)
	}
	if result.Files[0].Defs[0].ModName != "after" {
		t.Errorf("stale cache served after content change: %+v", result.Files[0])
	}
}

func TestProcessRunID(t *testing.T) {
	_, paths := writeFiles(t, []string{"a.sv"})
	fe := &fakeFrontEnd{trees: map[string]*syntax.SourceText{
		paths[0]: simpleTree(paths[0], "m"),
	}}

	r1, err := Process(context.Background(), paths, Options{FrontEnd: fe, Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := Process(context.Background(), paths, Options{FrontEnd: fe, Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if r1.RunID == "" || r1.RunID == r2.RunID {
		t.Errorf("run ids not unique: %q vs %q", r1.RunID, r2.RunID)
	}
}
