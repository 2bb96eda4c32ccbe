package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	goerrors "errors"

	svinverr "svinv/internal/errors"
	"svinv/internal/inventory"
)

// printDiagnostic writes one file failure to w. When the error carries a
// source position, the offending line is echoed with a caret under the
// column; otherwise the attributed error message stands alone.
func printDiagnostic(w io.Writer, ferr inventory.FileError) {
	var ee *svinverr.ExtractError
	if !goerrors.As(ferr.Err, &ee) {
		fmt.Fprintf(w, "%s: %v\n", ferr.Path, ferr.Err)
		return
	}

	fmt.Fprintf(w, "%v\n", ee)

	if ee.Line <= 0 {
		return
	}
	file := ee.File
	if file == "" {
		file = ferr.Path
	}
	line, ok := sourceLine(file, ee.Line)
	if !ok {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)
	if ee.Column > 0 {
		fmt.Fprintf(w, "  %s^\n", caretPad(line, ee.Column))
	}
}

// sourceLine returns the n-th (1-based) line of the file.
func sourceLine(path string, n int) (string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	lines := strings.Split(string(content), "\n")
	if n < 1 || n > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[n-1], "\r"), true
}

// caretPad builds the padding in front of the caret, preserving tabs so the
// caret lines up under the reported column. Columns count bytes, matching
// how the lexer reports positions.
func caretPad(line string, column int) string {
	var b strings.Builder
	for i := 0; i < len(line) && i < column-1; i++ {
		if line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
