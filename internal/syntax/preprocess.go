package syntax

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	svinverr "svinv/internal/errors"
)

// maxIncludeDepth bounds recursive `include expansion.
const maxIncludeDepth = 16

// Directives that carry no information the inventory needs; the whole line
// is dropped.
var droppedDirectives = map[string]bool{
	"timescale":       true,
	"default_nettype": true,
	"celldefine":      true,
	"endcelldefine":   true,
	"resetall":        true,
}

// Preprocessor expands `include and object-like `define/`NAME macros before
// lexing. Function-like macros and conditional compilation are not
// supported.
type Preprocessor struct {
	IncludeDirs   []string
	IgnoreInclude bool

	defines map[string]string
}

// NewPreprocessor creates a preprocessor seeded with command-line defines
// (NAME or NAME=text).
func NewPreprocessor(defines []string, includeDirs []string, ignoreInclude bool) *Preprocessor {
	p := &Preprocessor{
		IncludeDirs:   includeDirs,
		IgnoreInclude: ignoreInclude,
		defines:       make(map[string]string),
	}
	for _, d := range defines {
		name, text, _ := strings.Cut(d, "=")
		p.defines[name] = text
	}
	return p
}

// Expand preprocesses the source of one file. The file path anchors
// relative `include resolution and error attribution. The returned
// SourceMap translates line numbers of the expanded text back to the file
// they came from, so positions reported downstream name the true origin.
func (p *Preprocessor) Expand(file string, src []byte) ([]byte, *SourceMap, error) {
	e := &expansion{pp: p, sm: &SourceMap{}}
	if err := e.expandFile(file, src, 0); err != nil {
		return nil, nil, err
	}
	return e.out, e.sm, nil
}

func (p *Preprocessor) errorf(file string, line int, format string, args ...interface{}) error {
	return svinverr.New(svinverr.ParseError, fmt.Sprintf(format, args...)).InFile(file).At(line, 1)
}

// expansion accumulates the expanded text across `include recursion,
// tracking the output line so each chunk's origin can be recorded.
type expansion struct {
	pp       *Preprocessor
	out      []byte
	newlines int
	sm       *SourceMap
}

func (e *expansion) curLine() int {
	return e.newlines + 1
}

func (e *expansion) emit(bs ...byte) {
	for _, c := range bs {
		if c == '\n' {
			e.newlines++
		}
	}
	e.out = append(e.out, bs...)
}

func (e *expansion) emitString(s string) {
	e.emit([]byte(s)...)
}

func (e *expansion) expandFile(file string, src []byte, depth int) error {
	if depth > maxIncludeDepth {
		return e.pp.errorf(file, 1, "include depth exceeds %d", maxIncludeDepth)
	}

	e.sm.mark(e.curLine(), file, 1)
	line := 1
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			e.emit(c)
			i++

		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				e.emit(src[i])
				i++
			}

		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			e.emit(src[i], src[i+1])
			i += 2
			for i < len(src) {
				if src[i] == '*' && i+1 < len(src) && src[i+1] == '/' {
					e.emit(src[i], src[i+1])
					i += 2
					break
				}
				if src[i] == '\n' {
					line++
				}
				e.emit(src[i])
				i++
			}

		case c == '"':
			e.emit(c)
			i++
			for i < len(src) {
				if src[i] == '\\' && i+1 < len(src) {
					e.emit(src[i], src[i+1])
					i += 2
					continue
				}
				e.emit(src[i])
				if src[i] == '"' {
					i++
					break
				}
				i++
			}

		case c == '`':
			i++
			nameStart := i
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			name := string(src[nameStart:i])
			if name == "" {
				return e.pp.errorf(file, line, "stray ` in source")
			}

			switch {
			case name == "include":
				incLine := line
				path, rest, err := e.pp.scanIncludeArg(file, src, i, incLine)
				if err != nil {
					return err
				}
				i = rest
				if e.pp.IgnoreInclude {
					continue
				}
				included, incPath, err := e.pp.readInclude(file, path, incLine)
				if err != nil {
					return err
				}
				if err := e.expandFile(incPath, included, depth+1); err != nil {
					return err
				}
				// Back in the including file; remap the lines that follow.
				e.sm.mark(e.curLine(), file, line)

			case name == "define":
				macroName, text, rest, folded, err := e.pp.scanDefine(file, src, i, line)
				if err != nil {
					return err
				}
				e.pp.defines[macroName] = text
				i = rest
				// Keep one output line per source line: continuations the
				// definition consumed come back as blank lines.
				for k := 0; k < folded; k++ {
					e.emit('\n')
					line++
				}

			case name == "undef":
				macroName, rest := scanWord(src, i)
				delete(e.pp.defines, macroName)
				i = rest

			case droppedDirectives[name]:
				for i < len(src) && src[i] != '\n' {
					i++
				}

			default:
				text, ok := e.pp.defines[name]
				if !ok {
					return e.pp.errorf(file, line, "undefined macro `%s", name)
				}
				e.emitString(text)
			}

		default:
			e.emit(c)
			i++
		}
	}
	return nil
}

// scanIncludeArg reads the quoted path after `include.
func (p *Preprocessor) scanIncludeArg(file string, src []byte, i, line int) (string, int, error) {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i >= len(src) || src[i] != '"' {
		return "", i, p.errorf(file, line, "`include expects a quoted path")
	}
	i++
	start := i
	for i < len(src) && src[i] != '"' && src[i] != '\n' {
		i++
	}
	if i >= len(src) || src[i] != '"' {
		return "", i, p.errorf(file, line, "unterminated `include path")
	}
	return string(src[start:i]), i + 1, nil
}

// scanDefine reads "NAME text-to-end-of-line" after `define, honoring
// backslash line continuations. folded reports how many source newlines the
// continuations swallowed.
func (p *Preprocessor) scanDefine(file string, src []byte, i, line int) (name, text string, rest, folded int, err error) {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	name, i = scanWord(src, i)
	if name == "" {
		return "", "", i, 0, p.errorf(file, line, "`define expects a macro name")
	}
	if i < len(src) && src[i] == '(' {
		return "", "", i, 0, p.errorf(file, line, "function-like macro `%s is not supported", name)
	}
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	var body []byte
	for i < len(src) && src[i] != '\n' {
		if src[i] == '\\' && i+1 < len(src) && src[i+1] == '\n' {
			body = append(body, ' ')
			i += 2
			folded++
			continue
		}
		body = append(body, src[i])
		i++
	}
	return name, strings.TrimRight(string(body), " \t\r"), i, folded, nil
}

func scanWord(src []byte, i int) (string, int) {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	start := i
	for i < len(src) && isIdentPart(src[i]) {
		i++
	}
	return string(src[start:i]), i
}

// readInclude locates and reads an included file: first relative to the
// including file, then through the include directories in order.
func (p *Preprocessor) readInclude(from, path string, line int) ([]byte, string, error) {
	candidates := []string{filepath.Join(filepath.Dir(from), path)}
	for _, dir := range p.IncludeDirs {
		candidates = append(candidates, filepath.Join(dir, path))
	}
	for _, cand := range candidates {
		data, err := os.ReadFile(cand)
		if err == nil {
			return data, cand, nil
		}
	}
	return nil, "", p.errorf(from, line, "cannot find include file %q", path)
}
