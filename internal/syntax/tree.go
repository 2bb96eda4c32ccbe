// Package syntax is the SystemVerilog front-end for svinv.
//
// It covers the subset the inventory needs: module declarations with either
// ANSI or non-ANSI port headers, body port-direction statements, and module
// instantiation statements. Everything else inside a module body is consumed
// and skipped; non-module top-level constructs (packages, interfaces,
// classes) are skipped whole.
package syntax

import "fmt"

// Direction is a port direction keyword.
type Direction string

const (
	DirInput  Direction = "input"
	DirOutput Direction = "output"
	DirInout  Direction = "inout"
)

// Expr is a bound of a packed dimension, either a literal integer or an
// opaque expression retained as written for diagnostics.
type Expr struct {
	IsLit bool
	Value int    // Valid when IsLit
	Text  string // As written in the source
}

// Lit builds a literal integer bound.
func Lit(v int) Expr {
	return Expr{IsLit: true, Value: v, Text: fmt.Sprintf("%d", v)}
}

// Raw builds an opaque non-literal bound.
func Raw(text string) Expr {
	return Expr{Text: text}
}

// RangeExpr is a packed dimension as written, e.g. [31:0].
type RangeExpr struct {
	MSB  Expr
	LSB  Expr
	Line int
}

// String renders the range the way it was written.
func (r *RangeExpr) String() string {
	return "[" + r.MSB.Text + ":" + r.LSB.Text + "]"
}

// HeaderEntry is one comma-separated element of a module port header.
// ANSI entries carry a direction (and optionally a data type and range);
// non-ANSI headers consist of bare names only.
type HeaderEntry struct {
	Dir      *Direction // nil for a bare name
	DataType string     // "logic", "wire", ... or ""
	Range    *RangeExpr
	Name     string
	Line     int
}

// ModuleItem is a statement inside a module body that the inventory cares
// about. Skipped statements are not retained.
type ModuleItem interface {
	itemNode()
}

// PortDeclItem is a body port-direction statement, e.g.
// "input logic [15:0] DIN, DOUT;". One statement may declare several names
// sharing one direction and range.
type PortDeclItem struct {
	Dir      Direction
	DataType string
	Range    *RangeExpr
	Names    []string
	Line     int
}

func (*PortDeclItem) itemNode() {}

// NamedInstance is one "name ( connections )" element of an instantiation
// statement. Connections are consumed by the parser but not modeled.
type NamedInstance struct {
	Name string
	Line int
}

// InstItem is a module instantiation statement, e.g.
// "case2 c2a (...), c2b (...);".
type InstItem struct {
	ModuleName string
	Instances  []NamedInstance
	Line       int
}

func (*InstItem) itemNode() {}

// ModuleDecl is one module definition.
type ModuleDecl struct {
	Name   string
	Header []HeaderEntry
	Items  []ModuleItem
	Line   int
}

// HeaderIsANSI reports whether the port header carries directions inline.
// An empty header counts as ANSI with no ports.
func (m *ModuleDecl) HeaderIsANSI() bool {
	for i := range m.Header {
		if m.Header[i].Dir != nil {
			return true
		}
	}
	return len(m.Header) == 0
}

// SourceText is the parsed compilation unit of one file.
type SourceText struct {
	File    string
	Modules []*ModuleDecl
}
