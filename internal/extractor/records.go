// Package extractor turns a parsed SystemVerilog compilation unit into the
// module inventory: per module, the resolved port list and the
// instantiations of other modules.
package extractor

import "svinv/internal/syntax"

// Port is one resolved module port. Width is always >= 1; an unresolvable
// width or direction is an error, never a default.
type Port struct {
	Name      string
	Direction syntax.Direction
	Width     int
}

// Instance records the identity of one module instantiation. Connection
// information is not retained.
type Instance struct {
	ModuleName   string
	InstanceName string
}

// Module is the inventory record for one module definition. Ports preserve
// header order; Instances preserve source order, expanded left to right
// within multi-instance statements. Both are non-nil even when empty.
type Module struct {
	Name      string
	Ports     []Port
	Instances []Instance
}
