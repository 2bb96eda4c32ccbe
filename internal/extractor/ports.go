package extractor

import (
	"fmt"

	svinverr "svinv/internal/errors"
	"svinv/internal/syntax"
)

// ResolvePorts produces the ordered port list of one module. The header
// style picks the resolution mode: entries carrying directions resolve
// inline (ANSI), a bare-name header resolves against the body port
// declarations (non-ANSI). Output order always follows the header.
func ResolvePorts(m *syntax.ModuleDecl) ([]Port, error) {
	if len(m.Header) == 0 {
		return []Port{}, nil
	}
	if m.HeaderIsANSI() {
		return resolveANSI(m)
	}
	return resolveNonANSI(m)
}

// resolveANSI walks the header left to right. Each directed entry starts a
// group; bare entries inherit the current direction. A bare entry that
// restates a data type or range starts a fresh declaration under the
// inherited direction, so "input logic [7:0] A, [3:0] B, C" gives B and C
// width 4, not 8.
func resolveANSI(m *syntax.ModuleDecl) ([]Port, error) {
	ports := make([]Port, 0, len(m.Header))
	var (
		dir *syntax.Direction
		rng *syntax.RangeExpr
	)

	for i := range m.Header {
		entry := &m.Header[i]
		switch {
		case entry.Dir != nil:
			dir = entry.Dir
			rng = entry.Range
		case dir == nil:
			return nil, svinverr.New(svinverr.ParseError,
				fmt.Sprintf("port %s has no direction and nothing to inherit from", entry.Name)).
				InModule(m.Name).AtPort(entry.Name).At(entry.Line, 1)
		case entry.DataType != "" || entry.Range != nil:
			rng = entry.Range
		}

		width, err := EvalWidth(rng)
		if err != nil {
			return nil, attribute(err, m.Name, entry.Name)
		}
		ports = append(ports, Port{
			Name:      entry.Name,
			Direction: *dir,
			Width:     width,
		})
	}
	return ports, nil
}

// resolveNonANSI is two passes: the header names form the skeleton, then
// body port declarations fill in direction and width. Each name is matched
// at most once; body declarations naming no header identifier declare
// internal nets and are ignored. Body order never changes output order.
func resolveNonANSI(m *syntax.ModuleDecl) ([]Port, error) {
	type slot struct {
		filled bool
		port   Port
	}

	order := make([]string, 0, len(m.Header))
	slots := make(map[string]*slot, len(m.Header))
	for i := range m.Header {
		name := m.Header[i].Name
		order = append(order, name)
		slots[name] = &slot{}
	}

	for _, item := range m.Items {
		decl, ok := item.(*syntax.PortDeclItem)
		if !ok {
			continue
		}
		for _, name := range decl.Names {
			s, isPort := slots[name]
			if !isPort || s.filled {
				continue
			}
			width, err := EvalWidth(decl.Range)
			if err != nil {
				return nil, attribute(err, m.Name, name)
			}
			s.filled = true
			s.port = Port{Name: name, Direction: decl.Dir, Width: width}
		}
	}

	ports := make([]Port, 0, len(order))
	for _, name := range order {
		s := slots[name]
		if !s.filled {
			return nil, svinverr.New(svinverr.UnresolvedPort,
				"no body declaration provides direction and width").
				InModule(m.Name).AtPort(name)
		}
		ports = append(ports, s.port)
	}
	return ports, nil
}

func attribute(err error, module, port string) error {
	if ee, ok := err.(*svinverr.ExtractError); ok {
		return ee.InModule(module).AtPort(port)
	}
	return err
}
