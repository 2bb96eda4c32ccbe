package extractor

import (
	"fmt"

	svinverr "svinv/internal/errors"
	"svinv/internal/syntax"
)

// Collect assembles the module inventory of one compilation unit, in source
// order. Non-module top-level constructs never reach this layer; the
// front-end skips them. Duplicate module names within one file are an
// error.
func Collect(src *syntax.SourceText) ([]Module, error) {
	modules := make([]Module, 0, len(src.Modules))
	seen := make(map[string]bool, len(src.Modules))

	for _, decl := range src.Modules {
		if seen[decl.Name] {
			return nil, svinverr.New(svinverr.DuplicateModule,
				fmt.Sprintf("module %s is defined more than once", decl.Name)).
				InFile(src.File).InModule(decl.Name).At(decl.Line, 1)
		}
		seen[decl.Name] = true

		ports, err := ResolvePorts(decl)
		if err != nil {
			return nil, inFile(err, src.File)
		}

		modules = append(modules, Module{
			Name:      decl.Name,
			Ports:     ports,
			Instances: ResolveInstances(decl),
		})
	}
	return modules, nil
}

func inFile(err error, file string) error {
	if ee, ok := err.(*svinverr.ExtractError); ok {
		return ee.InFile(file)
	}
	return err
}
