package inventory

import "svinv/internal/syntax"

// FrontEnd turns one file's contents into a syntax tree. The production
// implementation preprocesses and parses; tests substitute hand-built
// trees.
type FrontEnd interface {
	Parse(path string, src []byte) (*syntax.SourceText, error)
}

// svFrontEnd is the production front-end: macro/include expansion followed
// by parsing. A fresh preprocessor per file keeps file-local `defines from
// leaking across files.
type svFrontEnd struct {
	defines       []string
	includeDirs   []string
	ignoreInclude bool
}

// NewFrontEnd builds the production front-end with the given command-line
// defines (NAME[=text]) and include directories.
func NewFrontEnd(defines, includeDirs []string, ignoreInclude bool) FrontEnd {
	return &svFrontEnd{
		defines:       defines,
		includeDirs:   includeDirs,
		ignoreInclude: ignoreInclude,
	}
}

func (f *svFrontEnd) Parse(path string, src []byte) (*syntax.SourceText, error) {
	pp := syntax.NewPreprocessor(f.defines, f.includeDirs, f.ignoreInclude)
	expanded, sm, err := pp.Expand(path, src)
	if err != nil {
		return nil, err
	}
	tree, err := syntax.Parse(path, expanded)
	if err != nil {
		// Lexer and parser positions count lines of the expanded text;
		// translate them so diagnostics name the true origin.
		return nil, sm.RewriteError(err)
	}
	sm.RewriteTree(tree)
	return tree, nil
}
