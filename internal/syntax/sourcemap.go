package syntax

import (
	goerrors "errors"

	svinverr "svinv/internal/errors"
)

// SourceMap records which file and line each chunk of the expanded text came
// from. Expansion keeps a one-to-one line correspondence inside each chunk,
// so a chunk's origin plus an offset recovers the true position; chunk
// boundaries fall at `include entry and exit.
type SourceMap struct {
	segs []mapSegment
}

type mapSegment struct {
	outLine int // first expanded line the segment covers
	file    string
	srcLine int // origin line corresponding to outLine
}

func (m *SourceMap) mark(outLine int, file string, srcLine int) {
	m.segs = append(m.segs, mapSegment{outLine: outLine, file: file, srcLine: srcLine})
}

// Resolve translates a line of the expanded text to its origin file and
// line.
func (m *SourceMap) Resolve(line int) (string, int) {
	file, origin := "", line
	for _, seg := range m.segs {
		if seg.outLine > line {
			break
		}
		file = seg.file
		origin = seg.srcLine + (line - seg.outLine)
	}
	return file, origin
}

// RewriteError re-attributes an error carrying an expanded-text position to
// the origin file and line, so diagnostics echo the right source line even
// after `include expansion shifted everything below it.
func (m *SourceMap) RewriteError(err error) error {
	var ee *svinverr.ExtractError
	if !goerrors.As(err, &ee) || ee.Line <= 0 {
		return err
	}
	file, line := m.Resolve(ee.Line)
	if file == "" {
		return err
	}
	return ee.InFile(file).At(line, ee.Column)
}

// RewriteTree maps every recorded position in the tree back to its origin
// line number. Positions inside included files resolve to that file's own
// numbering.
func (m *SourceMap) RewriteTree(src *SourceText) {
	for _, mod := range src.Modules {
		mod.Line = m.line(mod.Line)
		for i := range mod.Header {
			mod.Header[i].Line = m.line(mod.Header[i].Line)
			if mod.Header[i].Range != nil {
				mod.Header[i].Range.Line = m.line(mod.Header[i].Range.Line)
			}
		}
		for _, item := range mod.Items {
			switch it := item.(type) {
			case *PortDeclItem:
				it.Line = m.line(it.Line)
				if it.Range != nil {
					it.Range.Line = m.line(it.Range.Line)
				}
			case *InstItem:
				it.Line = m.line(it.Line)
				for i := range it.Instances {
					it.Instances[i].Line = m.line(it.Instances[i].Line)
				}
			}
		}
	}
}

func (m *SourceMap) line(l int) int {
	_, origin := m.Resolve(l)
	return origin
}
