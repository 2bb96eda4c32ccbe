package syntax

import (
	"fmt"
	"strconv"
	"strings"

	svinverr "svinv/internal/errors"
)

// dataTypes are the type keywords a port declaration may carry.
var dataTypes = map[string]bool{
	"logic": true,
	"wire":  true,
	"reg":   true,
	"bit":   true,
}

// blockOpen/blockClose drive statement skipping over nested constructs.
var blockOpen = map[string]string{
	"begin":    "end",
	"case":     "endcase",
	"fork":     "join",
	"function": "endfunction",
	"task":     "endtask",
	"generate": "endgenerate",
}

// topLevelOpen covers unsupported top-level constructs that are skipped
// whole rather than rejected.
var topLevelOpen = map[string]string{
	"package":   "endpackage",
	"interface": "endinterface",
	"class":     "endclass",
}

// parser is a recursive-descent parser over the token stream.
type parser struct {
	file string
	toks []Token
	pos  int
}

// Parse turns preprocessed source text into a SourceText tree.
func Parse(file string, src []byte) (*SourceText, error) {
	toks, err := lexAll(file, src)
	if err != nil {
		return nil, err
	}
	p := &parser{file: file, toks: toks}
	return p.sourceText()
}

func (p *parser) cur() Token {
	return p.toks[p.pos]
}

func (p *parser) peek() Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) advance() Token {
	tok := p.toks[p.pos]
	if tok.Kind != TokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) at(text string) bool {
	tok := p.cur()
	return (tok.Kind == TokKeyword || tok.Kind == TokSymbol) && tok.Text == text
}

func (p *parser) errorf(tok Token, format string, args ...interface{}) error {
	return svinverr.New(svinverr.ParseError, fmt.Sprintf(format, args...)).
		InFile(p.file).At(tok.Line, tok.Col)
}

func (p *parser) expectSymbol(text string) (Token, error) {
	tok := p.cur()
	if tok.Kind != TokSymbol || tok.Text != text {
		return tok, p.errorf(tok, "expected %q, found %q", text, describe(tok))
	}
	return p.advance(), nil
}

func (p *parser) expectIdent() (Token, error) {
	tok := p.cur()
	if tok.Kind != TokIdent {
		return tok, p.errorf(tok, "expected identifier, found %q", describe(tok))
	}
	return p.advance(), nil
}

func describe(tok Token) string {
	if tok.Kind == TokEOF {
		return "end of file"
	}
	return tok.Text
}

// sourceText parses the whole compilation unit.
func (p *parser) sourceText() (*SourceText, error) {
	src := &SourceText{File: p.file}
	for p.cur().Kind != TokEOF {
		tok := p.cur()
		switch {
		case tok.Kind == TokKeyword && tok.Text == "module":
			m, err := p.moduleDecl()
			if err != nil {
				return nil, err
			}
			src.Modules = append(src.Modules, m)

		case tok.Kind == TokKeyword && topLevelOpen[tok.Text] != "":
			if err := p.skipBalanced(tok.Text, topLevelOpen[tok.Text]); err != nil {
				return nil, err
			}

		default:
			// Stray top-level statement (import, typedef, net decl);
			// consume through its semicolon.
			if err := p.skipStatement(); err != nil {
				return nil, err
			}
		}
	}
	return src, nil
}

// moduleDecl parses "module name [#(...)] [(ports)] ; items endmodule".
func (p *parser) moduleDecl() (*ModuleDecl, error) {
	kw := p.advance() // module
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	m := &ModuleDecl{Name: name.Text, Line: kw.Line}

	if p.at("#") {
		p.advance()
		if err := p.skipParens(); err != nil {
			return nil, err
		}
	}

	if p.at("(") {
		header, err := p.portHeader()
		if err != nil {
			return nil, err
		}
		m.Header = header
	}

	if _, err := p.expectSymbol(";"); err != nil {
		return nil, err
	}

	for {
		tok := p.cur()
		switch {
		case tok.Kind == TokEOF:
			return nil, p.errorf(tok, "missing endmodule for module %s", m.Name)

		case tok.Kind == TokKeyword && tok.Text == "endmodule":
			p.advance()
			return m, nil

		case tok.Kind == TokKeyword && (tok.Text == "input" || tok.Text == "output" || tok.Text == "inout"):
			item, err := p.portDeclItem()
			if err != nil {
				return nil, err
			}
			m.Items = append(m.Items, item)

		case tok.Kind == TokIdent && (p.peek().Kind == TokIdent || (p.peek().Kind == TokSymbol && p.peek().Text == "#")):
			item, err := p.instItem()
			if err != nil {
				return nil, err
			}
			m.Items = append(m.Items, item)

		default:
			if err := p.skipStatement(); err != nil {
				return nil, err
			}
		}
	}
}

// portHeader parses the parenthesized port list. Each comma-separated
// element becomes one HeaderEntry; group inheritance across bare elements
// is the port resolver's concern, not the parser's.
func (p *parser) portHeader() ([]HeaderEntry, error) {
	if _, err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	if p.at(")") {
		p.advance()
		return nil, nil
	}

	var entries []HeaderEntry
	for {
		entry, err := p.headerEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)

		tok := p.cur()
		switch {
		case tok.Kind == TokSymbol && tok.Text == ",":
			p.advance()
		case tok.Kind == TokSymbol && tok.Text == ")":
			p.advance()
			return entries, nil
		default:
			return nil, p.errorf(tok, "expected \",\" or \")\" in port list, found %q", describe(tok))
		}
	}
}

// headerEntry parses "[direction] [type] [range] name".
func (p *parser) headerEntry() (HeaderEntry, error) {
	var entry HeaderEntry
	tok := p.cur()
	entry.Line = tok.Line

	if tok.Kind == TokKeyword {
		switch tok.Text {
		case "input", "output", "inout":
			dir := Direction(tok.Text)
			entry.Dir = &dir
			p.advance()
			tok = p.cur()
		}
	}
	if tok.Kind == TokKeyword && dataTypes[tok.Text] {
		entry.DataType = tok.Text
		p.advance()
		tok = p.cur()
	}
	if tok.Kind == TokSymbol && tok.Text == "[" {
		rng, err := p.rangeExpr()
		if err != nil {
			return entry, err
		}
		entry.Range = rng
	}

	name, err := p.expectIdent()
	if err != nil {
		return entry, err
	}
	entry.Name = name.Text
	return entry, nil
}

// portDeclItem parses "direction [type] [range] name {, name} ;".
func (p *parser) portDeclItem() (*PortDeclItem, error) {
	kw := p.advance()
	item := &PortDeclItem{Dir: Direction(kw.Text), Line: kw.Line}

	if tok := p.cur(); tok.Kind == TokKeyword && dataTypes[tok.Text] {
		item.DataType = tok.Text
		p.advance()
	}
	if p.at("[") {
		rng, err := p.rangeExpr()
		if err != nil {
			return nil, err
		}
		item.Range = rng
	}

	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		item.Names = append(item.Names, name.Text)

		tok := p.cur()
		switch {
		case tok.Kind == TokSymbol && tok.Text == ",":
			p.advance()
		case tok.Kind == TokSymbol && tok.Text == ";":
			p.advance()
			return item, nil
		default:
			return nil, p.errorf(tok, "expected \",\" or \";\" in port declaration, found %q", describe(tok))
		}
	}
}

// instItem parses "module_name [#(...)] inst_name (...) {, inst_name (...)} ;".
func (p *parser) instItem() (*InstItem, error) {
	modName := p.advance()
	item := &InstItem{ModuleName: modName.Text, Line: modName.Line}

	if p.at("#") {
		p.advance()
		if err := p.skipParens(); err != nil {
			return nil, err
		}
	}

	for {
		instName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.skipParens(); err != nil {
			return nil, err
		}
		item.Instances = append(item.Instances, NamedInstance{Name: instName.Text, Line: instName.Line})

		tok := p.cur()
		switch {
		case tok.Kind == TokSymbol && tok.Text == ",":
			p.advance()
		case tok.Kind == TokSymbol && tok.Text == ";":
			p.advance()
			return item, nil
		default:
			return nil, p.errorf(tok, "expected \",\" or \";\" in instantiation, found %q", describe(tok))
		}
	}
}

// rangeExpr parses "[ bound : bound ]". Bounds that are not plain integer
// literals are kept as opaque text for the width evaluator to reject with
// context.
func (p *parser) rangeExpr() (*RangeExpr, error) {
	open, err := p.expectSymbol("[")
	if err != nil {
		return nil, err
	}
	rng := &RangeExpr{Line: open.Line}

	msb, err := p.rangeBound(":")
	if err != nil {
		return nil, err
	}
	rng.MSB = msb
	if _, err := p.expectSymbol(":"); err != nil {
		return nil, err
	}
	lsb, err := p.rangeBound("]")
	if err != nil {
		return nil, err
	}
	rng.LSB = lsb
	if _, err := p.expectSymbol("]"); err != nil {
		return nil, err
	}
	return rng, nil
}

// rangeBound collects tokens up to the given terminator at bracket depth
// zero. A single number token is a literal; anything else stays opaque.
func (p *parser) rangeBound(term string) (Expr, error) {
	var parts []string
	depth := 0
	count := 0
	first := p.cur()
	for {
		tok := p.cur()
		if tok.Kind == TokEOF {
			return Expr{}, p.errorf(tok, "unterminated packed dimension")
		}
		if depth == 0 && tok.Kind == TokSymbol && (tok.Text == term || tok.Text == ":" || tok.Text == "]") {
			break
		}
		if tok.Kind == TokSymbol {
			switch tok.Text {
			case "[", "(":
				depth++
			case ")":
				depth--
			case "]":
				depth--
			}
		}
		parts = append(parts, tok.Text)
		count++
		p.advance()
	}
	if count == 0 {
		return Expr{}, p.errorf(first, "empty bound in packed dimension")
	}
	if count == 1 && first.Kind == TokNumber {
		v, err := strconv.Atoi(strings.ReplaceAll(first.Text, "_", ""))
		if err == nil {
			return Lit(v), nil
		}
	}
	return Raw(strings.Join(parts, "")), nil
}

// skipParens consumes a balanced parenthesized group starting at "(".
func (p *parser) skipParens() error {
	open, err := p.expectSymbol("(")
	if err != nil {
		return err
	}
	depth := 1
	for depth > 0 {
		tok := p.advance()
		switch {
		case tok.Kind == TokEOF:
			return p.errorf(open, "unbalanced parentheses")
		case tok.Kind == TokSymbol && tok.Text == "(":
			depth++
		case tok.Kind == TokSymbol && tok.Text == ")":
			depth--
		}
	}
	return nil
}

// skipStatement consumes one statement the inventory does not model:
// through its semicolon, or through a balanced begin/end style block.
func (p *parser) skipStatement() error {
	start := p.cur()
	for {
		tok := p.cur()
		switch {
		case tok.Kind == TokEOF:
			return p.errorf(start, "unterminated statement")
		case tok.Kind == TokKeyword && tok.Text == "endmodule":
			// Let the module loop handle the terminator.
			return nil
		case tok.Kind == TokKeyword && blockOpen[tok.Text] != "":
			if err := p.skipBalanced(tok.Text, blockOpen[tok.Text]); err != nil {
				return err
			}
			// A block closes the statement unless an "else" or similar
			// trails it; trailing tokens belong to the next skip.
			return nil
		case tok.Kind == TokSymbol && tok.Text == ";":
			p.advance()
			return nil
		default:
			p.advance()
		}
	}
}

// skipBalanced consumes from an opening keyword through its matching
// closer, counting nested pairs of the same kind.
func (p *parser) skipBalanced(open, close string) error {
	first := p.advance()
	depth := 1
	for depth > 0 {
		tok := p.advance()
		switch {
		case tok.Kind == TokEOF:
			return p.errorf(first, "missing %s", close)
		case tok.Kind == TokKeyword && tok.Text == open:
			depth++
		case tok.Kind == TokKeyword && tok.Text == close:
			depth--
		case tok.Kind == TokKeyword && blockOpen[tok.Text] != "" && tok.Text != open:
			p.pos--
			if err := p.skipBalanced(tok.Text, blockOpen[tok.Text]); err != nil {
				return err
			}
		}
	}
	return nil
}
