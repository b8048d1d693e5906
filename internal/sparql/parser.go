package sparql

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"ontoscope/internal/domain"
)

// unsupportedKeywords are SPARQL keywords the parser recognizes only to
// reject them with an UnsupportedError
var unsupportedKeywords = map[string]bool{
	"OPTIONAL": true, "UNION": true, "MINUS": true, "GRAPH": true, "BIND": true,
	"VALUES": true, "SERVICE": true, "CONSTRUCT": true, "DESCRIBE": true,
	"GROUP": true, "HAVING": true, "INSERT": true, "DELETE": true,
	"LOAD": true, "CLEAR": true, "DROP": true, "CREATE": true,
}

type parser struct {
	tokens   []token
	pos      int
	prefixes map[string]string
	base     *url.URL
	query    *Query
	anon     int
}

// Parse parses a SELECT or ASK query. The rdf, rdfs, owl and xsd prefixes
// are predeclared.
func Parse(src string) (*Query, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{
		tokens:   tokens,
		prefixes: make(map[string]string, len(domain.StandardPrefixes)),
		query:    &Query{Limit: -1},
	}
	for k, v := range domain.StandardPrefixes {
		p.prefixes[k] = v
	}

	if err := p.parseQuery(); err != nil {
		return nil, err
	}
	return p.query, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) advance() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(text string) error {
	t := p.advance()
	if !t.is(text) {
		return p.errorf(t, "expected %q, found %s", text, t)
	}
	return nil
}

func (p *parser) checkUnsupported(t token) error {
	if t.kind == tokName && unsupportedKeywords[strings.ToUpper(t.text)] {
		return &UnsupportedError{Feature: strings.ToUpper(t.text)}
	}
	return nil
}

func (p *parser) parseQuery() error {
	if err := p.parsePrologue(); err != nil {
		return err
	}

	t := p.advance()
	if err := p.checkUnsupported(t); err != nil {
		return err
	}
	switch {
	case t.is("SELECT"):
		p.query.Form = domain.QueryFormSelect
		if err := p.parseProjection(); err != nil {
			return err
		}
	case t.is("ASK"):
		p.query.Form = domain.QueryFormAsk
	default:
		return p.errorf(t, "expected SELECT or ASK, found %s", t)
	}

	if p.peek().is("FROM") {
		return &UnsupportedError{Feature: "FROM"}
	}

	if p.peek().is("WHERE") {
		p.advance()
	}
	if err := p.parseGroup(); err != nil {
		return err
	}

	if p.query.Form == domain.QueryFormSelect {
		if err := p.parseModifiers(); err != nil {
			return err
		}
	}

	if t := p.peek(); t.kind != tokEOF {
		if err := p.checkUnsupported(t); err != nil {
			return err
		}
		return p.errorf(t, "unexpected %s after query", t)
	}
	return nil
}

func (p *parser) parsePrologue() error {
	for {
		t := p.peek()
		switch {
		case t.is("PREFIX"):
			p.advance()
			name := p.advance()
			if name.kind != tokPName || !strings.HasSuffix(name.text, ":") {
				return p.errorf(name, "expected prefix name, found %s", name)
			}
			iri := p.advance()
			if iri.kind != tokIRI {
				return p.errorf(iri, "expected IRI for prefix %s, found %s", name.text, iri)
			}
			p.prefixes[strings.TrimSuffix(name.text, ":")] = p.resolve(iri.text)
		case t.is("BASE"):
			p.advance()
			iri := p.advance()
			if iri.kind != tokIRI {
				return p.errorf(iri, "expected base IRI, found %s", iri)
			}
			base, err := url.Parse(p.resolve(iri.text))
			if err != nil {
				return p.errorf(iri, "invalid base IRI: %v", err)
			}
			p.base = base
		default:
			return nil
		}
	}
}

func (p *parser) resolve(iri string) string {
	if p.base == nil {
		return iri
	}
	ref, err := url.Parse(iri)
	if err != nil || ref.IsAbs() {
		return iri
	}
	return p.base.ResolveReference(ref).String()
}

func (p *parser) parseProjection() error {
	if t := p.peek(); t.is("DISTINCT") || t.is("REDUCED") {
		p.advance()
		p.query.Distinct = true
	}

	if p.peek().is("*") {
		p.advance()
		return nil
	}

	vars := []string{}
	for p.peek().kind == tokVar {
		vars = append(vars, p.advance().text)
	}
	if t := p.peek(); t.is("(") {
		return &UnsupportedError{Feature: "projection expressions"}
	}
	if len(vars) == 0 {
		return p.errorf(p.peek(), "expected variables or '*' after SELECT, found %s", p.peek())
	}
	p.query.Projection = vars
	return nil
}

func (p *parser) parseGroup() error {
	if err := p.expect("{"); err != nil {
		return err
	}
	for {
		t := p.peek()
		switch {
		case t.is("}"):
			p.advance()
			return nil
		case t.kind == tokEOF:
			return p.errorf(t, "unterminated group pattern")
		case t.is("."):
			p.advance()
		case t.is("FILTER"):
			p.advance()
			e, err := p.parseConstraint()
			if err != nil {
				return err
			}
			p.query.Filters = append(p.query.Filters, e)
		case t.is("{"):
			return &UnsupportedError{Feature: "nested group patterns"}
		case t.is("SELECT"):
			return &UnsupportedError{Feature: "subqueries"}
		default:
			if err := p.checkUnsupported(t); err != nil {
				return err
			}
			if err := p.parseTriples(); err != nil {
				return err
			}
		}
	}
}

// parseTriples parses one subject with its predicate-object list,
// expanding ';' and ',' abbreviations
func (p *parser) parseTriples() error {
	subj, err := p.parseNode(false)
	if err != nil {
		return err
	}
	return p.parsePredicateObjects(subj)
}

func (p *parser) parsePredicateObjects(subj Node) error {
	for {
		pred, err := p.parseVerb()
		if err != nil {
			return err
		}
		for {
			obj, err := p.parseNode(true)
			if err != nil {
				return err
			}
			p.query.Patterns = append(p.query.Patterns, TriplePattern{Subject: subj, Predicate: pred, Object: obj})
			if !p.peek().is(",") {
				break
			}
			p.advance()
		}
		if !p.peek().is(";") {
			return nil
		}
		for p.peek().is(";") {
			p.advance()
		}
		if t := p.peek(); t.is(".") || t.is("}") || t.is("]") {
			return nil
		}
	}
}

func (p *parser) parseVerb() (Node, error) {
	t := p.peek()
	if t.kind == tokName && t.text == "a" {
		p.advance()
		return Node{Term: domain.NewIRI(domain.RDFType)}, nil
	}
	n, err := p.parseNode(false)
	if err != nil {
		return Node{}, err
	}
	if !n.IsVar() && !n.Term.IsIRI() {
		return Node{}, p.errorf(t, "predicate must be an IRI or variable")
	}
	return n, nil
}

// parseNode parses a variable or RDF term in a triple pattern. Blank nodes
// become hidden variables; '[ ... ]' property lists are expanded in place.
func (p *parser) parseNode(allowLiteral bool) (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokVar:
		p.advance()
		return Node{Var: t.text}, nil
	case tokBlank:
		p.advance()
		return Node{Var: hiddenPrefix + t.text}, nil
	case tokPunct:
		if t.is("[") {
			p.advance()
			p.anon++
			n := Node{Var: fmt.Sprintf("%sanon%d", hiddenPrefix, p.anon)}
			if p.peek().is("]") {
				p.advance()
				return n, nil
			}
			if err := p.parsePredicateObjects(n); err != nil {
				return Node{}, err
			}
			return n, p.expect("]")
		}
		if t.is("(") {
			return Node{}, &UnsupportedError{Feature: "RDF collections"}
		}
	}

	term, err := p.parseTerm()
	if err != nil {
		return Node{}, err
	}
	if term.IsLiteral() && !allowLiteral {
		return Node{}, p.errorf(t, "literal %s not allowed here", term.Key())
	}
	return Node{Term: term}, nil
}

// parseTerm parses an IRI, prefixed name, literal, number or boolean
func (p *parser) parseTerm() (domain.Term, error) {
	t := p.advance()
	switch t.kind {
	case tokIRI:
		return domain.NewIRI(p.resolve(t.text)), nil
	case tokPName:
		iri, err := p.expand(t)
		if err != nil {
			return domain.Term{}, err
		}
		return domain.NewIRI(iri), nil
	case tokString:
		switch next := p.peek(); next.kind {
		case tokLang:
			p.advance()
			return domain.NewLangLiteral(t.text, next.text), nil
		case tokDatatype:
			p.advance()
			dt := p.advance()
			var iri string
			switch dt.kind {
			case tokIRI:
				iri = p.resolve(dt.text)
			case tokPName:
				expanded, err := p.expand(dt)
				if err != nil {
					return domain.Term{}, err
				}
				iri = expanded
			default:
				return domain.Term{}, p.errorf(dt, "expected datatype IRI, found %s", dt)
			}
			return domain.NewTypedLiteral(t.text, iri), nil
		}
		return domain.NewLiteral(t.text), nil
	case tokNumber:
		return numberLiteral(t.text), nil
	case tokName:
		switch strings.ToLower(t.text) {
		case "true", "false":
			return domain.NewTypedLiteral(strings.ToLower(t.text), domain.XSDBoolean), nil
		}
		if err := p.checkUnsupported(t); err != nil {
			return domain.Term{}, err
		}
	}
	return domain.Term{}, p.errorf(t, "expected RDF term, found %s", t)
}

func (p *parser) expand(t token) (string, error) {
	i := strings.Index(t.text, ":")
	prefix, local := t.text[:i], t.text[i+1:]
	ns, ok := p.prefixes[prefix]
	if !ok {
		return "", p.errorf(t, "undeclared prefix %q", prefix)
	}
	return ns + local, nil
}

func numberLiteral(text string) domain.Term {
	switch {
	case strings.ContainsAny(text, "eE"):
		return domain.NewTypedLiteral(text, domain.XSDDouble)
	case strings.Contains(text, "."):
		return domain.NewTypedLiteral(text, domain.XSDDecimal)
	default:
		return domain.NewTypedLiteral(text, domain.XSDInteger)
	}
}

func (p *parser) parseModifiers() error {
	if p.peek().is("ORDER") {
		p.advance()
		if err := p.expect("BY"); err != nil {
			return err
		}
		for {
			key, ok, err := p.parseOrderKey()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			p.query.Order = append(p.query.Order, key)
		}
		if len(p.query.Order) == 0 {
			return p.errorf(p.peek(), "expected ORDER BY condition, found %s", p.peek())
		}
	}

	for {
		t := p.peek()
		switch {
		case t.is("LIMIT"):
			p.advance()
			n, err := p.parseCount()
			if err != nil {
				return err
			}
			p.query.Limit = n
		case t.is("OFFSET"):
			p.advance()
			n, err := p.parseCount()
			if err != nil {
				return err
			}
			p.query.Offset = n
		default:
			return nil
		}
	}
}

func (p *parser) parseOrderKey() (OrderKey, bool, error) {
	t := p.peek()
	switch {
	case t.is("ASC") || t.is("DESC"):
		p.advance()
		if !p.peek().is("(") {
			return OrderKey{}, false, p.errorf(p.peek(), "expected '(' after %s", t.text)
		}
		e, err := p.parseBrackettedExpr()
		if err != nil {
			return OrderKey{}, false, err
		}
		return OrderKey{Expr: e, Desc: t.is("DESC")}, true, nil
	case t.kind == tokVar:
		p.advance()
		return OrderKey{Expr: &varExpr{name: t.text}}, true, nil
	case t.is("("):
		e, err := p.parseBrackettedExpr()
		if err != nil {
			return OrderKey{}, false, err
		}
		return OrderKey{Expr: e}, true, nil
	case t.kind == tokName && functionArity[strings.ToLower(t.text)] != [2]int{}:
		e, err := p.parsePrimary()
		if err != nil {
			return OrderKey{}, false, err
		}
		return OrderKey{Expr: e}, true, nil
	}
	return OrderKey{}, false, nil
}

func (p *parser) parseCount() (int, error) {
	t := p.advance()
	if t.kind != tokNumber {
		return 0, p.errorf(t, "expected integer, found %s", t)
	}
	n, err := strconv.Atoi(t.text)
	if err != nil || n < 0 {
		return 0, p.errorf(t, "expected non-negative integer, found %s", t)
	}
	return n, nil
}

// parseConstraint parses the argument of FILTER: a bracketted expression
// or a function call
func (p *parser) parseConstraint() (Expr, error) {
	if p.peek().is("(") {
		return p.parseBrackettedExpr()
	}
	t := p.peek()
	if t.kind == tokName {
		return p.parsePrimary()
	}
	return nil, p.errorf(t, "expected '(' after FILTER, found %s", t)
}

func (p *parser) parseBrackettedExpr() (Expr, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	e, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	return e, p.expect(")")
}

func (p *parser) parseOr() (Expr, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().is("||") {
		p.advance()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: "||", l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseAnd() (Expr, error) {
	l, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.peek().is("&&") {
		p.advance()
		r, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: "&&", l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseRelational() (Expr, error) {
	l, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	t := p.peek()
	if t.kind == tokOp {
		switch t.text {
		case "=", "!=", "<", ">", "<=", ">=":
			p.advance()
			r, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			return &binaryExpr{op: t.text, l: l, r: r}, nil
		}
	}
	if t.is("IN") || t.is("NOT") {
		return nil, &UnsupportedError{Feature: "IN"}
	}
	return l, nil
}

func (p *parser) parseAdditive() (Expr, error) {
	l, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().is("+") || p.peek().is("-") {
		op := p.advance().text
		r, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.peek().is("*") || p.peek().is("/") {
		op := p.advance().text
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &binaryExpr{op: op, l: l, r: r}
	}
	return l, nil
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.peek()
	switch {
	case t.is("!"):
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &notExpr{x: x}, nil
	case t.is("-"):
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &negExpr{x: x}, nil
	case t.is("+"):
		p.advance()
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.peek()
	switch {
	case t.is("("):
		return p.parseBrackettedExpr()
	case t.kind == tokVar:
		p.advance()
		return &varExpr{name: t.text}, nil
	case t.kind == tokName && !t.is("true") && !t.is("false"):
		name := strings.ToLower(t.text)
		arity, ok := functionArity[name]
		if !ok {
			if t.is("EXISTS") || t.is("NOT") {
				return nil, &UnsupportedError{Feature: "EXISTS"}
			}
			return nil, &UnsupportedError{Feature: "function " + t.text}
		}
		p.advance()
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		if len(args) < arity[0] || len(args) > arity[1] {
			return nil, p.errorf(t, "%s takes %d to %d arguments, got %d", t.text, arity[0], arity[1], len(args))
		}
		if name == "bound" {
			if _, ok := args[0].(*varExpr); !ok {
				return nil, p.errorf(t, "BOUND requires a variable")
			}
		}
		return &callExpr{name: name, args: args}, nil
	}

	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	if p.peek().is("(") {
		return nil, &UnsupportedError{Feature: "IRI function calls"}
	}
	return &constExpr{term: term}, nil
}

func (p *parser) parseArgs() ([]Expr, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []Expr
	if p.peek().is(")") {
		p.advance()
		return args, nil
	}
	for {
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		t := p.advance()
		if t.is(")") {
			return args, nil
		}
		if !t.is(",") {
			return nil, p.errorf(t, "expected ',' or ')', found %s", t)
		}
	}
}
