package sparql

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"ontoscope/internal/domain"
)

// Solution maps variable names to bound terms
type Solution map[string]domain.Term

// Expr is a FILTER or ORDER BY expression
type Expr interface {
	Eval(s Solution) (domain.Term, error)
}

var errTypeMismatch = errors.New("type error")

type varExpr struct{ name string }

func (e *varExpr) Eval(s Solution) (domain.Term, error) {
	t, ok := s[e.name]
	if !ok || t.IsZero() {
		return domain.Term{}, fmt.Errorf("variable ?%s is unbound", e.name)
	}
	return t, nil
}

type constExpr struct{ term domain.Term }

func (e *constExpr) Eval(Solution) (domain.Term, error) { return e.term, nil }

type notExpr struct{ x Expr }

func (e *notExpr) Eval(s Solution) (domain.Term, error) {
	v, err := e.x.Eval(s)
	if err != nil {
		return domain.Term{}, err
	}
	b, err := EffectiveBoolean(v)
	if err != nil {
		return domain.Term{}, err
	}
	return boolTerm(!b), nil
}

type negExpr struct{ x Expr }

func (e *negExpr) Eval(s Solution) (domain.Term, error) {
	v, err := e.x.Eval(s)
	if err != nil {
		return domain.Term{}, err
	}
	n, isInt, ok := numericValue(v)
	if !ok {
		return domain.Term{}, errTypeMismatch
	}
	return numberTerm(-n, isInt), nil
}

type binaryExpr struct {
	op   string
	l, r Expr
}

func (e *binaryExpr) Eval(s Solution) (domain.Term, error) {
	switch e.op {
	case "||":
		return e.evalOr(s)
	case "&&":
		return e.evalAnd(s)
	}

	l, err := e.l.Eval(s)
	if err != nil {
		return domain.Term{}, err
	}
	r, err := e.r.Eval(s)
	if err != nil {
		return domain.Term{}, err
	}

	switch e.op {
	case "=":
		eq, err := termsEqual(l, r)
		return boolTerm(eq), err
	case "!=":
		eq, err := termsEqual(l, r)
		return boolTerm(!eq), err
	case "<", ">", "<=", ">=":
		c, err := compareValues(l, r)
		if err != nil {
			return domain.Term{}, err
		}
		switch e.op {
		case "<":
			return boolTerm(c < 0), nil
		case ">":
			return boolTerm(c > 0), nil
		case "<=":
			return boolTerm(c <= 0), nil
		default:
			return boolTerm(c >= 0), nil
		}
	case "+", "-", "*", "/":
		return arithmetic(e.op, l, r)
	}
	return domain.Term{}, fmt.Errorf("unknown operator %s", e.op)
}

// evalOr follows SPARQL's three-valued logic: an error on one side is
// masked by a true on the other.
func (e *binaryExpr) evalOr(s Solution) (domain.Term, error) {
	lb, lerr := evalBool(e.l, s)
	if lerr == nil && lb {
		return boolTerm(true), nil
	}
	rb, rerr := evalBool(e.r, s)
	if rerr == nil && rb {
		return boolTerm(true), nil
	}
	if lerr != nil {
		return domain.Term{}, lerr
	}
	if rerr != nil {
		return domain.Term{}, rerr
	}
	return boolTerm(false), nil
}

func (e *binaryExpr) evalAnd(s Solution) (domain.Term, error) {
	lb, lerr := evalBool(e.l, s)
	if lerr == nil && !lb {
		return boolTerm(false), nil
	}
	rb, rerr := evalBool(e.r, s)
	if rerr == nil && !rb {
		return boolTerm(false), nil
	}
	if lerr != nil {
		return domain.Term{}, lerr
	}
	if rerr != nil {
		return domain.Term{}, rerr
	}
	return boolTerm(true), nil
}

type callExpr struct {
	name string
	args []Expr

	reSrc string
	re    *regexp.Regexp
}

// functionArity lists the supported functions with their minimum and
// maximum argument counts
var functionArity = map[string][2]int{
	"bound":     {1, 1},
	"isiri":     {1, 1},
	"isuri":     {1, 1},
	"isblank":   {1, 1},
	"isliteral": {1, 1},
	"isnumeric": {1, 1},
	"str":       {1, 1},
	"lang":      {1, 1},
	"datatype":  {1, 1},
	"regex":     {2, 3},
	"contains":  {2, 2},
	"strstarts": {2, 2},
	"strends":   {2, 2},
	"lcase":     {1, 1},
	"ucase":     {1, 1},
	"strlen":    {1, 1},
	"sameterm":  {2, 2},
}

func (e *callExpr) Eval(s Solution) (domain.Term, error) {
	if e.name == "bound" {
		v, ok := e.args[0].(*varExpr)
		if !ok {
			return domain.Term{}, errTypeMismatch
		}
		t, bound := s[v.name]
		return boolTerm(bound && !t.IsZero()), nil
	}

	args := make([]domain.Term, len(e.args))
	for i, a := range e.args {
		v, err := a.Eval(s)
		if err != nil {
			return domain.Term{}, err
		}
		args[i] = v
	}

	switch e.name {
	case "isiri", "isuri":
		return boolTerm(args[0].IsIRI()), nil
	case "isblank":
		return boolTerm(args[0].IsBlank()), nil
	case "isliteral":
		return boolTerm(args[0].IsLiteral()), nil
	case "isnumeric":
		_, _, ok := numericValue(args[0])
		return boolTerm(ok), nil
	case "str":
		if args[0].IsBlank() {
			return domain.Term{}, errTypeMismatch
		}
		return domain.NewLiteral(args[0].Value), nil
	case "lang":
		if !args[0].IsLiteral() {
			return domain.Term{}, errTypeMismatch
		}
		return domain.NewLiteral(args[0].Lang), nil
	case "datatype":
		if !args[0].IsLiteral() {
			return domain.Term{}, errTypeMismatch
		}
		return domain.NewIRI(args[0].EffectiveDatatype()), nil
	case "lcase", "ucase":
		if !isStringLiteral(args[0]) {
			return domain.Term{}, errTypeMismatch
		}
		out := args[0]
		if e.name == "lcase" {
			out.Value = strings.ToLower(out.Value)
		} else {
			out.Value = strings.ToUpper(out.Value)
		}
		return out, nil
	case "strlen":
		if !isStringLiteral(args[0]) {
			return domain.Term{}, errTypeMismatch
		}
		return numberTerm(float64(len([]rune(args[0].Value))), true), nil
	case "contains", "strstarts", "strends":
		if !isStringLiteral(args[0]) || !isStringLiteral(args[1]) {
			return domain.Term{}, errTypeMismatch
		}
		a, b := args[0].Value, args[1].Value
		switch e.name {
		case "contains":
			return boolTerm(strings.Contains(a, b)), nil
		case "strstarts":
			return boolTerm(strings.HasPrefix(a, b)), nil
		default:
			return boolTerm(strings.HasSuffix(a, b)), nil
		}
	case "regex":
		return e.regex(args)
	case "sameterm":
		return boolTerm(args[0].Key() == args[1].Key()), nil
	}
	return domain.Term{}, fmt.Errorf("unknown function %s", e.name)
}

func (e *callExpr) regex(args []domain.Term) (domain.Term, error) {
	if !isStringLiteral(args[0]) || !args[1].IsLiteral() {
		return domain.Term{}, errTypeMismatch
	}
	src := args[1].Value
	if len(args) == 3 {
		flags := args[2].Value
		for _, f := range flags {
			if !strings.ContainsRune("ismx", f) {
				return domain.Term{}, fmt.Errorf("unsupported regex flag %q", f)
			}
		}
		// Go's RE2 has no x flag; drop it rather than fail
		flags = strings.ReplaceAll(flags, "x", "")
		if flags != "" {
			src = "(?" + flags + ")" + src
		}
	}
	if e.re == nil || e.reSrc != src {
		re, err := regexp.Compile(src)
		if err != nil {
			return domain.Term{}, fmt.Errorf("invalid regex: %w", err)
		}
		e.re, e.reSrc = re, src
	}
	return boolTerm(e.re.MatchString(args[0].Value)), nil
}

func evalBool(e Expr, s Solution) (bool, error) {
	v, err := e.Eval(s)
	if err != nil {
		return false, err
	}
	return EffectiveBoolean(v)
}

// EffectiveBoolean computes the SPARQL effective boolean value of a term
func EffectiveBoolean(t domain.Term) (bool, error) {
	if !t.IsLiteral() {
		return false, errTypeMismatch
	}
	if t.Datatype == domain.XSDBoolean {
		return t.Value == "true" || t.Value == "1", nil
	}
	if n, _, ok := numericValue(t); ok {
		return n != 0 && !math.IsNaN(n), nil
	}
	if isStringLiteral(t) {
		return t.Value != "", nil
	}
	return false, errTypeMismatch
}

var numericTypes = func() map[string]bool {
	types := make(map[string]bool)
	for _, local := range []string{
		"integer", "decimal", "double", "float", "int", "long", "short", "byte",
		"nonNegativeInteger", "positiveInteger", "negativeInteger", "nonPositiveInteger",
		"unsignedLong", "unsignedInt", "unsignedShort", "unsignedByte",
	} {
		types[domain.XSDNamespace+local] = true
	}
	return types
}()

func isIntegerType(dt string) bool {
	return numericTypes[dt] && dt != domain.XSDDecimal && dt != domain.XSDDouble && dt != domain.XSDNamespace+"float"
}

func numericValue(t domain.Term) (float64, bool, bool) {
	if !t.IsLiteral() || !numericTypes[t.Datatype] {
		return 0, false, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	if err != nil {
		return 0, false, false
	}
	return n, isIntegerType(t.Datatype), true
}

func isStringLiteral(t domain.Term) bool {
	return t.IsLiteral() && (t.Datatype == "" || t.Datatype == domain.XSDString)
}

func boolTerm(b bool) domain.Term {
	return domain.NewTypedLiteral(strconv.FormatBool(b), domain.XSDBoolean)
}

func numberTerm(n float64, isInt bool) domain.Term {
	if isInt && n == math.Trunc(n) && !math.IsInf(n, 0) {
		return domain.NewTypedLiteral(strconv.FormatInt(int64(n), 10), domain.XSDInteger)
	}
	return domain.NewTypedLiteral(strconv.FormatFloat(n, 'f', -1, 64), domain.XSDDecimal)
}

func termsEqual(a, b domain.Term) (bool, error) {
	if an, _, ok := numericValue(a); ok {
		if bn, _, ok := numericValue(b); ok {
			return an == bn, nil
		}
	}
	return a.Key() == b.Key(), nil
}

func compareValues(a, b domain.Term) (int, error) {
	if an, _, ok := numericValue(a); ok {
		if bn, _, ok := numericValue(b); ok {
			switch {
			case an < bn:
				return -1, nil
			case an > bn:
				return 1, nil
			}
			return 0, nil
		}
		return 0, errTypeMismatch
	}
	if isStringLiteral(a) && isStringLiteral(b) {
		return strings.Compare(a.Value, b.Value), nil
	}
	if a.IsLiteral() && b.IsLiteral() && a.Lang != "" && a.Lang == b.Lang {
		return strings.Compare(a.Value, b.Value), nil
	}
	if a.Datatype == domain.XSDBoolean && b.Datatype == domain.XSDBoolean {
		return strings.Compare(a.Value, b.Value), nil
	}
	return 0, errTypeMismatch
}

func arithmetic(op string, a, b domain.Term) (domain.Term, error) {
	an, aInt, ok := numericValue(a)
	if !ok {
		return domain.Term{}, errTypeMismatch
	}
	bn, bInt, ok := numericValue(b)
	if !ok {
		return domain.Term{}, errTypeMismatch
	}
	isInt := aInt && bInt
	switch op {
	case "+":
		return numberTerm(an+bn, isInt), nil
	case "-":
		return numberTerm(an-bn, isInt), nil
	case "*":
		return numberTerm(an*bn, isInt), nil
	default:
		if bn == 0 {
			return domain.Term{}, errors.New("division by zero")
		}
		return numberTerm(an/bn, false), nil
	}
}

// orderTerms sorts unbound first, then blank nodes, IRIs and literals;
// numbers compare numerically and everything else by lexical form.
func orderTerms(a, b domain.Term) int {
	ra, rb := orderRank(a), orderRank(b)
	if ra != rb {
		return ra - rb
	}
	if c, err := compareValues(a, b); err == nil {
		return c
	}
	if c := strings.Compare(a.Value, b.Value); c != 0 {
		return c
	}
	return strings.Compare(a.Key(), b.Key())
}

func orderRank(t domain.Term) int {
	switch t.Kind {
	case domain.TermBlank:
		return 1
	case domain.TermIRI:
		return 2
	case domain.TermLiteral:
		return 3
	}
	return 0
}
