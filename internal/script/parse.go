package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

var (
	defHeaderPattern = regexp.MustCompile(`(?s)^def\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)\s*:(.*)$`)
	assignPattern    = regexp.MustCompile(`(?s)^([A-Za-z_][A-Za-z0-9_]*)\s*([-+*/%]?)=(.*)$`)
	identPattern     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// reserved words cannot be assigned to or used as parameter names.
var reserved = map[string]struct{}{
	"def": {}, "return": {}, "raise": {}, "assert": {}, "if": {}, "pass": {},
	"true": {}, "false": {}, "null": {}, "for": {}, "in": {},
}

// SyntaxError reports source text that could not be parsed.
type SyntaxError struct {
	Diags hcl.Diagnostics
}

func (e *SyntaxError) Error() string {
	return e.Diags.Error()
}

// StartsWithDef reports whether the trimmed source begins with the def
// keyword followed by whitespace.
func StartsWithDef(src string) bool {
	text := strings.TrimSpace(src)
	if len(text) < 4 || text[:3] != "def" {
		return false
	}
	switch text[3] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// Parse parses source text into a Program. The filename is used in
// diagnostics only.
func Parse(src []byte, filename string) (*Program, error) {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")

	lines, diags := splitLogicalLines(text, filename)
	if diags.HasErrors() {
		return nil, &SyntaxError{Diags: diags}
	}

	p := &parser{filename: filename}
	prog := &Program{Filename: filename}

	for i := 0; i < len(lines); {
		l := lines[i]
		if l.indent > 0 {
			p.errorf(l, 0, len(l.text), "Unexpected indent", "Only function bodies and if blocks may be indented.")
			i++
			continue
		}
		if _, ok := cutKeyword(l.text, "def"); ok {
			def, next := p.parseFuncDef(lines, i)
			if def != nil {
				prog.Statements = append(prog.Statements, def)
			}
			i = next
			continue
		}
		next := blockEnd(lines, i)
		if stmt := p.parseBlockStatement(l, lines[i+1:next], false); stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		i = next
	}

	if p.diags.HasErrors() {
		return nil, &SyntaxError{Diags: p.diags}
	}
	return prog, nil
}

// logicalLine is one statement's worth of source. Continuation lines are
// joined with newlines while brackets remain open.
type logicalLine struct {
	text   string
	indent int
	line   int
	column int
	byte   int
}

// pos converts an offset into l.text into a source position.
func (l logicalLine) pos(offset int) hcl.Pos {
	prefix := l.text[:offset]
	nl := strings.Count(prefix, "\n")
	if nl == 0 {
		return hcl.Pos{Line: l.line, Column: l.column + offset, Byte: l.byte + offset}
	}
	last := strings.LastIndex(prefix, "\n")
	return hcl.Pos{Line: l.line + nl, Column: offset - last, Byte: l.byte + offset}
}

func splitLogicalLines(src, filename string) ([]logicalLine, hcl.Diagnostics) {
	var (
		out   []logicalLine
		cur   *logicalLine
		buf   strings.Builder
		depth int
	)

	offset := 0
	for i, raw := range strings.Split(src, "\n") {
		lineStart := offset
		offset += len(raw) + 1

		code, delta := scanLine(raw)
		if cur == nil {
			if strings.TrimSpace(code) == "" {
				continue
			}
			body := strings.TrimLeft(code, " \t")
			indentLen := len(code) - len(body)
			cur = &logicalLine{
				indent: indentLen,
				line:   i + 1,
				column: indentLen + 1,
				byte:   lineStart + indentLen,
			}
			buf.Reset()
			buf.WriteString(body)
		} else {
			buf.WriteString("\n")
			buf.WriteString(code)
		}

		depth += delta
		if depth <= 0 {
			cur.text = strings.TrimRight(buf.String(), " \t\n")
			out = append(out, *cur)
			cur = nil
			depth = 0
		}
	}

	if cur != nil {
		start := hcl.Pos{Line: cur.line, Column: cur.column, Byte: cur.byte}
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unclosed bracket",
			Detail:   "The statement starting here has an opening bracket that is never closed.",
			Subject:  &hcl.Range{Filename: filename, Start: start, End: start},
		}}
	}
	return out, nil
}

// scanLine blanks out a trailing # comment and returns the net change in
// bracket depth on the line. String literals are skipped.
func scanLine(raw string) (string, int) {
	delta := 0
	inStr := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inStr {
			switch c {
			case '\\':
				i++
			case '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '#':
			return raw[:i] + strings.Repeat(" ", len(raw)-i), delta
		case '(', '[', '{':
			delta++
		case ')', ']', '}':
			delta--
		}
	}
	return raw, delta
}

// topLevelIndexes returns the positions in text[from:to] of ch that are not
// nested in brackets or string literals.
func topLevelIndexes(text string, from, to int, ch byte) []int {
	var out []int
	depth := 0
	inStr := false
	for i := from; i < to; i++ {
		c := text[i]
		if inStr {
			switch c {
			case '\\':
				i++
			case '"':
				inStr = false
			}
			continue
		}
		switch {
		case c == '"':
			inStr = true
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ch && depth == 0:
			out = append(out, i)
		}
	}
	return out
}

// cutKeyword reports whether text starts with the keyword kw as a whole word
// and returns the remainder.
func cutKeyword(text, kw string) (string, bool) {
	if !strings.HasPrefix(text, kw) {
		return "", false
	}
	rest := text[len(kw):]
	if rest != "" && isIdentByte(rest[0]) {
		return "", false
	}
	return rest, true
}

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\n"))
}

type parser struct {
	filename string
	diags    hcl.Diagnostics
}

func (p *parser) rangeOf(l logicalLine, from, to int) hcl.Range {
	return hcl.Range{Filename: p.filename, Start: l.pos(from), End: l.pos(to)}
}

func (p *parser) errorf(l logicalLine, from, to int, summary, detail string, args ...any) {
	rng := p.rangeOf(l, from, to)
	p.diags = append(p.diags, &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   fmt.Sprintf(detail, args...),
		Subject:  &rng,
	})
}

// parseFuncDef parses the def header at lines[i] and its body. It returns the
// index of the first line after the body.
func (p *parser) parseFuncDef(lines []logicalLine, i int) (*FuncDef, int) {
	l := lines[i]
	j := blockEnd(lines, i)
	body := lines[i+1 : j]

	m := defHeaderPattern.FindStringSubmatchIndex(l.text)
	if m == nil {
		p.errorf(l, 0, len(l.text), "Invalid function definition", `Expected "def name(params):".`)
		return nil, j
	}

	params, kwargs, ok := p.parseParams(l, m[4], m[5])
	def := &FuncDef{
		Name:     l.text[m[2]:m[3]],
		Params:   params,
		Kwargs:   kwargs,
		SrcRange: p.rangeOf(l, 0, len(l.text)),
	}
	if _, isReserved := reserved[def.Name]; isReserved {
		p.errorf(l, m[2], m[3], "Invalid function name", "%q is a reserved word.", def.Name)
		ok = false
	}

	inline := l.text[m[6]:m[7]]
	if strings.TrimSpace(inline) != "" {
		if len(body) > 0 {
			p.errorf(body[0], 0, len(body[0].text), "Unexpected indent", "A function with an inline body cannot also have an indented block.")
			ok = false
		}
		if stmt := p.parseStatement(l, m[6]+leadingSpace(inline), true); stmt != nil {
			def.Body = append(def.Body, stmt)
		} else {
			ok = false
		}
	} else {
		if len(body) == 0 {
			p.errorf(l, 0, len(l.text), "Expected an indented block", "Function %q has no body.", def.Name)
			ok = false
		}
		if len(body) > 0 {
			stmts, bodyOK := p.parseBlock(body, true)
			def.Body = stmts
			ok = ok && bodyOK
		}
	}

	if !ok {
		return nil, j
	}
	return def, j
}

// blockEnd returns the index of the first line after lines[i] that is not
// indented deeper than lines[i].
func blockEnd(lines []logicalLine, i int) int {
	j := i + 1
	for j < len(lines) && lines[j].indent > lines[i].indent {
		j++
	}
	return j
}

// parseBlock parses the statements of an indented block. Every statement
// must start at the indentation of the first line.
func (p *parser) parseBlock(lines []logicalLine, inFunc bool) ([]Statement, bool) {
	var out []Statement
	ok := true
	indent := lines[0].indent
	for i := 0; i < len(lines); {
		l := lines[i]
		next := blockEnd(lines, i)
		if l.indent != indent {
			p.errorf(l, 0, len(l.text), "Inconsistent indentation", "This line does not match the indentation of the block it belongs to.")
			ok = false
			i = next
			continue
		}
		if stmt := p.parseBlockStatement(l, lines[i+1:next], inFunc); stmt != nil {
			out = append(out, stmt)
		} else {
			ok = false
		}
		i = next
	}
	return out, ok
}

// parseBlockStatement parses l together with the lines indented below it.
// Only an if statement ending in ':' may own such lines.
func (p *parser) parseBlockStatement(l logicalLine, nested []logicalLine, inFunc bool) Statement {
	if len(nested) == 0 {
		return p.parseStatement(l, 0, inFunc)
	}
	if rest, ok := cutKeyword(l.text, "if"); ok && strings.HasSuffix(l.text, ":") {
		return p.parseIfBlock(l, len(l.text)-len(rest), nested, inFunc)
	}
	p.errorf(nested[0], 0, len(nested[0].text), "Unexpected indent", "Only function bodies and if blocks may be indented.")
	return nil
}

// parseIfBlock parses "if cond:" followed by an indented block.
func (p *parser) parseIfBlock(l logicalLine, from int, nested []logicalLine, inFunc bool) Statement {
	colon := len(l.text) - 1
	cond := p.parseExpr(l, from, colon)
	body, ok := p.parseBlock(nested, inFunc)
	if cond == nil || !ok {
		return nil
	}

	last := nested[len(nested)-1]
	block := &Block{
		Body: body,
		SrcRange: hcl.Range{
			Filename: p.filename,
			Start:    nested[0].pos(0),
			End:      last.pos(len(last.text)),
		},
	}
	return &If{Cond: cond, Then: block, SrcRange: p.rangeOf(l, 0, len(l.text))}
}

func (p *parser) parseParams(l logicalLine, from, to int) ([]string, string, bool) {
	raw := l.text[from:to]
	params := []string{}
	if strings.TrimSpace(raw) == "" {
		return params, "", true
	}

	ok := true
	kwargs := ""
	seen := make(map[string]struct{})
	parts := strings.Split(raw, ",")
	offset := from
	for idx, part := range parts {
		start, end := offset, offset+len(part)
		offset = end + 1
		name := strings.TrimSpace(part)

		if name == "" {
			if idx == len(parts)-1 && idx > 0 {
				continue // trailing comma
			}
			p.errorf(l, start, end, "Invalid parameter list", "Empty parameter name.")
			ok = false
			continue
		}
		if kwargs != "" {
			p.errorf(l, start, end, "Invalid parameter list", "No parameter may follow **%s.", kwargs)
			ok = false
			continue
		}

		isKwargs := false
		switch {
		case strings.HasPrefix(name, "**"):
			name = strings.TrimSpace(name[2:])
			isKwargs = true
		case strings.HasPrefix(name, "*"):
			p.errorf(l, start, end, "Unsupported parameter", "Variadic positional parameters are not supported.")
			ok = false
			continue
		case strings.Contains(name, "="):
			p.errorf(l, start, end, "Unsupported parameter", "Default parameter values are not supported.")
			ok = false
			continue
		}

		if !identPattern.MatchString(name) {
			p.errorf(l, start, end, "Invalid parameter name", "%q is not a valid identifier.", name)
			ok = false
			continue
		}
		if _, isReserved := reserved[name]; isReserved {
			p.errorf(l, start, end, "Invalid parameter name", "%q is a reserved word.", name)
			ok = false
			continue
		}
		if _, dup := seen[name]; dup {
			p.errorf(l, start, end, "Duplicate parameter", "Parameter %q is declared more than once.", name)
			ok = false
			continue
		}
		seen[name] = struct{}{}

		if isKwargs {
			kwargs = name
		} else {
			params = append(params, name)
		}
	}
	return params, kwargs, ok
}

// parseStatement parses the statement starting at offset start of l.
func (p *parser) parseStatement(l logicalLine, start int, inFunc bool) Statement {
	end := len(l.text)
	text := l.text[start:]
	rng := p.rangeOf(l, start, end)

	if _, ok := cutKeyword(text, "def"); ok {
		p.errorf(l, start, end, "Unsupported statement", "Nested function definitions are not supported.")
		return nil
	}
	if rest, ok := cutKeyword(text, "pass"); ok && strings.TrimSpace(rest) == "" {
		return &Pass{SrcRange: rng}
	}
	if rest, ok := cutKeyword(text, "return"); ok {
		if !inFunc {
			p.errorf(l, start, end, "Invalid return", "'return' outside function.")
			return nil
		}
		if strings.TrimSpace(rest) == "" {
			return &Return{SrcRange: rng}
		}
		expr := p.parseExpr(l, end-len(rest), end)
		if expr == nil {
			return nil
		}
		return &Return{Expr: expr, SrcRange: rng}
	}
	if rest, ok := cutKeyword(text, "raise"); ok {
		expr := p.parseExpr(l, end-len(rest), end)
		if expr == nil {
			return nil
		}
		return &Raise{Expr: expr, SrcRange: rng}
	}
	if rest, ok := cutKeyword(text, "assert"); ok {
		return p.parseAssert(l, end-len(rest), rng)
	}
	if rest, ok := cutKeyword(text, "if"); ok {
		return p.parseIf(l, end-len(rest), rng, inFunc)
	}

	if m := assignPattern.FindStringSubmatchIndex(text); m != nil && !strings.HasPrefix(text[m[6]:m[7]], "=") {
		return p.parseAssign(l, start, m, rng)
	}

	expr := p.parseExpr(l, start, end)
	if expr == nil {
		return nil
	}
	return &ExprStmt{Expr: expr, SrcRange: rng}
}

func (p *parser) parseAssign(l logicalLine, start int, m []int, rng hcl.Range) Statement {
	end := len(l.text)
	name := l.text[start+m[2] : start+m[3]]
	if _, isReserved := reserved[name]; isReserved {
		p.errorf(l, start+m[2], start+m[3], "Invalid assignment", "Cannot assign to reserved word %q.", name)
		return nil
	}

	rhs := p.parseExpr(l, start+m[6], end)
	if rhs == nil {
		return nil
	}

	op := l.text[start+m[4] : start+m[5]]
	if op == "" {
		return &Assign{Name: name, Expr: rhs, SrcRange: rng}
	}

	nameRange := p.rangeOf(l, start+m[2], start+m[3])
	lhs := &hclsyntax.ScopeTraversalExpr{
		Traversal: hcl.Traversal{hcl.TraverseRoot{Name: name, SrcRange: nameRange}},
		SrcRange:  nameRange,
	}
	return &Assign{
		Name: name,
		Expr: &hclsyntax.BinaryOpExpr{
			LHS:      lhs,
			Op:       augmentedOperation(op),
			RHS:      rhs,
			SrcRange: rng,
		},
		SrcRange: rng,
	}
}

func augmentedOperation(op string) *hclsyntax.Operation {
	switch op {
	case "+":
		return hclsyntax.OpAdd
	case "-":
		return hclsyntax.OpSubtract
	case "*":
		return hclsyntax.OpMultiply
	case "/":
		return opCheckedDivide
	default:
		return opCheckedModulo
	}
}

func (p *parser) parseAssert(l logicalLine, from int, rng hcl.Range) Statement {
	end := len(l.text)
	condEnd := end
	var msg hclsyntax.Expression
	if commas := topLevelIndexes(l.text, from, end, ','); len(commas) > 0 {
		condEnd = commas[0]
		msg = p.parseExpr(l, commas[0]+1, end)
		if msg == nil {
			return nil
		}
	}
	cond := p.parseExpr(l, from, condEnd)
	if cond == nil {
		return nil
	}
	return &Assert{Cond: cond, Message: msg, SrcRange: rng}
}

// parseIf tries each top-level colon as the end of the condition, since a
// conditional expression in the condition also contains colons.
func (p *parser) parseIf(l logicalLine, from int, rng hcl.Range, inFunc bool) Statement {
	end := len(l.text)
	var firstDiags hcl.Diagnostics
	for _, c := range topLevelIndexes(l.text, from, end, ':') {
		cond, diags := p.tryParseExpr(l, from, c)
		if diags.HasErrors() {
			if firstDiags == nil {
				firstDiags = diags
			}
			continue
		}
		rest := l.text[c+1:]
		if strings.TrimSpace(rest) == "" {
			p.errorf(l, from, end, "Expected an indented block", "An if statement ending in ':' needs a statement after it or an indented block below it.")
			return nil
		}
		then := p.parseStatement(l, c+1+leadingSpace(rest), inFunc)
		if then == nil {
			return nil
		}
		return &If{Cond: cond, Then: then, SrcRange: rng}
	}

	if firstDiags != nil {
		p.diags = append(p.diags, firstDiags...)
	} else {
		p.errorf(l, from, end, "Invalid if statement", "Expected ':' after the condition.")
	}
	return nil
}

func (p *parser) parseExpr(l logicalLine, from, to int) hclsyntax.Expression {
	expr, diags := p.tryParseExpr(l, from, to)
	p.diags = append(p.diags, diags...)
	if diags.HasErrors() {
		return nil
	}
	return expr
}

func (p *parser) tryParseExpr(l logicalLine, from, to int) (hclsyntax.Expression, hcl.Diagnostics) {
	from += leadingSpace(l.text[from:to])
	if strings.TrimSpace(l.text[from:to]) == "" {
		rng := p.rangeOf(l, from, to)
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing expression",
			Detail:   "An expression is required here.",
			Subject:  &rng,
		}}
	}

	expr, diags := hclsyntax.ParseExpression([]byte(l.text[from:to]), p.filename, l.pos(from))
	if diags.HasErrors() {
		return nil, diags
	}
	useCheckedOperators(expr)
	return expr, diags
}
