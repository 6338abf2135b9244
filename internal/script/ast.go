package script

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
)

// Program is the parsed form of a source text.
type Program struct {
	Filename   string
	Statements []Statement
}

// Statement is implemented by every statement node.
type Statement interface {
	Range() hcl.Range
	isStatement()
}

// FuncDef is a top-level function definition.
type FuncDef struct {
	Name   string
	Params []string
	// Kwargs names the parameter collecting extra keyword arguments, if any.
	Kwargs   string
	Body     []Statement
	SrcRange hcl.Range
}

// Assign binds the value of Expr to Name in the current scope.
type Assign struct {
	Name     string
	Expr     hclsyntax.Expression
	SrcRange hcl.Range
}

// Return ends the current function. A nil Expr returns null.
type Return struct {
	Expr     hclsyntax.Expression
	SrcRange hcl.Range
}

// Raise aborts execution with the value of Expr as the message.
type Raise struct {
	Expr     hclsyntax.Expression
	SrcRange hcl.Range
}

// Assert aborts execution when Cond is not truthy.
type Assert struct {
	Cond     hclsyntax.Expression
	Message  hclsyntax.Expression
	SrcRange hcl.Range
}

// If runs Then when Cond is truthy.
type If struct {
	Cond     hclsyntax.Expression
	Then     Statement
	SrcRange hcl.Range
}

// Block is the indented body of an if statement.
type Block struct {
	Body     []Statement
	SrcRange hcl.Range
}

// ExprStmt evaluates an expression and discards its value.
type ExprStmt struct {
	Expr     hclsyntax.Expression
	SrcRange hcl.Range
}

// Pass does nothing.
type Pass struct {
	SrcRange hcl.Range
}

func (s *FuncDef) Range() hcl.Range  { return s.SrcRange }
func (s *Assign) Range() hcl.Range   { return s.SrcRange }
func (s *Return) Range() hcl.Range   { return s.SrcRange }
func (s *Raise) Range() hcl.Range    { return s.SrcRange }
func (s *Assert) Range() hcl.Range   { return s.SrcRange }
func (s *If) Range() hcl.Range       { return s.SrcRange }
func (s *Block) Range() hcl.Range    { return s.SrcRange }
func (s *ExprStmt) Range() hcl.Range { return s.SrcRange }
func (s *Pass) Range() hcl.Range     { return s.SrcRange }

func (*FuncDef) isStatement()  {}
func (*Assign) isStatement()   {}
func (*Return) isStatement()   {}
func (*Raise) isStatement()    {}
func (*Assert) isStatement()   {}
func (*If) isStatement()       {}
func (*Block) isStatement()    {}
func (*ExprStmt) isStatement() {}
func (*Pass) isStatement()     {}

// expressions returns the expressions directly held by a statement, descending
// into the body of an If but not into function bodies.
func expressions(s Statement) []hclsyntax.Expression {
	var out []hclsyntax.Expression
	add := func(exprs ...hclsyntax.Expression) {
		for _, e := range exprs {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	switch st := s.(type) {
	case *Assign:
		add(st.Expr)
	case *Return:
		add(st.Expr)
	case *Raise:
		add(st.Expr)
	case *Assert:
		add(st.Cond, st.Message)
	case *If:
		add(st.Cond)
		out = append(out, expressions(st.Then)...)
	case *Block:
		for _, stmt := range st.Body {
			out = append(out, expressions(stmt)...)
		}
	case *ExprStmt:
		add(st.Expr)
	}
	return out
}
