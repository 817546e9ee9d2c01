package logic

import (
	"fmt"
	"strings"
)

// Sort identifies the type of a term.
type Sort string

const (
	SortNat  Sort = "Nat"
	SortInt  Sort = "Int"
	SortReal Sort = "Real"
	SortBool Sort = "Bool"
)

// Op is a term constructor operator. The string values double as the
// canonical-form spelling, so adding an operator here automatically extends
// fingerprinting.
type Op string

// Arithmetic operators.
const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "div"
	OpMod Op = "mod"
)

// Comparison operators.
const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Logical operators.
const (
	OpAnd     Op = "and"
	OpOr      Op = "or"
	OpNot     Op = "not"
	OpImplies Op = "=>"
	OpIff     Op = "<=>"
)

// Quantifiers.
const (
	OpForAll Op = "forall"
	OpExists Op = "exists"
)

// Term is a node in a statement's expression tree. Terms are immutable once
// constructed; all implementations are plain value types.
type Term interface {
	// writeCanonical appends the canonical spelling of the term. The
	// canonical form is fully parenthesized prefix notation, so two
	// structurally equal terms always produce identical bytes regardless
	// of how they were constructed.
	writeCanonical(b *strings.Builder)

	// check reports whether the term is well formed (no nil children,
	// known operators).
	check() error
}

// Var is a typed variable reference.
type Var struct {
	Name string
	Sort Sort
}

// Const is a literal value. The value is kept as its decimal / boolean
// spelling; the generator only ever produces numerals and true/false.
type Const struct {
	Value string
	Sort  Sort
}

// BinOp applies a binary operator to two subterms.
type BinOp struct {
	Op    Op
	Left  Term
	Right Term
}

// UnOp applies a unary operator to a subterm.
type UnOp struct {
	Op   Op
	Term Term
}

// Quantifier binds a variable over a body.
type Quantifier struct {
	Op   Op // OpForAll or OpExists
	Var  Var
	Body Term
}

func (v Var) writeCanonical(b *strings.Builder) {
	b.WriteString(v.Name)
	b.WriteByte(':')
	b.WriteString(string(v.Sort))
}

func (c Const) writeCanonical(b *strings.Builder) {
	b.WriteByte('#')
	b.WriteString(c.Value)
	b.WriteByte(':')
	b.WriteString(string(c.Sort))
}

func (t BinOp) writeCanonical(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(string(t.Op))
	b.WriteByte(' ')
	t.Left.writeCanonical(b)
	b.WriteByte(' ')
	t.Right.writeCanonical(b)
	b.WriteByte(')')
}

func (t UnOp) writeCanonical(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(string(t.Op))
	b.WriteByte(' ')
	t.Term.writeCanonical(b)
	b.WriteByte(')')
}

func (q Quantifier) writeCanonical(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(string(q.Op))
	b.WriteByte(' ')
	q.Var.writeCanonical(b)
	b.WriteByte(' ')
	q.Body.writeCanonical(b)
	b.WriteByte(')')
}

func (v Var) check() error {
	if v.Name == "" {
		return fmt.Errorf("variable with empty name")
	}
	if v.Sort == "" {
		return fmt.Errorf("variable %q with empty sort", v.Name)
	}
	return nil
}

func (c Const) check() error {
	if c.Value == "" {
		return fmt.Errorf("constant with empty value")
	}
	if c.Sort == "" {
		return fmt.Errorf("constant %q with empty sort", c.Value)
	}
	return nil
}

func (t BinOp) check() error {
	if t.Left == nil || t.Right == nil {
		return fmt.Errorf("binary op %q with nil child", t.Op)
	}
	if err := t.Left.check(); err != nil {
		return err
	}
	return t.Right.check()
}

func (t UnOp) check() error {
	if t.Term == nil {
		return fmt.Errorf("unary op %q with nil child", t.Op)
	}
	return t.Term.check()
}

func (q Quantifier) check() error {
	if q.Op != OpForAll && q.Op != OpExists {
		return fmt.Errorf("quantifier with non-quantifier op %q", q.Op)
	}
	if q.Body == nil {
		return fmt.Errorf("quantifier %q with nil body", q.Op)
	}
	if err := q.Var.check(); err != nil {
		return err
	}
	return q.Body.check()
}
