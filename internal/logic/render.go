package logic

import (
	"fmt"
	"strings"
)

// RenderSMT translates a statement into an SMT-LIB2 script that proves it by
// refutation: the hypotheses are asserted, the conclusion is negated, and an
// unsat verdict from the solver means the statement holds.
//
// Nat variables are declared as Int with a non-negativity assertion. Returns
// an error for terms the SMT fragment cannot express.
func RenderSMT(s Statement) (string, error) {
	if err := s.Check(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("(set-logic ALL)\n")

	free := map[Var]bool{}
	collectFreeVars(s.Conclusion, map[string]bool{}, free)
	for _, h := range s.Hypotheses {
		collectFreeVars(h, map[string]bool{}, free)
	}
	for v := range free {
		sort, err := smtSort(v.Sort)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "(declare-const %s %s)\n", v.Name, sort)
		if v.Sort == SortNat {
			fmt.Fprintf(&b, "(assert (>= %s 0))\n", v.Name)
		}
	}

	for _, h := range s.Hypotheses {
		expr, err := smtTerm(h)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "(assert %s)\n", expr)
	}

	concl, err := smtTerm(s.Conclusion)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "(assert (not %s))\n", concl)
	b.WriteString("(check-sat)\n")
	return b.String(), nil
}

func smtSort(s Sort) (string, error) {
	switch s {
	case SortNat, SortInt:
		return "Int", nil
	case SortReal:
		return "Real", nil
	case SortBool:
		return "Bool", nil
	default:
		return "", fmt.Errorf("sort %q has no SMT translation", s)
	}
}

func smtTerm(t Term) (string, error) {
	switch t := t.(type) {
	case Var:
		return t.Name, nil
	case Const:
		if strings.HasPrefix(t.Value, "-") {
			return fmt.Sprintf("(- %s)", t.Value[1:]), nil
		}
		return t.Value, nil
	case BinOp:
		left, err := smtTerm(t.Left)
		if err != nil {
			return "", err
		}
		right, err := smtTerm(t.Right)
		if err != nil {
			return "", err
		}
		op, err := smtOp(t.Op)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", op, left, right), nil
	case UnOp:
		if t.Op != OpNot {
			return "", fmt.Errorf("unary op %q has no SMT translation", t.Op)
		}
		inner, err := smtTerm(t.Term)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(not %s)", inner), nil
	case Quantifier:
		sort, err := smtSort(t.Var.Sort)
		if err != nil {
			return "", err
		}
		body, err := smtTerm(t.Body)
		if err != nil {
			return "", err
		}
		if t.Var.Sort == SortNat {
			// Nat quantification ranges over non-negative Int.
			if t.Op == OpForAll {
				body = fmt.Sprintf("(=> (>= %s 0) %s)", t.Var.Name, body)
			} else {
				body = fmt.Sprintf("(and (>= %s 0) %s)", t.Var.Name, body)
			}
		}
		return fmt.Sprintf("(%s ((%s %s)) %s)", t.Op, t.Var.Name, sort, body), nil
	default:
		return "", fmt.Errorf("term %T has no SMT translation", t)
	}
}

func smtOp(op Op) (string, error) {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpEq, OpLt, OpLe, OpGt, OpGe, OpAnd, OpOr, OpImplies:
		return string(op), nil
	case OpNe:
		return "distinct", nil
	case OpIff:
		return "=", nil
	default:
		return "", fmt.Errorf("op %q has no SMT translation", op)
	}
}

// collectFreeVars walks a term accumulating variables not bound by an
// enclosing quantifier.
func collectFreeVars(t Term, bound map[string]bool, out map[Var]bool) {
	switch t := t.(type) {
	case Var:
		if !bound[t.Name] {
			out[t] = true
		}
	case BinOp:
		collectFreeVars(t.Left, bound, out)
		collectFreeVars(t.Right, bound, out)
	case UnOp:
		collectFreeVars(t.Term, bound, out)
	case Quantifier:
		inner := make(map[string]bool, len(bound)+1)
		for k := range bound {
			inner[k] = true
		}
		inner[t.Var.Name] = true
		collectFreeVars(t.Body, inner, out)
	}
}

// RenderAssistant translates a statement into a standalone proof-assistant
// source file that attempts a proof with basic automation tactics. A zero
// exit status from the assistant binary means the statement was proved.
func RenderAssistant(s Statement) (string, error) {
	if err := s.Check(); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("theorem ")
	b.WriteString(sanitizeName(s.Name))
	for i, h := range s.Hypotheses {
		fmt.Fprintf(&b, " (h%d : %s)", i, infixTerm(h))
	}
	fmt.Fprintf(&b, " : %s := by\n", infixTerm(s.Conclusion))
	b.WriteString("  first | rfl | decide | trivial | simp_arith\n")
	return b.String(), nil
}

func infixTerm(t Term) string {
	switch t := t.(type) {
	case Var:
		return t.Name
	case Const:
		return t.Value
	case BinOp:
		return fmt.Sprintf("(%s %s %s)", infixTerm(t.Left), infixOp(t.Op), infixTerm(t.Right))
	case UnOp:
		return fmt.Sprintf("(%s%s)", infixOp(t.Op), infixTerm(t.Term))
	case Quantifier:
		binder := "∀"
		if t.Op == OpExists {
			binder = "∃"
		}
		return fmt.Sprintf("(%s %s : %s, %s)", binder, t.Var.Name, assistantSort(t.Var.Sort), infixTerm(t.Body))
	default:
		return "true"
	}
}

func infixOp(op Op) string {
	switch op {
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpNe:
		return "≠"
	case OpAnd:
		return "∧"
	case OpOr:
		return "∨"
	case OpNot:
		return "¬"
	case OpImplies:
		return "→"
	case OpIff:
		return "↔"
	case OpLe:
		return "≤"
	case OpGe:
		return "≥"
	default:
		return string(op)
	}
}

func assistantSort(s Sort) string {
	switch s {
	case SortNat:
		return "Nat"
	case SortInt:
		return "Int"
	case SortReal:
		return "Float"
	default:
		return "Bool"
	}
}

func sanitizeName(name string) string {
	if name == "" {
		return "candidate"
	}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		if r == '-' || r == ' ' {
			r = '_'
		}
		out = append(out, r)
	}
	return string(out)
}
