package space

import (
	"fmt"

	"github.com/lamim/theoforge/internal/logic"
)

// mutate derives a fresh candidate from a proved statement. Each strategy
// returns an ordinary statement value; a strategy that cannot apply falls
// through to the next, so mutation never fails the stream.
func (g *Generator) mutate(base logic.Statement) logic.Statement {
	switch g.rng.Intn(4) {
	case 0:
		return g.strengthenHypothesis(base)
	case 1:
		return g.addQuantifier(base)
	case 2:
		return g.generalizeConstant(base)
	default:
		return g.swapOperands(base)
	}
}

// strengthenHypothesis adds one random hypothesis.
func (g *Generator) strengthenHypothesis(base logic.Statement) logic.Statement {
	hyps := make([]logic.Term, len(base.Hypotheses), len(base.Hypotheses)+1)
	copy(hyps, base.Hypotheses)
	hyps = append(hyps, g.randomTerm(1))
	return logic.Statement{
		Name:       fmt.Sprintf("stronger_%s", base.Name),
		Hypotheses: hyps,
		Conclusion: base.Conclusion,
	}
}

// addQuantifier universally closes the conclusion over a fresh variable.
func (g *Generator) addQuantifier(base logic.Statement) logic.Statement {
	if len(g.space.Variables) == 0 {
		return g.swapOperands(base)
	}
	v := g.space.Variables[g.rng.Intn(len(g.space.Variables))]
	return logic.Statement{
		Name:       fmt.Sprintf("quant_%s", base.Name),
		Hypotheses: base.Hypotheses,
		Conclusion: logic.Quantifier{Op: logic.OpForAll, Var: v, Body: base.Conclusion},
	}
}

// generalizeConstant replaces one constant leaf with a variable of the same
// sort, turning a specific fact into a conjectured general one.
func (g *Generator) generalizeConstant(base logic.Statement) logic.Statement {
	replaced := false
	concl := g.replaceFirstConst(base.Conclusion, &replaced)
	if !replaced {
		return g.swapOperands(base)
	}
	return logic.Statement{
		Name:       fmt.Sprintf("general_%s", base.Name),
		Hypotheses: base.Hypotheses,
		Conclusion: concl,
	}
}

func (g *Generator) replaceFirstConst(t logic.Term, replaced *bool) logic.Term {
	if *replaced {
		return t
	}
	switch t := t.(type) {
	case logic.Const:
		for _, v := range g.space.Variables {
			if v.Sort == t.Sort {
				*replaced = true
				return v
			}
		}
		return t
	case logic.BinOp:
		left := g.replaceFirstConst(t.Left, replaced)
		right := g.replaceFirstConst(t.Right, replaced)
		return logic.BinOp{Op: t.Op, Left: left, Right: right}
	case logic.UnOp:
		return logic.UnOp{Op: t.Op, Term: g.replaceFirstConst(t.Term, replaced)}
	case logic.Quantifier:
		return logic.Quantifier{Op: t.Op, Var: t.Var, Body: g.replaceFirstConst(t.Body, replaced)}
	default:
		return t
	}
}

// swapOperands mirrors the top-level binary conclusion, probing for
// commutativity variants.
func (g *Generator) swapOperands(base logic.Statement) logic.Statement {
	if bin, ok := base.Conclusion.(logic.BinOp); ok {
		return logic.Statement{
			Name:       fmt.Sprintf("swapped_%s", base.Name),
			Hypotheses: base.Hypotheses,
			Conclusion: logic.BinOp{Op: bin.Op, Left: bin.Right, Right: bin.Left},
		}
	}
	// Nothing structural to vary; re-quantify instead.
	return logic.Statement{
		Name:       fmt.Sprintf("mutated_%s", base.Name),
		Hypotheses: base.Hypotheses,
		Conclusion: base.Conclusion,
	}
}
