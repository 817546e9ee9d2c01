package logic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSMTRefutationShape(t *testing.T) {
	s := Statement{
		Name:       "add_comm",
		Conclusion: eq(add(natVar("x"), natVar("y")), add(natVar("y"), natVar("x"))),
	}

	script, err := RenderSMT(s)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "(set-logic ALL)\n"))
	assert.Contains(t, script, "(declare-const x Int)")
	assert.Contains(t, script, "(declare-const y Int)")
	// Nat free variables carry a non-negativity assertion.
	assert.Contains(t, script, "(assert (>= x 0))")
	assert.Contains(t, script, "(assert (>= y 0))")
	assert.Contains(t, script, "(assert (not (= (+ x y) (+ y x))))")
	assert.True(t, strings.HasSuffix(script, "(check-sat)\n"))
}

func TestRenderSMTHypotheses(t *testing.T) {
	s := Statement{
		Hypotheses: []Term{BinOp{Op: OpGt, Left: natVar("n"), Right: natConst("0")}},
		Conclusion: BinOp{Op: OpGe, Left: natVar("n"), Right: natConst("1")},
	}

	script, err := RenderSMT(s)
	require.NoError(t, err)

	assert.Contains(t, script, "(assert (> n 0))")
	assert.Contains(t, script, "(assert (not (>= n 1)))")
}

func TestRenderSMTOperatorSpelling(t *testing.T) {
	tests := []struct {
		name string
		op   Op
		want string
	}{
		{"not-equal becomes distinct", OpNe, "(distinct x y)"},
		{"iff becomes equality", OpIff, "(= x y)"},
		{"implies kept", OpImplies, "(=> x y)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Statement{
				Conclusion: BinOp{
					Op:    tt.op,
					Left:  Var{Name: "x", Sort: SortBool},
					Right: Var{Name: "y", Sort: SortBool},
				},
			}
			script, err := RenderSMT(s)
			require.NoError(t, err)
			assert.Contains(t, script, tt.want)
		})
	}
}

func TestRenderSMTNegativeConstant(t *testing.T) {
	s := Statement{
		Conclusion: BinOp{
			Op:    OpLt,
			Left:  Const{Value: "-1", Sort: SortInt},
			Right: Const{Value: "0", Sort: SortInt},
		},
	}
	script, err := RenderSMT(s)
	require.NoError(t, err)
	assert.Contains(t, script, "(< (- 1) 0)")
}

func TestRenderSMTNatQuantifierGuards(t *testing.T) {
	forall := Statement{
		Conclusion: Quantifier{
			Op:   OpForAll,
			Var:  natVar("x"),
			Body: BinOp{Op: OpGe, Left: natVar("x"), Right: natConst("0")},
		},
	}
	script, err := RenderSMT(forall)
	require.NoError(t, err)
	assert.Contains(t, script, "(forall ((x Int)) (=> (>= x 0) (>= x 0)))")

	exists := Statement{
		Conclusion: Quantifier{
			Op:   OpExists,
			Var:  natVar("x"),
			Body: eq(natVar("x"), natConst("0")),
		},
	}
	script, err = RenderSMT(exists)
	require.NoError(t, err)
	assert.Contains(t, script, "(exists ((x Int)) (and (>= x 0) (= x 0)))")
	// A bound variable is not re-declared as a free constant.
	assert.NotContains(t, script, "declare-const x")
}

func TestRenderSMTRejectsMalformed(t *testing.T) {
	_, err := RenderSMT(Statement{Name: "empty"})
	require.Error(t, err)
}

func TestRenderAssistant(t *testing.T) {
	s := Statement{
		Name:       "add zero",
		Hypotheses: []Term{BinOp{Op: OpGt, Left: natVar("n"), Right: natConst("0")}},
		Conclusion: eq(add(natVar("n"), natConst("0")), natVar("n")),
	}

	source, err := RenderAssistant(s)
	require.NoError(t, err)

	assert.Contains(t, source, "theorem add_zero")
	assert.Contains(t, source, "(h0 : (n > 0))")
	assert.Contains(t, source, ": ((n + 0) = n) := by")
	assert.Contains(t, source, "first | rfl | decide | trivial | simp_arith")
}
