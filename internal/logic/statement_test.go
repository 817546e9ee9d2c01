package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func natVar(name string) Var  { return Var{Name: name, Sort: SortNat} }
func natConst(v string) Const { return Const{Value: v, Sort: SortNat} }
func eq(l, r Term) BinOp      { return BinOp{Op: OpEq, Left: l, Right: r} }
func add(l, r Term) BinOp     { return BinOp{Op: OpAdd, Left: l, Right: r} }

func TestFingerprintDeterministic(t *testing.T) {
	s := Statement{
		Name:       "add_zero",
		Conclusion: eq(add(natVar("x"), natConst("0")), natVar("x")),
	}
	fp1 := s.Fingerprint()
	fp2 := s.Fingerprint()

	assert.Equal(t, fp1, fp2)
	assert.Len(t, string(fp1), 16)
}

func TestFingerprintIgnoresName(t *testing.T) {
	a := Statement{
		Name:       "auto_1",
		Conclusion: eq(natVar("x"), natVar("x")),
	}
	b := Statement{
		Name:       "something_else",
		Conclusion: eq(natVar("x"), natVar("x")),
	}
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Statement{Conclusion: eq(natVar("x"), natConst("0"))}

	tests := []struct {
		name  string
		other Statement
	}{
		{
			name:  "different operand",
			other: Statement{Conclusion: eq(natVar("x"), natConst("1"))},
		},
		{
			name:  "swapped operands",
			other: Statement{Conclusion: eq(natConst("0"), natVar("x"))},
		},
		{
			name: "different sort",
			other: Statement{
				Conclusion: eq(Var{Name: "x", Sort: SortInt}, Const{Value: "0", Sort: SortInt}),
			},
		},
		{
			name: "extra hypothesis",
			other: Statement{
				Hypotheses: []Term{BinOp{Op: OpGt, Left: natVar("x"), Right: natConst("0")}},
				Conclusion: eq(natVar("x"), natConst("0")),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base.Fingerprint(), tt.other.Fingerprint())
		})
	}
}

func TestCanonicalForm(t *testing.T) {
	s := Statement{
		Name:       "named",
		Hypotheses: []Term{BinOp{Op: OpGt, Left: natVar("n"), Right: natConst("0")}},
		Conclusion: eq(add(natVar("n"), natConst("1")), natVar("m")),
	}
	assert.Equal(t, "[(> n:Nat #0:Nat)]|-(= (+ n:Nat #1:Nat) m:Nat)", s.Canonical())
}

func TestCanonicalQuantifier(t *testing.T) {
	s := Statement{
		Conclusion: Quantifier{
			Op:   OpForAll,
			Var:  natVar("x"),
			Body: eq(natVar("x"), natVar("x")),
		},
	}
	assert.Equal(t, "[]|-(forall x:Nat (= x:Nat x:Nat))", s.Canonical())
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		s       Statement
		wantErr string
	}{
		{
			name:    "valid",
			s:       Statement{Conclusion: eq(natVar("x"), natVar("x"))},
			wantErr: "",
		},
		{
			name:    "missing conclusion",
			s:       Statement{Name: "bad"},
			wantErr: "no conclusion",
		},
		{
			name:    "nil binop child",
			s:       Statement{Conclusion: BinOp{Op: OpEq, Left: natVar("x")}},
			wantErr: "nil child",
		},
		{
			name: "nil hypothesis",
			s: Statement{
				Hypotheses: []Term{nil},
				Conclusion: eq(natVar("x"), natVar("x")),
			},
			wantErr: "hypothesis 0 is nil",
		},
		{
			name:    "empty variable name",
			s:       Statement{Conclusion: eq(Var{Sort: SortNat}, natVar("x"))},
			wantErr: "empty name",
		},
		{
			name:    "empty constant value",
			s:       Statement{Conclusion: eq(Const{Sort: SortNat}, natVar("x"))},
			wantErr: "empty value",
		},
		{
			name: "quantifier with non-quantifier op",
			s: Statement{
				Conclusion: Quantifier{Op: OpAdd, Var: natVar("x"), Body: natVar("x")},
			},
			wantErr: "non-quantifier op",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Check()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStringSequentStyle(t *testing.T) {
	s := Statement{
		Name:       "thm",
		Hypotheses: []Term{BinOp{Op: OpGt, Left: natVar("x"), Right: natConst("0")}},
		Conclusion: eq(natVar("x"), natVar("x")),
	}
	out := s.String()
	assert.Contains(t, out, "thm:")
	assert.Contains(t, out, "|-")
	assert.Contains(t, out, "(> x:Nat #0:Nat)")
}
