// Package space generates candidate statements by exploring a bounded
// combinatorial term space: exhaustive enumeration first, then random and
// mutation-guided construction once enumeration is exhausted.
package space

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/lamim/theoforge/internal/logic"
)

// Space bounds the exploration: which leaves are available and how deep
// terms may nest.
type Space struct {
	Variables      []logic.Var
	Constants      []logic.Const
	MaxTermDepth   int
	MaxQuantifiers int
}

// Default returns the standard exploration space: small naturals and
// integers, boolean literals, and a handful of variables per sort.
func Default() Space {
	var vars []logic.Var
	for _, sort := range []logic.Sort{logic.SortNat, logic.SortInt} {
		for _, name := range []string{"x", "y", "n", "m"} {
			vars = append(vars, logic.Var{Name: name, Sort: sort})
		}
	}
	return Space{
		Variables: vars,
		Constants: []logic.Const{
			{Value: "0", Sort: logic.SortNat},
			{Value: "1", Sort: logic.SortNat},
			{Value: "2", Sort: logic.SortNat},
			{Value: "3", Sort: logic.SortNat},
			{Value: "10", Sort: logic.SortNat},
			{Value: "0", Sort: logic.SortInt},
			{Value: "1", Sort: logic.SortInt},
			{Value: "-1", Sort: logic.SortInt},
			{Value: "true", Sort: logic.SortBool},
			{Value: "false", Sort: logic.SortBool},
		},
		MaxTermDepth:   3,
		MaxQuantifiers: 2,
	}
}

// Weighter biases which constructor family the generator favors when it is
// past exhaustive enumeration. Implementations are supplied by an external
// learner; a nil Weighter means uniform sampling.
type Weighter interface {
	// WeightsFor returns a non-negative weight for a constructor domain
	// ("arithmetic", "comparison", "logic", "quantifier"). Zero or
	// negative weights are treated as 1.
	WeightsFor(domain string) float64
}

// Domains a Weighter may be asked about.
const (
	DomainArithmetic = "arithmetic"
	DomainComparison = "comparison"
	DomainLogic      = "logic"
	DomainQuantifier = "quantifier"
)

var arithmeticOps = []logic.Op{logic.OpAdd, logic.OpSub, logic.OpMul, logic.OpDiv, logic.OpMod}
var comparisonOps = []logic.Op{logic.OpEq, logic.OpLt, logic.OpLe, logic.OpGt, logic.OpGe, logic.OpNe}
var logicOps = []logic.Op{logic.OpAnd, logic.OpOr, logic.OpImplies}

// Generator produces a lazy, deduplicated stream of candidate statements.
// It is restartable only by reconstructing with the same space and seed;
// no generation state is shared between instances.
//
// A Generator is safe for use by multiple goroutines: one enumeration cursor
// and one dedup set are shared, so concurrent callers never receive the same
// candidate twice within a run.
type Generator struct {
	mu       sync.Mutex
	space    Space
	rng      *rand.Rand
	weighter Weighter

	seen      map[logic.Fingerprint]bool
	count     int
	discarded int

	// enumeration cursor state
	enumDepth int
	enumTerms []logic.Term
	enumI     int
	enumJ     int

	// mutation pool of previously proved statements
	proved []logic.Statement
}

// NewGenerator builds a generator over the given space. The same seed and
// space always reproduce the same candidate stream.
func NewGenerator(sp Space, seed int64, w Weighter) *Generator {
	if sp.MaxTermDepth < 1 {
		sp.MaxTermDepth = 1
	}
	return &Generator{
		space:     sp,
		rng:       rand.New(rand.NewSource(seed)),
		weighter:  w,
		seen:      make(map[logic.Fingerprint]bool),
		enumDepth: 1,
	}
}

// Feed supplies proved statements to the mutation pool used by guided
// generation. Statements already in the pool are kept; the pool only grows.
func (g *Generator) Feed(proved []logic.Statement) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.proved = append(g.proved, proved...)
}

// Generated returns how many candidates have been yielded so far.
func (g *Generator) Generated() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.count
}

// Discarded returns how many malformed candidates were dropped.
func (g *Generator) Discarded() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.discarded
}

// NextBatch yields up to maxCount fresh statements. Candidates whose
// fingerprint was already yielded in this run are skipped, and a candidate
// that fails its well-formedness check is discarded without interrupting the
// stream. An empty batch means the caller should simply try again later; the
// random strategies never exhaust.
func (g *Generator) NextBatch(maxCount int) []logic.Statement {
	g.mu.Lock()
	defer g.mu.Unlock()

	if maxCount <= 0 {
		return nil
	}

	out := make([]logic.Statement, 0, maxCount)
	// Bound the attempts so a pathological dedup streak cannot spin forever.
	for attempts := 0; len(out) < maxCount && attempts < maxCount*20; attempts++ {
		s, ok := g.nextEnumerated()
		if !ok {
			s = g.nextSampled()
		}
		if err := s.Check(); err != nil {
			g.discarded++
			continue
		}
		fp := s.Fingerprint()
		if g.seen[fp] {
			continue
		}
		g.seen[fp] = true
		g.count++
		out = append(out, s)
	}
	return out
}

// nextEnumerated advances the exhaustive cursor: equalities between distinct
// terms of increasing depth. Returns false once the bounded space is spent.
func (g *Generator) nextEnumerated() (logic.Statement, bool) {
	for g.enumDepth <= g.space.MaxTermDepth {
		if g.enumTerms == nil {
			g.enumTerms = g.termsAtDepth(g.enumDepth)
			g.enumI, g.enumJ = 0, 0
		}
		for g.enumI < len(g.enumTerms) {
			for g.enumJ < len(g.enumTerms) {
				i, j := g.enumI, g.enumJ
				g.enumJ++
				if i == j {
					continue
				}
				s := logic.Statement{
					Name:       fmt.Sprintf("auto_%d", g.count),
					Conclusion: logic.BinOp{Op: logic.OpEq, Left: g.enumTerms[i], Right: g.enumTerms[j]},
				}
				return s, true
			}
			g.enumI++
			g.enumJ = 0
		}
		g.enumDepth++
		g.enumTerms = nil
	}
	return logic.Statement{}, false
}

// nextSampled produces a candidate by mutation of a proved statement when a
// pool is available, otherwise by random construction.
func (g *Generator) nextSampled() logic.Statement {
	if len(g.proved) > 0 {
		base := g.proved[g.rng.Intn(len(g.proved))]
		return g.mutate(base)
	}
	return g.randomStatement()
}

func (g *Generator) randomStatement() logic.Statement {
	depth := 1 + g.rng.Intn(g.space.MaxTermDepth)
	s := logic.Statement{
		Name:       fmt.Sprintf("random_%d", g.count),
		Conclusion: g.randomTerm(depth),
	}
	for i := g.rng.Intn(3); i > 0; i-- {
		s.Hypotheses = append(s.Hypotheses, g.randomTerm(1))
	}
	return s
}

// randomTerm builds a term of at most the given depth, picking the
// constructor family by learner weight.
func (g *Generator) randomTerm(depth int) logic.Term {
	if depth <= 0 {
		return g.randomLeaf()
	}
	switch g.pickDomain() {
	case DomainArithmetic:
		op := arithmeticOps[g.rng.Intn(len(arithmeticOps))]
		return logic.BinOp{Op: op, Left: g.randomTerm(depth - 1), Right: g.randomTerm(depth - 1)}
	case DomainComparison:
		op := comparisonOps[g.rng.Intn(len(comparisonOps))]
		return logic.BinOp{Op: op, Left: g.randomTerm(depth - 1), Right: g.randomTerm(depth - 1)}
	case DomainLogic:
		op := logicOps[g.rng.Intn(len(logicOps))]
		return logic.BinOp{Op: op, Left: g.randomTerm(depth - 1), Right: g.randomTerm(depth - 1)}
	default:
		if g.space.MaxQuantifiers > 0 && len(g.space.Variables) > 0 {
			v := g.space.Variables[g.rng.Intn(len(g.space.Variables))]
			op := logic.OpForAll
			if g.rng.Intn(2) == 1 {
				op = logic.OpExists
			}
			return logic.Quantifier{Op: op, Var: v, Body: g.randomTerm(depth - 1)}
		}
		return logic.UnOp{Op: logic.OpNot, Term: g.randomTerm(depth - 1)}
	}
}

func (g *Generator) randomLeaf() logic.Term {
	pool := len(g.space.Variables) + len(g.space.Constants)
	if pool == 0 {
		return logic.Const{Value: "0", Sort: logic.SortNat}
	}
	i := g.rng.Intn(pool)
	if i < len(g.space.Variables) {
		return g.space.Variables[i]
	}
	return g.space.Constants[i-len(g.space.Variables)]
}

// pickDomain samples a constructor family, weighted by the learner when one
// is present and uniformly otherwise.
func (g *Generator) pickDomain() string {
	domains := []string{DomainArithmetic, DomainComparison, DomainLogic, DomainQuantifier}
	if g.weighter == nil {
		return domains[g.rng.Intn(len(domains))]
	}
	weights := make([]float64, len(domains))
	total := 0.0
	for i, d := range domains {
		w := g.weighter.WeightsFor(d)
		if w <= 0 {
			w = 1
		}
		weights[i] = w
		total += w
	}
	pick := g.rng.Float64() * total
	for i, w := range weights {
		pick -= w
		if pick <= 0 {
			return domains[i]
		}
	}
	return domains[len(domains)-1]
}

// termsAtDepth materializes every term of exactly the given structural
// budget. Depth 0 is the leaves; depth d combines depth d-1 subterms through
// binary, unary and quantifier constructors. The per-depth slice is capped to
// keep memory proportional to the batch flow rather than the full
// combinatorial expansion.
func (g *Generator) termsAtDepth(depth int) []logic.Term {
	const capPerDepth = 4096

	if depth <= 0 {
		leaves := make([]logic.Term, 0, len(g.space.Variables)+len(g.space.Constants))
		for _, v := range g.space.Variables {
			leaves = append(leaves, v)
		}
		for _, c := range g.space.Constants {
			leaves = append(leaves, c)
		}
		return leaves
	}

	sub := g.termsAtDepth(depth - 1)
	var out []logic.Term
	add := func(t logic.Term) bool {
		out = append(out, t)
		return len(out) < capPerDepth
	}

	for _, op := range arithmeticOps {
		for _, left := range sub {
			for _, right := range sub {
				if !add(logic.BinOp{Op: op, Left: left, Right: right}) {
					return out
				}
			}
		}
	}
	for _, op := range comparisonOps {
		for _, left := range sub {
			for _, right := range sub {
				if !add(logic.BinOp{Op: op, Left: left, Right: right}) {
					return out
				}
			}
		}
	}
	for _, t := range sub {
		if !add(logic.UnOp{Op: logic.OpNot, Term: t}) {
			return out
		}
	}
	if depth >= 2 && g.space.MaxQuantifiers > 0 {
		for _, v := range g.space.Variables {
			for _, body := range sub {
				if !add(logic.Quantifier{Op: logic.OpForAll, Var: v, Body: body}) {
					return out
				}
				if !add(logic.Quantifier{Op: logic.OpExists, Var: v, Body: body}) {
					return out
				}
			}
		}
	}
	return out
}
