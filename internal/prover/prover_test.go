package prover

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamim/theoforge/internal/logic"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStatement(name, value string) logic.Statement {
	return logic.Statement{
		Name: name,
		Conclusion: logic.BinOp{
			Op:    logic.OpEq,
			Left:  logic.Var{Name: "x", Sort: logic.SortNat},
			Right: logic.Const{Value: value, Sort: logic.SortNat},
		},
	}
}

func TestNewFactory(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		wantName string
		wantErr  bool
	}{
		{"mock", KindMock, KindMock, false},
		{"empty kind defaults to mock", "", KindMock, false},
		{"smt", KindSMT, KindSMT, false},
		{"assistant", KindAssistant, KindAssistant, false},
		{"unknown", "oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(Options{Kind: tt.kind}, discardLogger())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestMockDeterministic(t *testing.T) {
	m := NewMock(0.5, 42)
	s := testStatement("thm", "0")

	first := m.Attempt(context.Background(), s)
	for i := 0; i < 5; i++ {
		again := m.Attempt(context.Background(), s)
		assert.Equal(t, first.Success, again.Success)
		assert.Equal(t, first.Fingerprint, again.Fingerprint)
	}
}

func TestMockOutcomeFields(t *testing.T) {
	m := NewMock(1.0, 1)
	s := testStatement("always", "0")

	// successRate 1.0 means the draw in [0,1) always lands below it.
	out := m.Attempt(context.Background(), s)
	assert.True(t, out.Success)
	assert.True(t, out.Verified)
	assert.Equal(t, s.Fingerprint(), out.Fingerprint)
	assert.NotEmpty(t, out.Proof)
	assert.Empty(t, out.Err)
	assert.Greater(t, out.Elapsed, time.Duration(0))
}

func TestMockFailureOutcome(t *testing.T) {
	m := NewMock(0.5, 7)

	// Scan statements until one fails under this seed.
	for _, value := range []string{"0", "1", "2", "3", "4", "5", "6", "7"} {
		out := m.Attempt(context.Background(), testStatement("scan", value))
		if !out.Success {
			assert.Empty(t, out.Proof)
			assert.False(t, out.Verified)
			assert.Equal(t, "no proof found", out.Err)
			return
		}
	}
	t.Fatal("expected at least one failure across eight statements at rate 0.5")
}

func TestMockSeedChangesVerdicts(t *testing.T) {
	a := NewMock(0.5, 1)
	b := NewMock(0.5, 2)

	differ := false
	for _, value := range []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"} {
		s := testStatement("seeded", value)
		if a.Attempt(context.Background(), s).Success != b.Attempt(context.Background(), s).Success {
			differ = true
			break
		}
	}
	assert.True(t, differ, "different seeds should disagree on at least one of ten statements")
}

func TestMockSuccessRateClamp(t *testing.T) {
	assert.Equal(t, 0.15, NewMock(0, 1).successRate)
	assert.Equal(t, 0.15, NewMock(-1, 1).successRate)
	assert.Equal(t, 0.15, NewMock(1.5, 1).successRate)
	assert.Equal(t, 0.3, NewMock(0.3, 1).successRate)
}

func TestSMTRejectsUntranslatable(t *testing.T) {
	p := NewSMT(Options{Bin: "/nonexistent"}, discardLogger())

	out := p.Attempt(context.Background(), logic.Statement{Name: "empty"})
	assert.False(t, out.Success)
	assert.Contains(t, out.Err, "cannot translate")
}

func TestSpawnLimiter(t *testing.T) {
	assert.Nil(t, spawnLimiter(0))
	assert.Nil(t, spawnLimiter(-5))

	l := spawnLimiter(60)
	require.NotNil(t, l)
	assert.InDelta(t, 1.0, float64(l.Limit()), 0.001)
	assert.Equal(t, 12, l.Burst())

	// Tiny limits still allow one launch at a time.
	assert.Equal(t, 1, spawnLimiter(3).Burst())
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		fallback string
		want     string
	}{
		{"empty uses fallback", "", "fb", "fb"},
		{"whitespace only uses fallback", "  \n ", "fb", "fb"},
		{"single line", "error: boom", "fb", "error: boom"},
		{"multi line keeps first", "line one\nline two", "fb", "line one"},
		{"long line truncated", strings.Repeat("x", 300), "fb", strings.Repeat("x", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstLine(tt.in, tt.fallback))
		})
	}
}

func TestAttemptStats(t *testing.T) {
	var s attemptStats
	s.record(true, 10*time.Millisecond)
	s.record(false, 20*time.Millisecond)

	attempted, succeeded, total := s.Summary()
	assert.Equal(t, 2, attempted)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 30*time.Millisecond, total)
}
