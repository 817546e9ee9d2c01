package logic

import (
	"encoding/json"
	"fmt"
)

// termJSON is the serialized form of a Term: a tagged union keyed on "node".
type termJSON struct {
	Node  string    `json:"node"`
	Name  string    `json:"name,omitempty"`
	Sort  Sort      `json:"sort,omitempty"`
	Value string    `json:"value,omitempty"`
	Op    Op        `json:"op,omitempty"`
	Left  *termJSON `json:"left,omitempty"`
	Right *termJSON `json:"right,omitempty"`
	Term  *termJSON `json:"term,omitempty"`
	Var   *termJSON `json:"var,omitempty"`
	Body  *termJSON `json:"body,omitempty"`
}

type statementJSON struct {
	Name       string      `json:"name"`
	Hypotheses []*termJSON `json:"hypotheses"`
	Conclusion *termJSON   `json:"conclusion"`
}

// EncodeStatement serializes a statement to JSON for archive storage.
func EncodeStatement(s Statement) ([]byte, error) {
	out := statementJSON{Name: s.Name}
	for i, h := range s.Hypotheses {
		enc, err := encodeTerm(h)
		if err != nil {
			return nil, fmt.Errorf("encode hypothesis %d: %w", i, err)
		}
		out.Hypotheses = append(out.Hypotheses, enc)
	}
	concl, err := encodeTerm(s.Conclusion)
	if err != nil {
		return nil, fmt.Errorf("encode conclusion: %w", err)
	}
	out.Conclusion = concl
	return json.Marshal(out)
}

// DecodeStatement deserializes a statement previously produced by
// EncodeStatement.
func DecodeStatement(data []byte) (Statement, error) {
	var in statementJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return Statement{}, fmt.Errorf("decode statement: %w", err)
	}
	s := Statement{Name: in.Name}
	for i, h := range in.Hypotheses {
		term, err := decodeTerm(h)
		if err != nil {
			return Statement{}, fmt.Errorf("decode hypothesis %d: %w", i, err)
		}
		s.Hypotheses = append(s.Hypotheses, term)
	}
	concl, err := decodeTerm(in.Conclusion)
	if err != nil {
		return Statement{}, fmt.Errorf("decode conclusion: %w", err)
	}
	s.Conclusion = concl
	return s, nil
}

func encodeTerm(t Term) (*termJSON, error) {
	switch t := t.(type) {
	case nil:
		return nil, fmt.Errorf("nil term")
	case Var:
		return &termJSON{Node: "var", Name: t.Name, Sort: t.Sort}, nil
	case Const:
		return &termJSON{Node: "const", Value: t.Value, Sort: t.Sort}, nil
	case BinOp:
		left, err := encodeTerm(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := encodeTerm(t.Right)
		if err != nil {
			return nil, err
		}
		return &termJSON{Node: "binop", Op: t.Op, Left: left, Right: right}, nil
	case UnOp:
		inner, err := encodeTerm(t.Term)
		if err != nil {
			return nil, err
		}
		return &termJSON{Node: "unop", Op: t.Op, Term: inner}, nil
	case Quantifier:
		body, err := encodeTerm(t.Body)
		if err != nil {
			return nil, err
		}
		return &termJSON{
			Node: "quantifier",
			Op:   t.Op,
			Var:  &termJSON{Node: "var", Name: t.Var.Name, Sort: t.Var.Sort},
			Body: body,
		}, nil
	default:
		return nil, fmt.Errorf("unknown term type %T", t)
	}
}

func decodeTerm(in *termJSON) (Term, error) {
	if in == nil {
		return nil, fmt.Errorf("missing term node")
	}
	switch in.Node {
	case "var":
		return Var{Name: in.Name, Sort: in.Sort}, nil
	case "const":
		return Const{Value: in.Value, Sort: in.Sort}, nil
	case "binop":
		left, err := decodeTerm(in.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeTerm(in.Right)
		if err != nil {
			return nil, err
		}
		return BinOp{Op: in.Op, Left: left, Right: right}, nil
	case "unop":
		inner, err := decodeTerm(in.Term)
		if err != nil {
			return nil, err
		}
		return UnOp{Op: in.Op, Term: inner}, nil
	case "quantifier":
		if in.Var == nil {
			return nil, fmt.Errorf("quantifier without bound variable")
		}
		body, err := decodeTerm(in.Body)
		if err != nil {
			return nil, err
		}
		return Quantifier{
			Op:   in.Op,
			Var:  Var{Name: in.Var.Name, Sort: in.Var.Sort},
			Body: body,
		}, nil
	default:
		return nil, fmt.Errorf("unknown term node %q", in.Node)
	}
}
