package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a parsed dice expression: one of Const, DieGroup, Sum or Product.
// The set is closed; Roll and Render switch over every member.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// Sign is the sign a Sum or Product applies to one of its children.
type Sign int

const (
	Pos Sign = 1
	Neg Sign = -1
)

// Term is a signed child of a Sum or Product.
type Term struct {
	Sign Sign
	Expr Expr
}

// Const is a literal integer, sign included.
type Const struct {
	Value int
}

// DieGroup is NdS: Count independent draws from [1, Faces], summed.
type DieGroup struct {
	Count int
	Faces int
}

// Sum adds or subtracts its terms, left to right.
type Sum struct {
	Terms []Term
}

// Product multiplies its factors. A negative factor flips the running product's
// sign before multiplying, so -2x3 is -(2)x3 rather than (-2)x3.
type Product struct {
	Factors []Term
}

func (Const) isExpr()    {}
func (DieGroup) isExpr() {}
func (Sum) isExpr()      {}
func (Product) isExpr()  {}

func (c Const) String() string    { return Render(c) }
func (d DieGroup) String() string { return Render(d) }
func (s Sum) String() string      { return Render(s) }
func (p Product) String() string  { return Render(p) }

// Roll evaluates expr, drawing every die from src.
func Roll(expr Expr, src Source) *Result {
	switch e := expr.(type) {
	case Const:
		return NewResult(e.Value)
	case DieGroup:
		rolls := NewRollLog(e.Faces)
		var total int64
		for i := 0; i < e.Count; i++ {
			v := src.Uniform(1, e.Faces)
			rolls.Record(v)
			total += int64(v)
		}
		return &Result{Value: clamp(total), logs: []*RollLog{rolls}}
	case Sum:
		result := NewResult(0)
		for _, t := range e.Terms {
			if t.Sign == Neg {
				result.Sub(Roll(t.Expr, src))
			} else {
				result.Add(Roll(t.Expr, src))
			}
		}
		return result
	case Product:
		result := NewResult(1)
		for _, f := range e.Factors {
			if f.Sign == Neg {
				result.NegMul(Roll(f.Expr, src))
			} else {
				result.Mul(Roll(f.Expr, src))
			}
		}
		return result
	}
	panic(fmt.Sprintf("dsl: cannot roll %T", expr))
}

// Render returns the canonical text of expr. Parsing the canonical text gives
// back a tree that renders identically.
func Render(expr Expr) string {
	var sb strings.Builder
	render(&sb, expr)
	return sb.String()
}

func render(sb *strings.Builder, expr Expr) {
	switch e := expr.(type) {
	case Const:
		sb.WriteString(strconv.Itoa(e.Value))
	case DieGroup:
		sb.WriteString(strconv.Itoa(e.Count))
		sb.WriteByte('d')
		sb.WriteString(strconv.Itoa(e.Faces))
	case Sum:
		for i, t := range e.Terms {
			switch {
			case i == 0 && t.Sign == Neg:
				sb.WriteByte('-')
			case i == 0:
			case t.Sign == Neg:
				sb.WriteString(" - ")
			default:
				sb.WriteString(" + ")
			}
			render(sb, t.Expr)
		}
	case Product:
		for i, f := range e.Factors {
			if i > 0 {
				sb.WriteByte('x')
			}
			if f.Sign == Neg {
				sb.WriteByte('-')
			}
			render(sb, f.Expr)
		}
	default:
		panic(fmt.Sprintf("dsl: cannot render %T", expr))
	}
}
