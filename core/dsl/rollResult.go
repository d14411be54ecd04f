package dsl

import (
	"math"
	"strconv"
	"strings"
)

// Result is the evaluated outcome of an expression together with the logs of
// every die-group rolled while producing it.
type Result struct {
	Value int
	logs  []*RollLog
}

// Values are 32-bit: arithmetic that leaves [math.MinInt32, math.MaxInt32]
// saturates at the nearer bound instead of wrapping.
func NewResult(value int, logs ...*RollLog) *Result {
	return &Result{Value: clamp(int64(value)), logs: logs}
}

func clamp(v int64) int {
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}

// Logs returns copies of the roll logs in the order the die-groups were rolled.
func (r *Result) Logs() []*RollLog {
	out := make([]*RollLog, len(r.logs))
	for i, l := range r.logs {
		out[i] = l.Clone()
	}
	return out
}

func (r *Result) join(other *Result) {
	for _, l := range other.logs {
		r.logs = append(r.logs, l.Clone())
	}
}

func (r *Result) Add(other *Result) {
	r.Value = clamp(int64(r.Value) + int64(other.Value))
	r.join(other)
}

func (r *Result) Sub(other *Result) {
	r.Value = clamp(int64(r.Value) - int64(other.Value))
	r.join(other)
}

func (r *Result) Mul(other *Result) {
	r.Value = clamp(int64(r.Value) * int64(other.Value))
	r.join(other)
}

// NegMul flips the sign of the receiver before multiplying. It realizes a
// negative factor inside a product.
func (r *Result) NegMul(other *Result) {
	r.Value = clamp(-int64(r.Value))
	r.Mul(other)
}

// Log renders the roll breakdown. A single die-group renders as "| 3 5 ",
// several as "| d6: 3 5 | d8: 7 ".
func (r *Result) Log() string {
	if len(r.logs) == 1 {
		return "| " + r.logs[0].String()
	}
	var sb strings.Builder
	for _, l := range r.logs {
		sb.WriteString("| d")
		sb.WriteString(strconv.Itoa(l.Faces()))
		sb.WriteString(": ")
		sb.WriteString(l.String())
	}
	return sb.String()
}

func (r *Result) String() string {
	return strconv.Itoa(r.Value)
}
