package dsl

import (
	"fmt"
	"strconv"
	"strings"
)

// RollLog records the individual faces produced by rolling one die-group.
type RollLog struct {
	faces int
	rolls []int
}

func NewRollLog(faces int) *RollLog {
	return &RollLog{faces: faces}
}

// Record appends one rolled value. A value outside [1, faces] means the roller and
// the log disagree about the die, which is a bug, so Record panics.
func (l *RollLog) Record(value int) {
	if value < 1 || value > l.faces {
		panic(fmt.Sprintf("dsl: value %d logged for a d%d", value, l.faces))
	}
	l.rolls = append(l.rolls, value)
}

func (l *RollLog) Faces() int {
	return l.faces
}

// Rolls returns a copy of the recorded values in roll order.
func (l *RollLog) Rolls() []int {
	out := make([]int, len(l.rolls))
	copy(out, l.rolls)
	return out
}

func (l *RollLog) Clone() *RollLog {
	return &RollLog{faces: l.faces, rolls: l.Rolls()}
}

// String renders every value followed by a single space, e.g. "2 5 ".
func (l *RollLog) String() string {
	var sb strings.Builder
	for _, r := range l.rolls {
		sb.WriteString(strconv.Itoa(r))
		sb.WriteByte(' ')
	}
	return sb.String()
}
