package dsl

import (
	"errors"
	"fmt"
)

// ErrNoSuchRoll is returned by Dice.Log when asked for a roll further back than the history goes.
var ErrNoSuchRoll = errors.New("no such roll")

// Dice is a parsed expression with an optional display name and the history of
// its rolls. A Dice is not safe for concurrent use; callers that share one must
// serialize Roll.
type Dice struct {
	name    string
	expr    Expr
	src     Source
	history []*Result
}

// New returns unnamed Dice that always roll 0.
func New() *Dice {
	return &Dice{expr: Const{}, src: DefaultSource}
}

// FromString parses text into unnamed Dice.
func FromString(text string) (*Dice, error) {
	expr, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return &Dice{expr: expr, src: DefaultSource}, nil
}

func (d *Dice) SetName(name string) {
	d.name = name
}

func (d *Dice) Name() string {
	return d.name
}

func (d *Dice) SetSource(src Source) {
	d.src = src
}

func (d *Dice) Expr() Expr {
	return d.expr
}

// Roll evaluates the expression, records the full result and returns its value.
func (d *Dice) Roll() int {
	result := Roll(d.expr, d.src)
	d.history = append(d.history, result)
	return result.Value
}

// Len is the number of rolls recorded so far.
func (d *Dice) Len() int {
	return len(d.history)
}

// Last returns the most recent result, or nil before the first roll.
func (d *Dice) Last() *Result {
	if len(d.history) == 0 {
		return nil
	}
	return d.history[len(d.history)-1]
}

// Log returns the breakdown of the i-th most recent roll; 0 is the latest.
func (d *Dice) Log(i int) (string, error) {
	if i < 0 || i >= len(d.history) {
		return "", fmt.Errorf("%w: %d back of %d", ErrNoSuchRoll, i, len(d.history))
	}
	return d.history[len(d.history)-1-i].Log(), nil
}

func (d *Dice) String() string {
	if d.name == "" {
		return Render(d.expr)
	}
	return d.name + ": " + Render(d.expr)
}
