// Package scores generates sets of six ability scores.
package scores

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dryack/dndice/core/dsl"
)

// ErrUnknownMethod is returned by FromMethod for a method name it does not know.
var ErrUnknownMethod = errors.New("unknown statistics generation method")

// Scores holds six ability scores, highest first.
type Scores [6]int

var (
	d20 = dsl.DieGroup{Count: 1, Faces: 20}
	d6s = dsl.DieGroup{Count: 4, Faces: 6}
)

// FromMethod generates scores with the named method:
//
//	std, standard  the fixed standard array
//	d20, 1d20      1d20 per score
//	4d6, 3d6       4d6 dropping the lowest die, per score
func FromMethod(method string, src dsl.Source) (Scores, error) {
	switch method {
	case "std", "standard":
		return Standard(), nil
	case "d20", "1d20":
		return D20(src), nil
	case "4d6", "3d6":
		return DropLowest4d6(src), nil
	}
	return Scores{}, fmt.Errorf("%w '%s'", ErrUnknownMethod, method)
}

func Standard() Scores {
	return Scores{15, 14, 13, 12, 10, 8}
}

func D20(src dsl.Source) Scores {
	var s Scores
	for i := range s {
		s[i] = dsl.Roll(d20, src).Value
	}
	return s.sorted()
}

func DropLowest4d6(src dsl.Source) Scores {
	var s Scores
	for i := range s {
		rolls := dsl.Roll(d6s, src).Logs()[0].Rolls()
		sort.Ints(rolls)
		for _, r := range rolls[1:] {
			s[i] += r
		}
	}
	return s.sorted()
}

func (s Scores) sorted() Scores {
	sort.Sort(sort.Reverse(sort.IntSlice(s[:])))
	return s
}

func (s Scores) String() string {
	return fmt.Sprintf("%2d %2d %2d %2d %2d %2d", s[0], s[1], s[2], s[3], s[4], s[5])
}
