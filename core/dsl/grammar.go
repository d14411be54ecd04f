package dsl

import (
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/dryack/dndice/core/statistics"
)

// Kind is the outermost grammatical shape of an expression. Kinds are ordered by
// binding strength: a Sum boundary anywhere makes the whole expression a Sum.
type Kind int

const (
	KindConst Kind = iota
	KindDie
	KindProduct
	KindSum
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindDie:
		return "die"
	case KindProduct:
		return "product"
	case KindSum:
		return "sum"
	}
	return "unknown"
}

// Slice is one top-level piece of an expression and the operator that precedes it.
type Slice struct {
	Break rune
	Text  string
}

// ResultSource represents where a statistics result came from
type ResultSource string

const (
	SourceFreshCalculation ResultSource = "fresh_calculation"
	SourceCache            ResultSource = "cache"
	SourceDatabase         ResultSource = "database"
)

// CachedResult is what the statistics cache and database store per canonical expression.
type CachedResult struct {
	Expression string             `json:"expression"`
	Statistics *statistics.Result `json:"statistics"`
}

// dslLexer defines the token classes of the dice language. Word catches every
// run of characters the language has no use for; the parser decides whether it
// is a bad die size or a bad character.
var dslLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Op", Pattern: `[-+*xXdD]`},
	{Name: "Whitespace", Pattern: `[\s\v\p{Z}]+`},
	{Name: "Word", Pattern: `[^0-9+*xXdD\s\v\p{Z}-]+`},
})

var (
	intToken        = dslLexer.Symbols()["Int"]
	opToken         = dslLexer.Symbols()["Op"]
	whitespaceToken = dslLexer.Symbols()["Whitespace"]
	wordToken       = dslLexer.Symbols()["Word"]
)
