package dsl

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
	"github.com/rs/zerolog/log"
)

// MaxDiceCount is the largest count a single die-group may roll. Rolling and
// logging cost grows with the count, so larger groups are rejected as InvalidDie.
const MaxDiceCount = 100000

// token is either an operator character or a run of operand text.
type token struct {
	op   rune // 0 for operand text
	text string
}

func isDieOp(c rune) bool {
	return c == 'd' || c == 'D'
}

func isMulOp(c rune) bool {
	return c == '*' || c == 'x' || c == 'X'
}

// tokenize lexes text into operators and operands, dropping whitespace. Text
// the language does not know is only accepted straight after a die operator,
// where it becomes a (bad) number of faces.
func tokenize(text string) ([]token, error) {
	lex, err := dslLexer.LexString("", text)
	if err != nil {
		return nil, fmt.Errorf("lexing dice expression: %w", err)
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("lexing dice expression: %w", err)
	}

	tokens := make([]token, 0, len(raw))
	for _, t := range raw {
		switch t.Type {
		case opToken:
			tokens = append(tokens, token{op: rune(t.Value[0]), text: t.Value})
		case intToken:
			tokens = append(tokens, token{text: t.Value})
		case wordToken:
			if len(tokens) == 0 || !isDieOp(tokens[len(tokens)-1].op) {
				c, _ := utf8.DecodeRuneInString(t.Value)
				return nil, invalidCharacter(c)
			}
			tokens = append(tokens, token{text: t.Value})
		case whitespaceToken, lexer.EOF:
		}
	}
	return tokens, nil
}

// boundary reports the kind of split an operator introduces given the last
// non-whitespace character before it (0 when there is none). ok is false when
// the operator is plain text: a '-' that opens the expression or follows a
// multiplication is a sign, not a subtraction.
func boundary(op, previous rune) (kind Kind, ok bool) {
	switch {
	case op == '+':
		return KindSum, true
	case op == '-':
		if previous == 0 || isMulOp(previous) {
			return KindConst, false
		}
		return KindSum, true
	case isMulOp(op):
		return KindProduct, true
	case isDieOp(op):
		return KindDie, true
	}
	return KindConst, false
}

func firstBreak(kind Kind) rune {
	switch kind {
	case KindProduct:
		return '*'
	case KindDie:
		return 'd'
	}
	return '+'
}

// Classify decides the outermost shape of text and splits it into the slices of
// that shape. Operators of weaker kinds stay inside the slices verbatim. Empty
// slices are kept; the tree builder decides whether they are legal.
func Classify(text string) (Kind, []Slice, error) {
	tokens, err := tokenize(text)
	if err != nil {
		return KindConst, nil, err
	}

	type split struct {
		kind Kind
		ok   bool
	}
	splits := make([]split, len(tokens))
	kind := KindConst
	var previous rune
	for i, t := range tokens {
		if t.op != 0 {
			k, ok := boundary(t.op, previous)
			splits[i] = split{kind: k, ok: ok}
			if ok && k > kind {
				kind = k
			}
		}
		previous, _ = utf8.DecodeLastRuneInString(t.text)
	}

	var (
		slices  []Slice
		current strings.Builder
		brk     = firstBreak(kind)
	)
	for i, t := range tokens {
		if splits[i].ok && splits[i].kind == kind {
			slices = append(slices, Slice{Break: brk, Text: current.String()})
			current.Reset()
			if kind == KindSum {
				brk = t.op
			}
			continue
		}
		current.WriteString(t.text)
	}
	slices = append(slices, Slice{Break: brk, Text: current.String()})
	return kind, slices, nil
}

// Parse builds the expression tree for text. Whitespace anywhere is ignored.
func Parse(input string) (Expr, error) {
	log.Debug().Str("input", input).Msg("parsing dice expression")
	expr, err := parse(input)
	if err != nil {
		log.Debug().Str("input", input).Err(err).Msg("dice expression rejected")
		return nil, err
	}
	return expr, nil
}

// MustParse is Parse for expressions known to be valid. It panics on error.
func MustParse(input string) Expr {
	expr, err := Parse(input)
	if err != nil {
		panic("dsl: MustParse(" + strconv.Quote(input) + "): " + err.Error())
	}
	return expr
}

func parse(text string) (Expr, error) {
	kind, slices, err := Classify(text)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindSum:
		return parseSum(text, slices)
	case KindProduct:
		return parseProduct(text, slices)
	case KindDie:
		return parseDie(text, slices)
	default:
		n, err := parseNumber(slices[0].Text)
		if err != nil {
			return nil, err
		}
		return Const{Value: n}, nil
	}
}

func parseSum(text string, slices []Slice) (Expr, error) {
	terms := make([]Term, 0, len(slices))
	for i, s := range slices {
		if s.Text == "" {
			if i != 0 {
				return nil, invalidMath(text)
			}
			terms = append(terms, Term{Sign: Pos, Expr: DieGroup{Count: 1, Faces: 20}})
			continue
		}
		sign := Pos
		if s.Break == '-' {
			sign = Neg
		}
		term, err := parseSigned(text, s.Text, sign)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return Sum{Terms: terms}, nil
}

func parseProduct(text string, slices []Slice) (Expr, error) {
	factors := make([]Term, 0, len(slices))
	for _, s := range slices {
		if s.Text == "" {
			return nil, invalidMath(text)
		}
		factor, err := parseSigned(text, s.Text, Pos)
		if err != nil {
			return nil, err
		}
		factors = append(factors, factor)
	}
	return Product{Factors: factors}, nil
}

// parseSigned parses one slice as a term with the given sign. A leading '-' on
// the slice flips the sign and belongs to the term, not to its value.
func parseSigned(text, slice string, sign Sign) (Term, error) {
	if rest, ok := strings.CutPrefix(slice, "-"); ok {
		if rest == "" {
			return Term{}, invalidMath(text)
		}
		slice = rest
		sign = -sign
	}
	expr, err := parse(slice)
	if err != nil {
		return Term{}, err
	}
	return Term{Sign: sign, Expr: expr}, nil
}

func parseDie(text string, slices []Slice) (Expr, error) {
	if len(slices) != 2 {
		return nil, invalidDie(text)
	}

	countText, negative := strings.CutPrefix(slices[0].Text, "-")
	count := 1
	if countText != "" {
		n, err := parseNumber(countText)
		if err != nil {
			return nil, err
		}
		count = n
	}
	faces, err := parseNumber(slices[1].Text)
	if err != nil {
		return nil, err
	}
	if faces < 1 || count < 0 || count > MaxDiceCount {
		return nil, invalidDie(text)
	}

	die := DieGroup{Count: count, Faces: faces}
	if negative {
		return Sum{Terms: []Term{{Sign: Neg, Expr: die}}}, nil
	}
	return die, nil
}

func parseNumber(text string) (int, error) {
	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return 0, invalidNumber(text)
	}
	return int(n), nil
}
