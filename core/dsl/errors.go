package dsl

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCharacter = errors.New("invalid character")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrInvalidDie       = errors.New("invalid die")
	ErrInvalidMath      = errors.New("invalid expression")
)

// ParseError reports why an expression could not be parsed. Kind is one of the
// Err* sentinels above, so errors.Is(err, ErrInvalidNumber) works on it.
type ParseError struct {
	Kind  error
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s '%s'", e.Kind, e.Input)
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

func invalidCharacter(c rune) error {
	return &ParseError{Kind: ErrInvalidCharacter, Input: string(c)}
}

func invalidNumber(text string) error {
	return &ParseError{Kind: ErrInvalidNumber, Input: text}
}

func invalidDie(text string) error {
	return &ParseError{Kind: ErrInvalidDie, Input: text}
}

func invalidMath(text string) error {
	return &ParseError{Kind: ErrInvalidMath, Input: text}
}

// Code is a stable machine-readable name for the error's kind.
func (e *ParseError) Code() string {
	switch e.Kind {
	case ErrInvalidCharacter:
		return "invalid_character"
	case ErrInvalidNumber:
		return "invalid_number"
	case ErrInvalidDie:
		return "invalid_die"
	case ErrInvalidMath:
		return "invalid_math"
	}
	return "invalid_expression"
}
