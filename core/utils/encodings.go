package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyExpression is returned when a decoded expression holds nothing but whitespace.
var ErrEmptyExpression = errors.New("empty dice expression")

// EncodeExpression encodes a dice expression as URL-safe base64 so that '+' and
// spaces survive a query string.
func EncodeExpression(expression string) string {
	return base64.URLEncoding.EncodeToString([]byte(expression))
}

// DecodeExpression reverses EncodeExpression. Unpadded input is accepted too.
func DecodeExpression(encoded string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		var rawErr error
		decoded, rawErr = base64.RawURLEncoding.DecodeString(encoded)
		if rawErr != nil {
			return "", fmt.Errorf("failed to decode expression: %w", err)
		}
	}
	expression := strings.TrimSpace(string(decoded))
	if expression == "" {
		return "", ErrEmptyExpression
	}
	return expression, nil
}
