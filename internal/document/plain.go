package document

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Plain accepts UTF-8 text files as-is.
type Plain struct{}

func (Plain) Extract(_ context.Context, data []byte, _ string) (string, error) {
	if !utf8.Valid(data) {
		return "", ErrInvalidDocument
	}
	return strings.TrimSpace(string(data)), nil
}
