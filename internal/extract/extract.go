// Package extract turns each kind of input into plain text ready for
// analysis. Every strategy returns a zero Outcome and a *failure.Error on
// failure; there are no error-shaped successes.
package extract

import (
	"context"
	"errors"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/clobrano/contentaudit/internal/failure"
)

// Outcome is the text an extraction produced. Transcript is set only when
// the text came from speech.
type Outcome struct {
	ExtractedText string
	Transcript    string
	Source        string
}

func charCount(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// truncateRunes cuts s to at most max runes.
func truncateRunes(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// stepError types err for a step that ran under ctx. Deadline expiry wins
// over the step's own kind.
func stepError(ctx context.Context, err error, kind failure.Kind, message string) error {
	var fe *failure.Error
	if errors.As(err, &fe) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return failure.Wrap(failure.Timeout, err, message+": timed out")
	}
	return failure.Wrap(kind, err, message)
}

// makeScratchDir creates a private working directory under base. The
// caller owns it and must remove it.
func makeScratchDir(base, pattern string) (string, error) {
	dir, err := os.MkdirTemp(base, pattern)
	if err != nil {
		return "", failure.Wrap(failure.ExtractionFailed, err, "could not create working directory")
	}
	return dir, nil
}
