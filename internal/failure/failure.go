// Package failure defines the typed errors every extraction and analysis
// step returns. A *Error carries a Kind that callers branch on and a
// human-readable Message that ends up in placeholder audit summaries.
package failure

import (
	"context"
	"errors"
	"net"
)

type Kind int

const (
	Unknown Kind = iota
	InvalidURL
	AccessDenied
	FetchFailed
	Timeout
	NoContent
	NoReadableText
	TranscriptTooShort
	UnsupportedFormat
	AnalysisUnavailable
	InvalidAnalysisShape
	Unauthenticated
	TooLarge
	TranscriptionFailed
	ExtractionFailed
	UnknownContent
)

var kindNames = map[Kind]string{
	Unknown:              "Unknown",
	InvalidURL:           "InvalidUrl",
	AccessDenied:         "AccessDenied",
	FetchFailed:          "FetchFailed",
	Timeout:              "Timeout",
	NoContent:            "NoContent",
	NoReadableText:       "NoReadableText",
	TranscriptTooShort:   "TranscriptTooShort",
	UnsupportedFormat:    "UnsupportedFormat",
	AnalysisUnavailable:  "AnalysisUnavailable",
	InvalidAnalysisShape: "InvalidAnalysisShape",
	Unauthenticated:      "Unauthenticated",
	TooLarge:             "TooLarge",
	TranscriptionFailed:  "TranscriptionFailed",
	ExtractionFailed:     "ExtractionFailed",
	UnknownContent:       "UnknownContent",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Error is the single error shape used across the pipeline.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// FromFetch classifies a transport error: deadline expiry becomes Timeout,
// anything else becomes FetchFailed.
func FromFetch(err error, message string) *Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return Wrap(Timeout, err, message+": request timed out")
	}
	return Wrap(FetchFailed, err, message)
}

// KindOf returns the Kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message for err. Errors that are not
// *Error fall back to err.Error().
func MessageOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
