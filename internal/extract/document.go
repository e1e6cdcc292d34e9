package extract

import (
	"context"
	"errors"

	"github.com/clobrano/contentaudit/internal/detect"
	"github.com/clobrano/contentaudit/internal/document"
	"github.com/clobrano/contentaudit/internal/failure"
	"github.com/clobrano/contentaudit/internal/models"
)

// DocumentTooShortMessage is the summary used when a document yields
// too little text to audit.
const DocumentTooShortMessage = "Document extraction failed or content too short."

// Document dispatches on the resolved MIME type to a text extractor.
type Document struct {
	guard     Guard
	extractor document.Extractor
}

func NewDocument(guard Guard, extractor document.Extractor) *Document {
	return &Document{guard: guard, extractor: extractor}
}

func (d *Document) Extract(ctx context.Context, f *models.UploadedFile) (Outcome, error) {
	if err := d.guard.Document(f); err != nil {
		return Outcome{}, err
	}

	mimeType := detect.ResolveMIME(f)
	text, err := d.extractor.Extract(ctx, f.Data, mimeType)
	switch {
	case errors.Is(err, document.ErrUnsupportedFormat):
		return Outcome{}, failure.Wrap(failure.UnsupportedFormat, err, "Document format is not supported.")
	case errors.Is(err, document.ErrInvalidDocument):
		return Outcome{}, failure.Wrap(failure.NoContent, err, DocumentTooShortMessage)
	case err != nil:
		return Outcome{}, stepError(ctx, err, failure.ExtractionFailed, DocumentTooShortMessage)
	}

	if charCount(text) < d.guard.limits.MinDocumentChars {
		return Outcome{}, failure.New(failure.NoContent, DocumentTooShortMessage)
	}
	return Outcome{ExtractedText: text, Source: "document text"}, nil
}
