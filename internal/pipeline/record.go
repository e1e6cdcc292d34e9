package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clobrano/contentaudit/internal/extract"
	"github.com/clobrano/contentaudit/internal/failure"
	"github.com/clobrano/contentaudit/internal/models"
)

const defaultSaveTimeout = 10 * time.Second

func newRecordID() string {
	return uuid.NewString()
}

func (p *Pipeline) newRecord(userID string, contentType models.ContentType, in models.RawInput, outcome extract.Outcome, result models.AuditResult) models.AuditRecord {
	return models.AuditRecord{
		ID:            p.deps.NewID(),
		UserID:        userID,
		ContentType:   contentType,
		OriginalInput: originalInput(in, contentType),
		ExtractedText: outcome.ExtractedText,
		Transcript:    outcome.Transcript,
		AuditResult:   result,
		CreatedAt:     p.deps.Now().UTC(),
	}
}

// originalInput is what the record keeps of the request: the text, the URL
// or the uploaded file name. File bytes are never stored.
func originalInput(in models.RawInput, contentType models.ContentType) string {
	switch {
	case in.Text != "":
		return in.Text
	case in.URL != "":
		return in.URL
	case in.File != nil && in.File.FileName != "":
		return in.File.FileName
	}
	return "uploaded " + string(contentType)
}

// validateRecord is the last check before persistence.
func validateRecord(r models.AuditRecord) error {
	var problem string
	switch {
	case r.UserID == "":
		problem = "record has no user"
	case r.ContentType == "" || r.ContentType == models.ContentTypeUnknown || r.ContentType == models.ContentTypeURL:
		problem = "record has no resolved content type"
	case r.AuditResult.Status == "":
		problem = "audit result has no status"
	case r.AuditResult.Violations == nil:
		problem = "audit result has no violations list"
	default:
		return nil
	}
	return failure.Wrap(failure.InvalidAnalysisShape, errors.New(problem), "Audit result failed validation.")
}

// persist saves record once. It runs detached from ctx's cancellation so a
// caller that goes away after analysis does not lose the record. A failed
// save is logged; the caller still gets the result.
func (p *Pipeline) persist(ctx context.Context, log *zap.Logger, record models.AuditRecord) {
	timeout := p.deps.Guard.Limits().SaveTimeout
	if timeout <= 0 {
		timeout = defaultSaveTimeout
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	err := p.deps.Store.Save(saveCtx, record)
	if p.deps.Recorder != nil {
		p.deps.Recorder.Saved(err)
	}
	if err != nil {
		log.Error("Failed to save audit record", zap.String("record_id", record.ID), zap.Error(err))
	}
}
