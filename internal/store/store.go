// Package store persists audit records. Records are insert-only: there is
// no update or delete path.
package store

import (
	"context"
	"errors"

	"github.com/clobrano/contentaudit/internal/models"
)

// ErrDuplicate is returned when a record with the same ID already exists.
var ErrDuplicate = errors.New("audit record already exists")

// Store saves a single audit record.
type Store interface {
	Save(ctx context.Context, record models.AuditRecord) error
}

// History lists the records of one user, newest first.
type History interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.AuditRecord, error)
}

// validate rejects records that are missing their identity fields.
func validate(r models.AuditRecord) error {
	switch {
	case r.ID == "":
		return errors.New("audit record has no ID")
	case r.UserID == "":
		return errors.New("audit record has no user")
	case r.CreatedAt.IsZero():
		return errors.New("audit record has no creation time")
	}
	return nil
}
