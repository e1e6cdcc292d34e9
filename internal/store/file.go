package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clobrano/contentaudit/internal/models"
)

// File writes one JSON document per record under
// dir/<user dir>/<timestamp>_<id>.json. See userDirName.
type File struct {
	dir string
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) Save(ctx context.Context, r models.AuditRecord) error {
	if err := validate(r); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	userDir := filepath.Join(f.dir, userDirName(r.UserID))
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return fmt.Errorf("creating user directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling audit record: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", r.CreatedAt.UTC().Format("20060102T150405.000Z"), SanitizeFilename(r.ID))
	path := filepath.Join(userDir, name)

	// O_EXCL makes creation atomic: a second save of the same record fails
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ErrDuplicate
		}
		return err
	}

	if _, err := out.Write(data); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("writing audit record: %w", err)
	}
	return out.Close()
}

// userDirName is a readable prefix of the user ID plus a hash of the
// exact ID, so distinct IDs that sanitize alike never share a directory.
func userDirName(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	prefix := truncateBytes(SanitizeFilename(userID), 48)
	return prefix + "-" + hex.EncodeToString(sum[:8])
}

func (f *File) ListByUser(_ context.Context, userID string, limit int) ([]models.AuditRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	userDir := filepath.Join(f.dir, userDirName(userID))
	entries, err := os.ReadDir(userDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	// Timestamp prefix sorts chronologically
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	records := make([]models.AuditRecord, 0, min(len(names), limit))
	for _, name := range names {
		if len(records) == limit {
			break
		}
		data, err := os.ReadFile(filepath.Join(userDir, name))
		if err != nil {
			return nil, err
		}
		var r models.AuditRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		if r.UserID != userID {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}
