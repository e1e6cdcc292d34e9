package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clobrano/contentaudit/internal/models"
)

func sampleRecord(id, user string, at time.Time) models.AuditRecord {
	result := models.AuditResult{
		Score:            55,
		Status:           models.StatusNonCompliant,
		Summary:          "Unsubstantiated cure claim.",
		FinancialPenalty: models.FinancialPenalty{RiskLevel: "High", Description: "DMR Act penalty"},
		EthicalMarketing: models.EthicalMarketing{Score: 4, Assessment: "Misleading"},
		Violations: []models.Violation{{
			Severity:           "Critical",
			Regulation:         "DMR Act 1954",
			ProblematicContent: "cures diabetes",
		}},
	}
	return models.AuditRecord{
		ID:            id,
		UserID:        user,
		ContentType:   models.ContentTypeText,
		OriginalInput: "Our tea cures diabetes",
		ExtractedText: "Our tea cures diabetes",
		AuditResult:   result,
		CreatedAt:     at,
	}
}

type historyStore interface {
	Store
	History
}

func stores(t *testing.T) map[string]historyStore {
	t.Helper()

	sqliteStore, err := NewSQLite(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, sqliteStore.Close()) })

	fileStore, err := NewFile(filepath.Join(t.TempDir(), "audits"))
	require.NoError(t, err)

	return map[string]historyStore{"sqlite": sqliteStore, "file": fileStore}
}

func TestStores_SaveAndList(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, sampleRecord("rec-1", "alice", base)))
			require.NoError(t, s.Save(ctx, sampleRecord("rec-2", "alice", base.Add(time.Minute))))
			require.NoError(t, s.Save(ctx, sampleRecord("rec-3", "bob", base)))

			records, err := s.ListByUser(ctx, "alice", 10)
			require.NoError(t, err)
			require.Len(t, records, 2)
			assert.Equal(t, "rec-2", records[0].ID)
			assert.Equal(t, "rec-1", records[1].ID)
			assert.Equal(t, sampleRecord("rec-1", "alice", base), records[1])

			limited, err := s.ListByUser(ctx, "alice", 1)
			require.NoError(t, err)
			assert.Len(t, limited, 1)

			none, err := s.ListByUser(ctx, "carol", 10)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestStores_InsertOnly(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, sampleRecord("rec-1", "alice", at)))

			changed := sampleRecord("rec-1", "alice", at)
			changed.AuditResult.Score = 100
			assert.ErrorIs(t, s.Save(ctx, changed), ErrDuplicate)

			records, err := s.ListByUser(ctx, "alice", 10)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.InDelta(t, 55, records[0].AuditResult.Score, 0)
		})
	}
}

func TestStores_RejectIncompleteRecords(t *testing.T) {
	at := time.Now()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			assert.Error(t, s.Save(ctx, sampleRecord("", "alice", at)))
			assert.Error(t, s.Save(ctx, sampleRecord("rec", "", at)))
			assert.Error(t, s.Save(ctx, sampleRecord("rec", "alice", time.Time{})))
		})
	}
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), sampleRecord("rec-1", "alice", time.Now())))
	require.NoError(t, s.Close())

	s, err = NewSQLite(dir)
	require.NoError(t, err)
	defer s.Close()

	records, err := s.ListByUser(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, filepath.Join(dir, "audits.db"), s.Path())
}

func TestFile_UserIDCannotEscape(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "audits")
	s, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), sampleRecord("rec-1", "../../outside", time.Now())))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "audits", entries[0].Name())
}

func TestStores_UsersWithSimilarIDsAreIsolated(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	users := []string{"team/alice", "team_alice", "team\\alice", "alice.", "alice"}

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i, user := range users {
				require.NoError(t, s.Save(ctx, sampleRecord(fmt.Sprintf("rec-%d", i), user, at)))
			}
			for _, user := range users {
				records, err := s.ListByUser(ctx, user, 10)
				require.NoError(t, err)
				require.Len(t, records, 1, user)
				assert.Equal(t, user, records[0].UserID)
			}
		})
	}
}

func TestUserDirName(t *testing.T) {
	assert.NotEqual(t, userDirName("team/alice"), userDirName("team_alice"))
	assert.NotEqual(t, userDirName("alice."), userDirName("alice"))
	assert.Equal(t, userDirName("alice"), userDirName("alice"))
	assert.Regexp(t, `^alice-[0-9a-f]{16}$`, userDirName("alice"))
	assert.LessOrEqual(t, len(userDirName(strings.Repeat("x", 500))), 48+1+16)
}
