package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationNames_ArePairedUpAndDown(t *testing.T) {
	names, err := MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := make(map[string]bool)
	downs := make(map[string]bool)
	for _, name := range names {
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrations_UseJSONColumnAndNotifyChannel(t *testing.T) {
	table, err := migrationsFS.ReadFile("migrations/000001_create_finance_documents.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(table), "data       JSON NOT NULL")

	trigger, err := migrationsFS.ReadFile("migrations/000002_notify_finance_document_changes.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(trigger), "pg_notify('finance_documents', NEW.user_id)")
}
