package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExportPath(t *testing.T) {
	at := time.Date(2025, 4, 30, 21, 5, 9, 0, time.FixedZone("ICT", 7*3600))

	assert.Equal(t, "exports/auth0_abc123/20250430T140509Z.json", ExportPath("auth0|abc123", at))
}

func TestExportPrefix_SanitizesSeparators(t *testing.T) {
	assert.Equal(t, "exports/.._etc_passwd/", ExportPrefix("../etc/passwd"))
	assert.Equal(t, "exports/google-oauth2_42/", ExportPrefix("google-oauth2|42"))
}

func TestSortExports(t *testing.T) {
	older := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	objects := []ExportObject{
		{Path: "b", LastModified: older},
		{Path: "c", LastModified: newer},
		{Path: "a", LastModified: older},
	}

	SortExports(objects)

	assert.Equal(t, []string{"c", "a", "b"}, []string{objects[0].Path, objects[1].Path, objects[2].Path})
}
