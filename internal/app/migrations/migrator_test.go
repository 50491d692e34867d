package migrations

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "001", Version("001_research.sql"))
	assert.Equal(t, "010", Version("sql/010_more.sql"))
}

func TestPendingOrdersFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql": {Data: []byte("SELECT 1;")},
		"002_next.sql":  {Data: []byte("SELECT 1;")},
		"001_first.sql": {Data: []byte("SELECT 1;")},
		"README.md":     {Data: []byte("notes")},
		"old/003.sql":   {Data: []byte("SELECT 1;")},
	}
	files, err := Pending(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_first.sql", "002_next.sql", "010_later.sql"}, files)
}

func TestEmbeddedSchema(t *testing.T) {
	files, err := Pending(Files())
	require.NoError(t, err)
	require.Equal(t, []string{"001_research.sql", "002_election.sql", "003_audit_log.sql"}, files)

	read := func(name string) string {
		b, err := fs.ReadFile(Files(), name)
		require.NoError(t, err)
		return string(b)
	}
	research := read("001_research.sql")
	assert.Contains(t, research, "REFERENCES faculties(id) ON DELETE CASCADE")
	assert.Contains(t, research, "REFERENCES research_topics(id) ON DELETE SET NULL")
	assert.Contains(t, research, "REFERENCES students(id) ON DELETE CASCADE")

	election := read("002_election.sql")
	assert.Contains(t, election, "REFERENCES voters(id) ON DELETE CASCADE")
	assert.True(t, strings.Contains(election, "UNIQUE (voter_id, position_id)"), "one vote per voter and position")
}
