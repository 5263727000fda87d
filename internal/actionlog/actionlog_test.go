package actionlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_RecordsWithULIDPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.log")
	log, err := New(path)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Append("TriggerAction: ID=1"))
	require.NoError(t, log.Append("TriggerAction: ID=2"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	for i, line := range lines {
		id, text, ok := strings.Cut(line, " ")
		require.True(t, ok, "line %d has no ULID prefix: %q", i, line)
		_, err := ulid.Parse(id)
		assert.NoError(t, err, "line %d prefix is not a ULID: %q", i, id)
		assert.Contains(t, text, "TriggerAction")
	}
}

// The log is wiped on open: each device run starts from an empty log.
func TestNew_TruncatesExistingLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actions.log")
	require.NoError(t, os.WriteFile(path, []byte("stale record\n"), 0o644))

	log, err := New(path)
	require.NoError(t, err)
	defer log.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "actions.log"))
	assert.Error(t, err)
}
