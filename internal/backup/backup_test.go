package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_CopiesExistingSources(t *testing.T) {
	dir := t.TempDir()
	stateFile := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(stateFile, []byte(`{"_revision":3}`), 0o644))
	missing := filepath.Join(dir, "history.db")

	s, err := NewScheduler(filepath.Join(dir, "backups"), stateFile, missing)
	require.NoError(t, err)

	snapDir, err := s.Snapshot()
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(snapDir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"_revision":3}`, string(data))

	_, err = os.Stat(filepath.Join(snapDir, "history.db"))
	assert.True(t, os.IsNotExist(err), "missing source should be skipped")
}

func TestNewScheduler_RequiresTarget(t *testing.T) {
	_, err := NewScheduler("")
	require.Error(t, err)
}
