package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealradar/models"
	"dealradar/utils"
)

func TestStateMissingFileMeansFirstRun(t *testing.T) {
	s := NewFileStateStore(filepath.Join(t.TempDir(), "data", "run_state.json"), utils.NewNopLogger())

	state, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, state.ListingIDs)
	assert.True(t, state.LastRunAt.IsZero())
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "run_state.json")
	s := NewFileStateStore(path, utils.NewNopLogger())

	saved := &models.RunState{
		LastRunAt:  time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC),
		ListingIDs: []string{"a", "b", "c"},
	}
	require.NoError(t, s.Save(saved))

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, saved.ListingIDs, loaded.ListingIDs)
	assert.True(t, saved.LastRunAt.Equal(loaded.LastRunAt))

	// no temp file left behind
	_, err = os.Stat(path + tmpSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestStateCorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_state.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o644))

	s := NewFileStateStore(path, utils.NewNopLogger())
	_, err := s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
