package report

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointerBadSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	_, err := NewCheckpointer(path, "not a schedule", func() ([]byte, error) {
		return nil, nil
	})
	assert.Error(t, err)
}

func TestCheckpointerLoadMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	c, err := NewCheckpointer(path, "@every 1h", func() ([]byte, error) {
		return []byte("{}"), nil
	})
	require.NoError(t, err)

	data, err := c.Load()
	require.NoError(t, err)
	assert.Nil(t, data, "no checkpoint yet is not an error")
}

func TestCheckpointerSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	want := []byte(`{"saved_at": 1593883322}`)
	c, err := NewCheckpointer(path, "@every 1h", func() ([]byte, error) {
		return want, nil
	})
	require.NoError(t, err)

	c.save()

	data, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, want, data)
}

// TestCheckpointerStopWritesFinalState verifies shutdown flushes one last
// checkpoint even if the schedule never fired.
func TestCheckpointerStopWritesFinalState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	c, err := NewCheckpointer(path, "@every 1h", func() ([]byte, error) {
		return []byte(`{"final": true}`), nil
	})
	require.NoError(t, err)

	c.Start()
	c.Stop()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"final": true}`, string(data))
}

func TestCheckpointerSaveStateError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	c, err := NewCheckpointer(path, "@every 1h", func() ([]byte, error) {
		return nil, errors.New("state unavailable")
	})
	require.NoError(t, err)

	// A failed state function logs and leaves no file behind.
	c.save()
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
