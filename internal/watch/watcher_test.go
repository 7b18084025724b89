package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitForCount(t *testing.T, counter *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if counter.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("reload count never reached %d (now %d)", want, counter.Load())
}

func TestRosterWatcher_DebouncesBurstIntoOneReload(t *testing.T) {
	dir := t.TempDir()
	roster := filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(roster, []byte("Alice\n"), 0o644))

	var reloads atomic.Int32
	w, err := NewRosterWatcher(func(context.Context) error {
		reloads.Add(1)
		return nil
	}, roster)
	require.NoError(t, err)
	w.SetDebounce(100 * time.Millisecond)
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, w.Start(t.Context()))

	for i := 0; i < 4; i++ {
		require.NoError(t, os.WriteFile(roster, []byte("Alice\nBeth\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	waitForCount(t, &reloads, 1)
	time.Sleep(250 * time.Millisecond)
	require.Equal(t, int32(1), reloads.Load())
}

func TestRosterWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	roster := filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(roster, []byte("Alice\n"), 0o644))

	var reloads atomic.Int32
	w, err := NewRosterWatcher(func(context.Context) error {
		reloads.Add(1)
		return nil
	}, roster)
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, w.Start(t.Context()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, int32(0), reloads.Load())
}

func TestRosterWatcher_SeesReplacedFile(t *testing.T) {
	dir := t.TempDir()
	roster := filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(roster, []byte("Alice\n"), 0o644))

	var reloads atomic.Int32
	w, err := NewRosterWatcher(func(context.Context) error {
		reloads.Add(1)
		return nil
	}, roster)
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, w.Start(t.Context()))

	// editor-style save: write a temp file, then rename over the target
	tmp := filepath.Join(dir, "names.txt.new")
	require.NoError(t, os.WriteFile(tmp, []byte("Beth\n"), 0o644))
	require.NoError(t, os.Rename(tmp, roster))

	waitForCount(t, &reloads, 1)
}

func TestNewRosterWatcher_Validation(t *testing.T) {
	_, err := NewRosterWatcher(nil, "x")
	require.Error(t, err)

	_, err = NewRosterWatcher(func(context.Context) error { return nil })
	require.Error(t, err)
}

func TestRosterWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	roster := filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(roster, []byte("Alice\n"), 0o644))

	w, err := NewRosterWatcher(func(context.Context) error { return nil }, roster)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}
