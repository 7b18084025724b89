package picker

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/namepick/internal/history"
	"git.home.luguber.info/inful/namepick/internal/roster"
	"git.home.luguber.info/inful/namepick/internal/save"
	"git.home.luguber.info/inful/namepick/internal/selection"
	"git.home.luguber.info/inful/namepick/internal/state"
)

func writeRoster(t *testing.T, all, female string) roster.Files {
	t.Helper()
	dir := t.TempDir()
	files := roster.Files{
		RosterPath: filepath.Join(dir, "names.txt"),
		FemalePath: filepath.Join(dir, "g_names.txt"),
		BackupDir:  filepath.Join(dir, "backups"),
	}
	require.NoError(t, os.WriteFile(files.RosterPath, []byte(all), 0o644))
	require.NoError(t, os.WriteFile(files.FemalePath, []byte(female), 0o644))
	return files
}

func newTestStore(t *testing.T) *state.Store {
	t.Helper()
	s := state.NewStore(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, s.Init())
	return s
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

func TestPick_RemovalModeDrainsPool(t *testing.T) {
	files := writeRoster(t, "A\nB\nC\n", "")
	store := newTestStore(t)

	svc, err := New(files, store, Options{Rand: testRand()})
	require.NoError(t, err)
	svc.SetPickAgain(false)

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		res, err := svc.Pick(t.Context())
		require.NoError(t, err)
		require.False(t, seen[res.DisplayName], "repeated %q", res.DisplayName)
		seen[res.DisplayName] = true
		assert.True(t, res.Removed)
		assert.Equal(t, 2-i, res.Available)
	}

	_, err = svc.Pick(t.Context())
	require.Error(t, err)
	assert.True(t, selection.IsNoCandidates(err))
}

func TestPick_RepeatModeKeepsAvailability(t *testing.T) {
	files := writeRoster(t, "A\nB\n", "")
	store := newTestStore(t)

	svc, err := New(files, store, Options{Rand: testRand()})
	require.NoError(t, err)
	// pick_again defaults to true: picked names stay in the pool

	for i := 0; i < 5; i++ {
		res, err := svc.Pick(t.Context())
		require.NoError(t, err)
		assert.False(t, res.Removed)
		assert.Equal(t, 2, res.Available)
	}
}

func TestPick_GenderFilterScopesCandidates(t *testing.T) {
	files := writeRoster(t, "A\nB\nC\nD\nE\n", "C\nD\n")
	store := newTestStore(t)

	svc, err := New(files, store, Options{Rand: testRand()})
	require.NoError(t, err)
	svc.SetPickAgain(false)
	svc.SetGenderFilter(roster.Female)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		res, err := svc.Pick(t.Context())
		require.NoError(t, err)
		got[res.DisplayName] = true
	}
	assert.Equal(t, map[string]bool{"C": true, "D": true}, got)

	_, err = svc.Pick(t.Context())
	require.Error(t, err, "female pool exhausted")

	svc.SetGenderFilter(roster.Male)
	res, err := svc.Pick(t.Context())
	require.NoError(t, err)
	assert.Contains(t, []string{"A", "B", "E"}, res.DisplayName)
}

func TestPersistAndRestore_RoundTrip(t *testing.T) {
	files := writeRoster(t, "A\nB\nC\nD\n", "")
	store := newTestStore(t)

	svc, err := New(files, store, Options{Rand: testRand()})
	require.NoError(t, err)
	svc.SetPickAgain(false)

	first, err := svc.Pick(t.Context())
	require.NoError(t, err)
	require.NoError(t, svc.Persist())

	m := store.Load()
	assert.Equal(t, 1, state.Int(m, state.KeyPickedCount))
	assert.True(t, state.Bool(m, state.KeyIsSave))
	assert.Len(t, state.StringSlice(m, state.KeySavedAvailableNames), 3)
	assert.NotContains(t, state.StringSlice(m, state.KeySavedAvailableNames), first.DisplayName)

	// a fresh service over the same store resumes where the first left off
	restored, err := New(files, store, Options{Rand: testRand()})
	require.NoError(t, err)
	total, available, picked := restored.Stats(roster.Unknown)
	assert.Equal(t, 4, total)
	assert.Equal(t, 3, available)
	assert.Equal(t, 1, picked)
}

func TestReset_RestoresAvailability(t *testing.T) {
	files := writeRoster(t, "A\nB\nC\n", "")
	store := newTestStore(t)

	svc, err := New(files, store, Options{Rand: testRand()})
	require.NoError(t, err)
	svc.SetPickAgain(false)

	_, err = svc.Pick(t.Context())
	require.NoError(t, err)
	_, err = svc.Pick(t.Context())
	require.NoError(t, err)

	svc.Reset(roster.Unknown)
	total, available, picked := svc.Stats(roster.Unknown)
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, available)
	assert.Equal(t, 0, picked)

	require.NoError(t, svc.Persist())
	assert.Equal(t, 0, state.Int(store.Load(), state.KeyPickedCount))
}

func TestPick_RecordsHistory(t *testing.T) {
	files := writeRoster(t, "A\n", "")
	store := newTestStore(t)

	hist, err := history.NewStore(":memory:")
	require.NoError(t, err)
	defer hist.Close()

	svc, err := New(files, store, Options{History: hist, Rand: testRand()})
	require.NoError(t, err)
	svc.SetPickAgain(false)

	res, err := svc.Pick(t.Context())
	require.NoError(t, err)

	_, err = svc.Pick(t.Context())
	require.Error(t, err)

	events, err := hist.BySession(t.Context(), svc.SessionID())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, res.DisplayName, events[0].DisplayName)
	assert.Equal(t, history.OutcomePicked, events[0].Outcome)
	assert.Equal(t, history.OutcomeExhausted, events[1].Outcome)
}

func TestReload_KeepsSharedAvailability(t *testing.T) {
	files := writeRoster(t, "A\nB\nC\n", "")
	store := newTestStore(t)

	svc, err := New(files, store, Options{Rand: testRand()})
	require.NoError(t, err)
	svc.SetPickAgain(false)

	// drain until only one name remains available
	_, err = svc.Pick(t.Context())
	require.NoError(t, err)
	_, err = svc.Pick(t.Context())
	require.NoError(t, err)

	// roster gains D; shared identities keep their availability
	require.NoError(t, os.WriteFile(files.RosterPath, []byte("A\nB\nC\nD\n"), 0o644))
	require.NoError(t, svc.Reload(t.Context()))

	total, available, picked := svc.Stats(roster.Unknown)
	assert.Equal(t, 4, total)
	assert.Equal(t, 1, available)
	assert.Equal(t, 3, picked)
}

func TestBuildUpdates_OnlyCoversRequestedReasons(t *testing.T) {
	files := writeRoster(t, "A\n", "")
	store := newTestStore(t)

	svc, err := New(files, store, Options{Rand: testRand()})
	require.NoError(t, err)

	updates := svc.BuildUpdates(map[save.Reason]struct{}{save.ReasonGeometry: {}})
	assert.Empty(t, updates)

	updates = svc.BuildUpdates(map[save.Reason]struct{}{save.ReasonState: {}})
	assert.Contains(t, updates, state.KeyPickedCount)
	assert.Contains(t, updates, state.KeySavedAvailableNames)
	assert.Equal(t, "unknown", updates[state.KeyGenderFilter])
}
