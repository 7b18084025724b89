// Package picker is the application service: it owns the selection pool,
// mirrors its state into the persistent mapping, logs picks to history and
// announces results.
package picker

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/namepick/internal/history"
	"git.home.luguber.info/inful/namepick/internal/logfields"
	"git.home.luguber.info/inful/namepick/internal/metrics"
	"git.home.luguber.info/inful/namepick/internal/roster"
	"git.home.luguber.info/inful/namepick/internal/save"
	"git.home.luguber.info/inful/namepick/internal/selection"
	"git.home.luguber.info/inful/namepick/internal/speech"
	"git.home.luguber.info/inful/namepick/internal/state"
)

// SaveRequester registers deferred save reasons. Satisfied by save.Coalescer.
type SaveRequester interface {
	Request(reasons ...save.Reason)
}

// Options carries the optional collaborators. Zero values disable them.
type Options struct {
	History   *history.Store
	Recorder  metrics.Recorder
	Announcer *speech.Announcer
	Rand      *rand.Rand // deterministic selection for tests
}

// PickResult is the outcome of one successful draw.
type PickResult struct {
	DisplayName string
	Removed     bool
	Available   int // remaining candidates under the current filter
}

// Service coordinates one roster's selection state.
type Service struct {
	mu    sync.Mutex
	files roster.Files
	pool  *selection.Pool
	store *state.Store
	saver SaveRequester

	hist      *history.Store
	recorder  metrics.Recorder
	announcer *speech.Announcer

	sessionID    string
	genderFilter roster.Gender
	pickedCount  int
	pickAgain    bool // picked names stay available
	speakName    bool
}

// New loads the roster, restores persisted selection state and returns a
// ready service. The store must be initialized before calling New.
func New(files roster.Files, store *state.Store, opts Options) (*Service, error) {
	r, err := roster.Load(files)
	if err != nil {
		return nil, err
	}

	m := store.Load()

	poolOpts := []selection.Option{}
	if n := state.Int(m, state.KeyNoDuplicate); n > 0 {
		poolOpts = append(poolOpts, selection.WithNoDuplicate(n))
	}
	if opts.Rand != nil {
		poolOpts = append(poolOpts, selection.WithRand(opts.Rand))
	}
	pool := selection.New(r, poolOpts...)

	filter := roster.Unknown
	if g, err := roster.ParseGender(state.String(m, state.KeyGenderFilter)); err == nil {
		filter = g
	} else {
		slog.Warn("Ignoring persisted gender filter", "error", err)
	}

	svc := &Service{
		files:        files,
		pool:         pool,
		store:        store,
		hist:         opts.History,
		recorder:     opts.Recorder,
		announcer:    opts.Announcer,
		sessionID:    uuid.NewString(),
		genderFilter: filter,
		pickAgain:    state.Bool(m, state.KeyPickAgain),
		speakName:    state.Bool(m, state.KeySpeakName),
	}
	if svc.recorder == nil {
		svc.recorder = metrics.NoopRecorder{}
	}

	if state.Bool(m, state.KeyIsSave) {
		svc.pool.RestoreAvailable(state.StringSlice(m, state.KeySavedAvailableNames))
		svc.pickedCount = state.Int(m, state.KeyPickedCount)
		slog.Info("Restored selection state",
			logfields.PickedCount(svc.pickedCount),
			logfields.GenderFilter(string(svc.genderFilter)))
	}

	svc.publishAvailable()
	return svc, nil
}

// SetSaver attaches the deferred-save channel. Without one, state changes are
// only persisted through explicit Persist calls.
func (s *Service) SetSaver(saver SaveRequester) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saver = saver
}

// SessionID identifies this service instance in the pick history.
func (s *Service) SessionID() string {
	return s.sessionID
}

// Pick draws one participant under the current gender filter.
//
// The save request and the announcement happen after the lock is released:
// the coalescer's snapshot callback takes the same lock, so signaling it
// while holding the lock could deadlock against a concurrent flush.
func (s *Service) Pick(ctx context.Context) (PickResult, error) {
	s.mu.Lock()

	removeOnPick := !s.pickAgain
	name, err := s.pool.Pick(s.genderFilter, removeOnPick)
	if err != nil {
		if selection.IsNoCandidates(err) {
			s.recorder.IncPick(string(s.genderFilter), metrics.ResultExhausted)
			s.appendHistory(ctx, history.PickEvent{
				SessionID:    s.sessionID,
				GenderFilter: string(s.genderFilter),
				Outcome:      history.OutcomeExhausted,
			})
		} else {
			s.recorder.IncPick(string(s.genderFilter), metrics.ResultFailure)
		}
		s.mu.Unlock()
		return PickResult{}, err
	}

	s.pickedCount++
	s.recorder.IncPick(string(s.genderFilter), metrics.ResultSuccess)
	s.appendHistory(ctx, history.PickEvent{
		SessionID:    s.sessionID,
		DisplayName:  name,
		GenderFilter: string(s.genderFilter),
		Removed:      removeOnPick,
		Outcome:      history.OutcomePicked,
		PickedAt:     time.Now(),
	})
	s.publishAvailable()
	speak := s.speakName && s.announcer != nil
	_, available, _ := s.pool.Stats(s.genderFilter)
	s.mu.Unlock()

	s.requestSave(save.ReasonState)
	if speak {
		if _, started := s.announcer.Announce(ctx, name); !started {
			slog.Debug("Skipped announcement", "name", name)
		}
	}

	return PickResult{DisplayName: name, Removed: removeOnPick, Available: available}, nil
}

// Reset restores availability under the given filter and clears the
// no-duplicate window.
func (s *Service) Reset(filter roster.Gender) {
	s.mu.Lock()
	s.pool.Reset(filter)
	_, _, picked := s.pool.Stats(roster.Unknown)
	s.pickedCount = picked
	s.recorder.IncReset(string(filter))
	s.publishAvailable()
	s.mu.Unlock()

	s.requestSave(save.ReasonState)
	slog.Info("Pool reset", logfields.GenderFilter(string(filter)))
}

// Stats reports counts under the given filter.
func (s *Service) Stats(filter roster.Gender) (total, available, picked int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.Stats(filter)
}

// GenderFilter returns the active filter.
func (s *Service) GenderFilter() roster.Gender {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genderFilter
}

// SetGenderFilter switches the active filter.
func (s *Service) SetGenderFilter(filter roster.Gender) {
	s.mu.Lock()
	if filter == s.genderFilter {
		s.mu.Unlock()
		return
	}
	s.genderFilter = filter
	s.publishAvailable()
	s.mu.Unlock()
	s.requestSave(save.ReasonState)
}

// SetNoDuplicate resizes the no-duplicate window. Zero disables it.
func (s *Service) SetNoDuplicate(n int) {
	s.mu.Lock()
	s.pool.ResizeNoDuplicate(n)
	s.mu.Unlock()
	s.requestSave(save.ReasonState)
}

// SetPickAgain toggles repeat mode.
func (s *Service) SetPickAgain(v bool) {
	s.mu.Lock()
	s.pickAgain = v
	s.mu.Unlock()
	s.requestSave(save.ReasonState)
}

// Reload rebuilds the pool from the roster files, keeping availability for
// every identity both versions share. Called by the file watcher.
func (s *Service) Reload(ctx context.Context) error {
	s.mu.Lock()

	r, err := roster.Load(s.files)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	available := s.pool.AvailableIdentities()

	opts := []selection.Option{}
	if n := s.pool.NoDuplicate(); n > 0 {
		opts = append(opts, selection.WithNoDuplicate(n))
	}
	fresh := selection.New(r, opts...)
	fresh.RestoreAvailable(available)
	s.pool = fresh

	_, _, picked := s.pool.Stats(roster.Unknown)
	s.pickedCount = picked
	s.publishAvailable()
	s.mu.Unlock()

	s.requestSave(save.ReasonState)
	slog.Info("Roster reloaded", "participants", r.Len())
	return nil
}

// BuildUpdates implements save.Snapshot: it renders the fields the given
// reasons cover into persisted keys.
func (s *Service) BuildUpdates(reasons map[save.Reason]struct{}) state.Mapping {
	s.mu.Lock()
	defer s.mu.Unlock()

	updates := state.Mapping{}
	if _, ok := reasons[save.ReasonState]; ok {
		s.stateUpdates(updates)
	}
	return updates
}

// Persist writes the current selection state synchronously, bypassing the
// coalescer. Used by one-shot commands and on shutdown.
func (s *Service) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.store.Load()
	updates := state.Mapping{}
	s.stateUpdates(updates)
	for k, v := range updates {
		m[k] = v
	}
	return s.store.Save(m)
}

// stateUpdates fills in the selection-state keys. Caller holds the lock.
func (s *Service) stateUpdates(updates state.Mapping) {
	names := s.pool.AvailableIdentities()
	saved := make([]any, 0, len(names))
	for _, n := range names {
		saved = append(saved, n)
	}
	updates[state.KeyPickedCount] = s.pickedCount
	updates[state.KeyGenderFilter] = string(s.genderFilter)
	updates[state.KeyNoDuplicate] = s.pool.NoDuplicate()
	updates[state.KeyPickAgain] = s.pickAgain
	updates[state.KeySavedAvailableNames] = saved
	// persisting selection state implies opting in to restore-on-start; there
	// is no separate toggle in this interface
	updates[state.KeyIsSave] = true
}

// requestSave must be called without the lock held: the coalescer's snapshot
// callback locks the service, so blocking on its channel under the lock could
// deadlock.
func (s *Service) requestSave(reasons ...save.Reason) {
	s.mu.Lock()
	saver := s.saver
	s.mu.Unlock()
	if saver != nil {
		saver.Request(reasons...)
	}
}

func (s *Service) publishAvailable() {
	_, available, _ := s.pool.Stats(s.genderFilter)
	s.recorder.SetAvailableCount(available)
}

func (s *Service) appendHistory(ctx context.Context, event history.PickEvent) {
	if s.hist == nil {
		return
	}
	if err := s.hist.Append(ctx, event); err != nil {
		slog.Warn("Failed to record pick history", logfields.Error(err))
	}
}
