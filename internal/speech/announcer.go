// Package speech announces picked names out loud through a pluggable
// synthesizer. At most one utterance runs at a time; announcements that
// arrive while one is playing are dropped rather than queued, so a rapid
// series of picks never builds a backlog of stale names.
package speech

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/namepick/internal/foundation"
)

// Synthesizer turns text into audio. Speak blocks until the utterance
// finishes or the context is canceled.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// SynthesizerFunc adapts a function to the Synthesizer interface.
type SynthesizerFunc func(ctx context.Context, text string) error

func (f SynthesizerFunc) Speak(ctx context.Context, text string) error {
	return f(ctx, text)
}

// Announcer serializes utterances over a synthesizer.
type Announcer struct {
	synth Synthesizer
	busy  atomic.Bool
	wg    sync.WaitGroup
}

// NewAnnouncer wraps a synthesizer. A nil synthesizer is rejected.
func NewAnnouncer(synth Synthesizer) (*Announcer, error) {
	if synth == nil {
		return nil, foundation.ValidationError("synthesizer is required").Build()
	}
	return &Announcer{synth: synth}, nil
}

// Announce starts speaking text asynchronously. Returns a channel that
// receives exactly one completion signal, or false when an utterance is
// already in flight and this one was dropped.
func (a *Announcer) Announce(ctx context.Context, text string) (<-chan error, bool) {
	if text == "" {
		return nil, false
	}
	if !a.busy.CompareAndSwap(false, true) {
		slog.Debug("Announcement dropped, synthesizer busy", "text", text)
		return nil, false
	}

	done := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.busy.Store(false)

		err := a.synth.Speak(ctx, text)
		if err != nil {
			slog.Warn("Speech synthesis failed", "error", err)
		}
		done <- err
	}()
	return done, true
}

// Busy reports whether an utterance is currently playing.
func (a *Announcer) Busy() bool {
	return a.busy.Load()
}

// Wait blocks until any in-flight utterance finishes. Used on shutdown.
func (a *Announcer) Wait() {
	a.wg.Wait()
}

// CommandSynthesizer shells out to a local text-to-speech binary such as
// espeak or say. Rate is words per minute; zero uses the tool's default.
type CommandSynthesizer struct {
	Binary string
	Rate   int
}

func (s CommandSynthesizer) Speak(ctx context.Context, text string) error {
	if s.Binary == "" {
		return foundation.ConfigurationError("speech binary not configured").Build()
	}

	args := []string{}
	if s.Rate > 0 {
		args = append(args, "-s", strconv.Itoa(s.Rate))
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, s.Binary, args...)
	started := time.Now()
	if err := cmd.Run(); err != nil {
		return foundation.InternalError("speech command failed").
			WithCause(err).
			WithContext(foundation.Fields{"binary": s.Binary}).
			Build()
	}
	slog.Debug("Utterance finished", "duration", time.Since(started))
	return nil
}
