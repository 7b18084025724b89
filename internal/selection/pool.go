// Package selection implements the constrained random-selection pool: a
// bit-vector state machine over a fixed roster supporting gender filtering,
// exhaustion without replacement and a sliding no-repeat window.
//
// A Pool is not safe for concurrent use. All mutation is expected to happen
// on one control goroutine; embed it behind a single mutex or an actor loop
// if that ever changes.
package selection

import (
	"fmt"
	"math/rand/v2"

	"git.home.luguber.info/inful/namepick/internal/bitset"
	"git.home.luguber.info/inful/namepick/internal/foundation"
	"git.home.luguber.info/inful/namepick/internal/roster"
)

// Pool holds the per-participant selection state.
//
// available and picked track removed-on-pick semantics independently: a
// participant never picked with removal has both bits false when repeats are
// allowed, so available∪picked covering the universe is not an invariant.
type Pool struct {
	roster    *roster.Roster
	female    *bitset.Bitset // fixed at construction, never mutated
	available *bitset.Bitset
	picked    *bitset.Bitset
	recent    *recentWindow
	rng       *rand.Rand
}

// Option configures a Pool at construction.
type Option func(*Pool)

// WithNoDuplicate sets the size of the no-repeat-within-last-N window.
// Zero (the default) disables it.
func WithNoDuplicate(n int) Option {
	return func(p *Pool) {
		p.recent = newRecentWindow(n, p.roster.Len())
	}
}

// WithRand injects a deterministic random source for tests.
func WithRand(rng *rand.Rand) Option {
	return func(p *Pool) {
		p.rng = rng
	}
}

// New builds a pool over the roster with everyone available and nobody
// picked.
func New(r *roster.Roster, opts ...Option) *Pool {
	n := r.Len()
	p := &Pool{
		roster:    r,
		female:    bitset.New(n),
		available: bitset.New(n),
		picked:    bitset.New(n),
		recent:    newRecentWindow(0, n),
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for i, participant := range r.Participants() {
		if participant.Gender == roster.Female {
			p.female.Set(i)
		}
	}
	p.available.SetAll()
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// genderMask maps the filter to a bitmap over the population: Unknown means
// everyone, Female the female mask, Male its complement.
func (p *Pool) genderMask(filter roster.Gender) *bitset.Bitset {
	switch filter {
	case roster.Female:
		return p.female
	case roster.Male:
		return p.female.Not()
	default:
		mask := bitset.New(p.roster.Len())
		mask.SetAll()
		return mask
	}
}

// Pick draws one participant uniformly from the candidate set and returns the
// display name.
//
// The candidate set is available ∩ genderMask(filter), minus the recent
// window when no-duplicate is enabled. The draw picks the k-th set bit in
// index order for a uniform k, so it is uniform over candidates and
// deterministic given the draw. The scan is linear in the population size,
// which is fine at roster scale.
//
// An empty candidate set returns an exhausted error; that is the expected
// end state of removal-mode picking, not a fault.
func (p *Pool) Pick(filter roster.Gender, removeOnPick bool) (string, error) {
	candidates := p.available.And(p.genderMask(filter))
	if p.recent.enabled() {
		candidates.AndNotWith(p.recent.mask)
	}

	n := candidates.Count()
	if n == 0 {
		return "", foundation.ExhaustedError(fmt.Sprintf("no %s candidates available", filter)).
			WithComponent("selection").
			WithOperation("pick").
			WithContext(foundation.Fields{"gender_filter": string(filter)}).
			Build()
	}

	k := p.rng.IntN(n)
	idx, ok := candidates.NthSet(k)
	if !ok {
		return "", foundation.InternalError("candidate scan ran past popcount").
			WithComponent("selection").
			Build()
	}

	if removeOnPick {
		p.available.Clear(idx)
		p.picked.Set(idx)
	}
	p.recent.observe(idx)

	return p.roster.At(idx).DisplayName, nil
}

// Reset restores availability. Unknown resets everyone; a specific gender
// touches only that gender's bits. The recent window is cleared
// unconditionally in both cases, matching the historical behavior even for
// gender-scoped resets.
func (p *Pool) Reset(filter roster.Gender) {
	if filter == roster.Unknown {
		p.available.SetAll()
		p.picked.ClearAll()
	} else {
		mask := p.genderMask(filter)
		p.available.OrWith(mask)
		p.picked.AndNotWith(mask)
	}
	p.recent.clear()
}

// Stats reports (total, available, picked) counts under the given filter.
func (p *Pool) Stats(filter roster.Gender) (total, available, picked int) {
	mask := p.genderMask(filter)
	return mask.Count(),
		p.available.And(mask).Count(),
		p.picked.And(mask).Count()
}

// AvailableIdentities returns the identities currently available, in roster
// order. This is the exact set persisted by the save path.
func (p *Pool) AvailableIdentities() []string {
	out := make([]string, 0, p.available.Count())
	for i := 0; i < p.roster.Len(); i++ {
		if p.available.Test(i) {
			out = append(out, p.roster.At(i).Identity)
		}
	}
	return out
}

// RestoreAvailable rebuilds availability from a persisted identity set:
// everything starts picked, then each known identity is flipped back to
// available. Identities no longer in the roster are silently ignored, since
// persisted state may be stale relative to the roster files.
func (p *Pool) RestoreAvailable(identities []string) {
	p.available.ClearAll()
	p.picked.SetAll()
	for _, identity := range identities {
		idx, ok := p.roster.IndexOf(identity)
		if !ok {
			continue
		}
		p.available.Set(idx)
		p.picked.Clear(idx)
	}
}

// NoDuplicate returns the current no-repeat window size (0 = disabled).
func (p *Pool) NoDuplicate() int {
	return p.recent.capacity
}

// ResizeNoDuplicate changes the no-repeat window size. Negative values clamp
// to 0. Shrinking keeps the most recently picked entries; 0 clears the
// window entirely.
func (p *Pool) ResizeNoDuplicate(n int) {
	p.recent.resize(n)
}

// Roster returns the population backing this pool.
func (p *Pool) Roster() *roster.Roster {
	return p.roster
}

// IsNoCandidates reports whether err is the empty-candidate-set outcome.
func IsNoCandidates(err error) bool {
	return foundation.IsErrorCode(err, foundation.ErrorCodeExhausted)
}
