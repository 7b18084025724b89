package roster

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/namepick/internal/foundation"
)

// Roster is the immutable ordered population plus the identity index.
// Index position is the participant's stable numeric id for bitmap state.
type Roster struct {
	participants []Participant
	index        map[string]int
}

// commentPrefix marks roster lines that are skipped on parse.
const commentPrefix = "#"

// reasonEmptyPopulation discriminates the empty-population failure from other
// validation errors in this package.
const reasonEmptyPopulation = "empty_population"

// ParseLines filters raw roster lines down to identities: blank lines and
// lines starting with # are dropped, a leading UTF-8 BOM on the first line is
// tolerated, and the trailing newline has already been removed by the caller.
func ParseLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if i == 0 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, commentPrefix) {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Build constructs a Roster from the full roster lines and the female-subset
// lines.
//
// Construction fails with an empty-population validation error when allLines
// yields no participants, and with a subset-violation error enumerating every
// female identity that has no matching identity in the full roster. There is
// no ignore path: the caller must repair the files and retry.
func Build(allLines, femaleLines []string) (*Roster, error) {
	identities := ParseLines(allLines)
	if len(identities) == 0 {
		return nil, foundation.ValidationError("population is empty").
			WithComponent("roster").
			WithOperation("build").
			WithContext(foundation.Fields{"reason": reasonEmptyPopulation}).
			Build()
	}

	index := make(map[string]int, len(identities))
	participants := make([]Participant, 0, len(identities))
	for _, identity := range identities {
		if _, dup := index[identity]; dup {
			continue // identities are unique; keep the first occurrence
		}
		index[identity] = len(participants)
		participants = append(participants, Participant{
			Identity:    identity,
			DisplayName: strings.TrimSpace(identity),
			Gender:      Male,
		})
	}

	var invalid []string
	for _, identity := range ParseLines(femaleLines) {
		idx, ok := index[identity]
		if !ok {
			invalid = append(invalid, identity)
			continue
		}
		participants[idx].Gender = Female
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return nil, foundation.ValidationError(
			fmt.Sprintf("%d female identities missing from roster", len(invalid))).
			WithComponent("roster").
			WithOperation("build").
			WithContext(foundation.Fields{"invalid_identities": invalid}).
			Build()
	}

	return &Roster{participants: participants, index: index}, nil
}

// Len returns the population size.
func (r *Roster) Len() int {
	return len(r.participants)
}

// Participants returns the ordered population. Callers must not mutate it.
func (r *Roster) Participants() []Participant {
	return r.participants
}

// At returns the participant at index i.
func (r *Roster) At(i int) Participant {
	return r.participants[i]
}

// IndexOf returns the position of an identity, or (-1, false) when unknown.
func (r *Roster) IndexOf(identity string) (int, bool) {
	idx, ok := r.index[identity]
	if !ok {
		return -1, false
	}
	return idx, true
}

// FemaleIdentities returns the identities tagged female, in roster order.
func (r *Roster) FemaleIdentities() []string {
	var out []string
	for _, p := range r.participants {
		if p.Gender == Female {
			out = append(out, p.Identity)
		}
	}
	return out
}

// IsEmptyPopulation reports whether err is the empty-population validation
// failure.
func IsEmptyPopulation(err error) bool {
	var classified *foundation.ClassifiedError
	if !foundation.AsClassified(err, &classified) {
		return false
	}
	if classified.Code != foundation.ErrorCodeValidation {
		return false
	}
	return classified.Context["reason"] == reasonEmptyPopulation
}

// IsSubsetViolation reports whether err is the female-subset validation
// failure and returns the offending identities.
func IsSubsetViolation(err error) ([]string, bool) {
	var classified *foundation.ClassifiedError
	if !foundation.AsClassified(err, &classified) {
		return nil, false
	}
	if classified.Code != foundation.ErrorCodeValidation {
		return nil, false
	}
	raw, ok := classified.Context["invalid_identities"]
	if !ok {
		return nil, false
	}
	names, ok := raw.([]string)
	return names, ok
}
