// Package roster loads and validates the participant population: the full
// roster file plus the female-subset file. It is the construction-time feed
// for the selection pool; selection state itself lives in internal/selection.
package roster

import (
	"fmt"

	"git.home.luguber.info/inful/namepick/internal/foundation"
)

// Gender is a closed tri-state tag on a participant.
type Gender string

const (
	Male    Gender = "male"
	Female  Gender = "female"
	Unknown Gender = "unknown"
)

// ParseGender maps the persisted string form back to a Gender.
// Anything unrecognized is an error rather than a silent Unknown.
func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case Male, Female, Unknown:
		return Gender(s), nil
	default:
		return Unknown, foundation.ValidationError(fmt.Sprintf("unknown gender %q", s)).
			WithComponent("roster").
			Build()
	}
}

// Participant is one roster entry.
//
// Identity is the raw roster line (trailing newline removed) and is the stable
// key: equality and map membership use Identity only. DisplayName is the
// trimmed form shown to users.
type Participant struct {
	Identity    string
	DisplayName string
	Gender      Gender
}
