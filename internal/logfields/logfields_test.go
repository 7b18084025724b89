package logfields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttrsCarryCanonicalKeys(t *testing.T) {
	assert.Equal(t, KeySession, Session("s").Key)
	assert.Equal(t, "s", Session("s").Value.String())

	assert.Equal(t, KeyGenderFilter, GenderFilter("female").Key)
	assert.Equal(t, KeyParticipant, Participant("Alice").Key)
	assert.Equal(t, int64(3), PickedCount(3).Value.Int64())
	assert.Equal(t, int64(7), Available(7).Value.Int64())
}

func TestErrorAttr(t *testing.T) {
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
	assert.Equal(t, "", Error(nil).Value.String())
}
