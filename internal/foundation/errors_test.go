package foundation

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderComposesClassifiedError(t *testing.T) {
	cause := errors.New("disk full")
	err := PersistenceError("write state file").
		WithComponent("state").
		WithOperation("save").
		WithCause(cause).
		WithContext(Fields{"path": "/tmp/config.json"}).
		Build()

	assert.Equal(t, ErrorCodePersistence, err.Code)
	assert.Equal(t, "state", err.Component)
	assert.True(t, err.IsRetryable())
	assert.Equal(t, "/tmp/config.json", err.Context["path"])

	msg := err.Error()
	assert.Contains(t, msg, "[state]")
	assert.Contains(t, msg, "operation=save")
	assert.Contains(t, msg, "code=persistence")
	assert.Contains(t, msg, "disk full")
}

func TestUnwrapReachesCause(t *testing.T) {
	cause := errors.New("boom")
	err := InternalError("wrapped").WithCause(cause).Build()

	assert.ErrorIs(t, err, cause)
}

func TestIsErrorCodeMatchesThroughWrapping(t *testing.T) {
	err := ExhaustedError("no candidates").Build()
	wrapped := fmt.Errorf("pick failed: %w", err)

	assert.True(t, IsErrorCode(wrapped, ErrorCodeExhausted))
	assert.False(t, IsErrorCode(wrapped, ErrorCodeValidation))
	assert.False(t, IsErrorCode(errors.New("plain"), ErrorCodeExhausted))
}

func TestConstructorSeverities(t *testing.T) {
	assert.Equal(t, SeverityWarning, ValidationError("v").Build().Severity)
	assert.Equal(t, SeverityInfo, ExhaustedError("e").Build().Severity)
	assert.Equal(t, SeverityCritical, InternalError("i").Build().Severity)

	nf := NotFoundError("roster").Build()
	require.Equal(t, ErrorCodeNotFound, nf.Code)
	assert.Equal(t, "roster", nf.Context["resource"])
}
