package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, p.Validate())
	require.Equal(t, BackoffFixed, p.Mode)
}

func TestDelay_Fixed(t *testing.T) {
	p := NewPolicy(BackoffFixed, 2*time.Second, 10*time.Second, 3)
	require.Equal(t, time.Duration(0), p.Delay(0))
	require.Equal(t, 2*time.Second, p.Delay(1))
	require.Equal(t, 2*time.Second, p.Delay(4))
}

func TestDelay_LinearCapped(t *testing.T) {
	p := NewPolicy(BackoffLinear, time.Second, 3*time.Second, 5)
	require.Equal(t, time.Second, p.Delay(1))
	require.Equal(t, 2*time.Second, p.Delay(2))
	require.Equal(t, 3*time.Second, p.Delay(3))
	require.Equal(t, 3*time.Second, p.Delay(10))
}

func TestDelay_ExponentialCapped(t *testing.T) {
	p := NewPolicy(BackoffExponential, time.Second, 5*time.Second, 5)
	require.Equal(t, time.Second, p.Delay(1))
	require.Equal(t, 2*time.Second, p.Delay(2))
	require.Equal(t, 4*time.Second, p.Delay(3))
	require.Equal(t, 5*time.Second, p.Delay(4))
}

func TestNewPolicy_InvalidModeKeepsDefault(t *testing.T) {
	p := NewPolicy("bogus", 0, 0, -1)
	require.Equal(t, DefaultPolicy(), p)
}
