package bitset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitset_SetClearTestCount(t *testing.T) {
	b := New(130)
	require.Equal(t, 130, b.Len())
	require.Equal(t, 0, b.Count())

	b.Set(0)
	b.Set(63)
	b.Set(64)
	b.Set(129)
	require.Equal(t, 4, b.Count())
	require.True(t, b.Test(63))
	require.True(t, b.Test(129))
	require.False(t, b.Test(1))

	b.Clear(63)
	require.False(t, b.Test(63))
	require.Equal(t, 3, b.Count())

	// out of range is a no-op
	b.Set(-1)
	b.Set(130)
	require.Equal(t, 3, b.Count())
	require.False(t, b.Test(130))
}

func TestBitset_SetAllRespectsLength(t *testing.T) {
	b := New(70)
	b.SetAll()
	require.Equal(t, 70, b.Count())

	b.ClearAll()
	require.Equal(t, 0, b.Count())
}

func TestBitset_NotStaysWithinLength(t *testing.T) {
	b := New(70)
	b.Set(3)

	inv := b.Not()
	require.Equal(t, 69, inv.Count())
	require.False(t, inv.Test(3))
	require.True(t, inv.Test(0))
	require.False(t, inv.Test(70))
}

func TestBitset_BooleanOps(t *testing.T) {
	a := New(100)
	b := New(100)
	a.Set(1)
	a.Set(2)
	a.Set(99)
	b.Set(2)
	b.Set(3)

	require.Equal(t, 1, a.And(b).Count())
	require.True(t, a.And(b).Test(2))

	require.Equal(t, 4, a.Or(b).Count())

	diff := a.AndNot(b)
	require.Equal(t, 2, diff.Count())
	require.True(t, diff.Test(1))
	require.True(t, diff.Test(99))
	require.False(t, diff.Test(2))

	// originals untouched
	require.Equal(t, 3, a.Count())
	require.Equal(t, 2, b.Count())
}

func TestBitset_InPlaceOps(t *testing.T) {
	a := New(64)
	b := New(64)
	a.Set(5)
	b.Set(5)
	b.Set(6)

	a.OrWith(b)
	require.True(t, a.Test(6))

	a.AndNotWith(b)
	require.Equal(t, 0, a.Count())
}

func TestBitset_NthSet(t *testing.T) {
	b := New(200)
	for _, i := range []int{3, 64, 65, 130, 199} {
		b.Set(i)
	}

	cases := []struct {
		k    int
		want int
	}{
		{0, 3},
		{1, 64},
		{2, 65},
		{3, 130},
		{4, 199},
	}
	for _, tc := range cases {
		got, ok := b.NthSet(tc.k)
		require.True(t, ok, "k=%d", tc.k)
		require.Equal(t, tc.want, got)
	}

	_, ok := b.NthSet(5)
	require.False(t, ok)
	_, ok = b.NthSet(-1)
	require.False(t, ok)
}

func TestBitset_CloneIsIndependent(t *testing.T) {
	a := New(10)
	a.Set(4)
	c := a.Clone()
	c.Clear(4)
	require.True(t, a.Test(4))
	require.False(t, c.Test(4))
}
