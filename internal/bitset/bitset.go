// Package bitset provides a fixed-size bitmap backed by uint64 words.
//
// It backs the selection pool's per-participant state (available, picked,
// gender, recent-window membership), where the population size is fixed at
// construction and set operations reduce to word-wise boolean arithmetic.
package bitset

import "math/bits"

const wordBits = 64

// Bitset is a fixed-size set of bits indexed from 0 to Len()-1.
// The zero value is an empty bitset of length 0.
type Bitset struct {
	words []uint64
	n     int
}

// New returns a bitset holding n bits, all clear. n < 0 is treated as 0.
func New(n int) *Bitset {
	if n < 0 {
		n = 0
	}
	return &Bitset{
		words: make([]uint64, (n+wordBits-1)/wordBits),
		n:     n,
	}
}

// Len returns the number of bits the set was created with.
func (b *Bitset) Len() int {
	return b.n
}

// Set marks bit i. Out-of-range indices are ignored.
func (b *Bitset) Set(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.words[i>>6] |= 1 << (uint(i) & 63)
}

// Clear unmarks bit i. Out-of-range indices are ignored.
func (b *Bitset) Clear(i int) {
	if i < 0 || i >= b.n {
		return
	}
	b.words[i>>6] &^= 1 << (uint(i) & 63)
}

// Test reports whether bit i is set.
func (b *Bitset) Test(i int) bool {
	if i < 0 || i >= b.n {
		return false
	}
	return b.words[i>>6]&(1<<(uint(i)&63)) != 0
}

// SetAll marks every bit in [0, Len()).
func (b *Bitset) SetAll() {
	for i := range b.words {
		b.words[i] = ^uint64(0)
	}
	b.trim()
}

// ClearAll unmarks every bit.
func (b *Bitset) ClearAll() {
	for i := range b.words {
		b.words[i] = 0
	}
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	total := 0
	for _, w := range b.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// Clone returns an independent copy.
func (b *Bitset) Clone() *Bitset {
	c := &Bitset{words: make([]uint64, len(b.words)), n: b.n}
	copy(c.words, b.words)
	return c
}

// And returns a new bitset with the intersection of b and other.
// Both sets must have the same length.
func (b *Bitset) And(other *Bitset) *Bitset {
	c := b.Clone()
	for i := range c.words {
		c.words[i] &= other.words[i]
	}
	return c
}

// AndNot returns a new bitset with the bits of b that are not in other.
// Both sets must have the same length.
func (b *Bitset) AndNot(other *Bitset) *Bitset {
	c := b.Clone()
	for i := range c.words {
		c.words[i] &^= other.words[i]
	}
	return c
}

// Or returns a new bitset with the union of b and other.
// Both sets must have the same length.
func (b *Bitset) Or(other *Bitset) *Bitset {
	c := b.Clone()
	for i := range c.words {
		c.words[i] |= other.words[i]
	}
	return c
}

// Not returns a new bitset with every bit in [0, Len()) flipped.
func (b *Bitset) Not() *Bitset {
	c := b.Clone()
	for i := range c.words {
		c.words[i] = ^c.words[i]
	}
	c.trim()
	return c
}

// OrWith sets every bit of other in b in place.
// Both sets must have the same length.
func (b *Bitset) OrWith(other *Bitset) {
	for i := range b.words {
		b.words[i] |= other.words[i]
	}
}

// AndNotWith clears every bit of other from b in place.
// Both sets must have the same length.
func (b *Bitset) AndNotWith(other *Bitset) {
	for i := range b.words {
		b.words[i] &^= other.words[i]
	}
}

// NthSet returns the index of the k-th set bit (0-based) scanning in index
// order, or (-1, false) when fewer than k+1 bits are set. The scan is linear
// in the bitset length; fine for roster-scale sets, revisit before reusing
// for anything large.
func (b *Bitset) NthSet(k int) (int, bool) {
	if k < 0 {
		return -1, false
	}
	for wi, w := range b.words {
		c := bits.OnesCount64(w)
		if k >= c {
			k -= c
			continue
		}
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			if k == 0 {
				return wi*wordBits + bit, true
			}
			k--
			w &= w - 1
		}
	}
	return -1, false
}

// trim clears the unused high bits of the last word so Count and Not stay
// consistent with the logical length.
func (b *Bitset) trim() {
	if rem := b.n & 63; rem != 0 && len(b.words) > 0 {
		b.words[len(b.words)-1] &= (1 << uint(rem)) - 1
	}
}
