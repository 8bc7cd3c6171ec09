package seqguard

import "math/bits"

// bitset is a fixed-width bitmap over offsets [0, size). Offset i stands
// for sequence number high-i, so advancing high shifts every bit upward.
type bitset struct {
	size  int
	words []uint64
}

func newBitset(size int) bitset {
	return bitset{size: size, words: make([]uint64, (size+63)/64)}
}

func (b bitset) test(i int) bool {
	if i < 0 || i >= b.size {
		return false
	}
	return b.words[i/64]&(1<<(uint(i)%64)) != 0
}

func (b bitset) set(i int) {
	if i < 0 || i >= b.size {
		return
	}
	b.words[i/64] |= 1 << (uint(i) % 64)
}

func (b bitset) clone() bitset {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return bitset{size: b.size, words: words}
}

// shift moves every bit from offset i to i+n, discarding bits that fall
// off the end.
func (b bitset) shift(n int) {
	if n <= 0 {
		return
	}
	if n >= b.size {
		clear(b.words)
		return
	}
	wordShift, bitShift := n/64, uint(n%64)
	for i := len(b.words) - 1; i >= 0; i-- {
		var v uint64
		if src := i - wordShift; src >= 0 {
			v = b.words[src] << bitShift
			if bitShift != 0 && src-1 >= 0 {
				v |= b.words[src-1] >> (64 - bitShift)
			}
		}
		b.words[i] = v
	}
	if tail := uint(b.size % 64); tail != 0 {
		b.words[len(b.words)-1] &= (1 << tail) - 1
	}
}

func (b bitset) count() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}
