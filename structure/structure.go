/*
Package structure provides canonical representations of nested
(pseudoknot-free) nucleic-acid secondary structures.

The central type is the `PairTable`, a length-indexed table where each
position records the index of its pairing partner (or that it is
unpaired). PairTables parse from and print to dot-bracket notation.

Derived from a PairTable are the `LoopTable`, a loop-membership index
that records for every position which loop it belongs to, and the
`PairSet`, a compact set of base pairs keyed by a packed 32-bit
integer. Single base-pair transitions between PairTables are provided
by `TryMove` and `ApplyMove`.

All indices are 0-based. Pair indices are stored as NAIDX (16 bit),
which is plenty for nucleic acids; should you ever want to fold longer
sequences, beware that PairKey needs to be twice as large (in bits) as
NAIDX, since pairs (NAIDX, NAIDX) are compacted into one PairKey.
*/
package structure

import (
	"fmt"
	"unsafe"
)

// NAIDX is a nucleic acid index: a 0-based sequence position.
type NAIDX = uint16

// PairKey packs two NAIDX values into a single integer for efficient
// set and map storage.
type PairKey = uint32

// Compile-time sanity check: two NAIDX values must fit into one PairKey.
const _ = uint(unsafe.Sizeof(PairKey(0)) - 2*unsafe.Sizeof(NAIDX(0)))

// Pair is a base pair (i, j) with i < j.
type Pair struct {
	i NAIDX
	j NAIDX
}

// NewPair creates a new pair (i, j). Panics if i >= j.
func NewPair(i, j NAIDX) Pair {
	if i >= j {
		panic(fmt.Sprintf("invalid pair (%d, %d): i must be less than j", i, j))
	}
	return Pair{i: i, j: j}
}

// orderedPair returns the pair (i, j) with the two indices sorted.
func orderedPair(i, j NAIDX) Pair {
	if i < j {
		return NewPair(i, j)
	}
	return NewPair(j, i)
}

// I returns the 5'-side index.
func (p Pair) I() NAIDX {
	return p.i
}

// J returns the 3'-side index.
func (p Pair) J() NAIDX {
	return p.j
}

// Key returns the compact 32-bit key encoding both indices.
func (p Pair) Key() PairKey {
	return PairKey(p.i)<<16 | PairKey(p.j)
}

// PairFromKey decodes a key back into a Pair.
func PairFromKey(key PairKey) Pair {
	i := NAIDX(key >> 16)
	j := NAIDX(key & 0xFFFF)
	return NewPair(i, j)
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.i, p.j)
}
