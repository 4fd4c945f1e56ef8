package structure

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// PairSet is a collection of base pairs represented as compact integer
// keys, bounded by the length of the originating sequence.
//
// We currently do not provide the conversion from PairSet back to
// PairTable, mainly because at this stage it is not clear if PairSets
// may be used in the future to include pseudoknots.
type PairSet struct {
	length int
	pairs  map[PairKey]struct{}
}

// NewPairSet creates an empty pair set for a given sequence length.
func NewPairSet(length int) *PairSet {
	return &PairSet{
		length: length,
		pairs:  make(map[PairKey]struct{}),
	}
}

// PairSetFrom collects every pair of a PairTable into a PairSet.
func PairSetFrom(pt PairTable) *PairSet {
	ps := NewPairSet(pt.Len())
	for i, j := range pt {
		if j > i {
			ps.Insert(NewPair(NAIDX(i), NAIDX(j)))
		}
	}
	return ps
}

// Len returns the number of pairs contained in the set.
func (ps *PairSet) Len() int {
	return len(ps.pairs)
}

// IsEmpty reports whether the set contains no pairs.
func (ps *PairSet) IsEmpty() bool {
	return len(ps.pairs) == 0
}

// Insert adds a new pair; it reports whether the pair was newly
// inserted. Panics when the pair exceeds the set's sequence length.
func (ps *PairSet) Insert(pair Pair) bool {
	if int(pair.J()) >= ps.length {
		panic(fmt.Sprintf("pair %v out of range for length %d", pair, ps.length))
	}
	if _, ok := ps.pairs[pair.Key()]; ok {
		return false
	}
	ps.pairs[pair.Key()] = struct{}{}
	return true
}

// Contains reports whether a pair exists in the set.
func (ps *PairSet) Contains(pair Pair) bool {
	_, ok := ps.pairs[pair.Key()]
	return ok
}

// Keys returns the packed keys of all pairs in arbitrary order.
func (ps *PairSet) Keys() []PairKey {
	keys := make([]PairKey, 0, len(ps.pairs))
	for k := range ps.pairs {
		keys = append(keys, k)
	}
	return keys
}

// ToVec returns all pairs sorted by (i, j) for deterministic
// inspection.
func (ps *PairSet) ToVec() []Pair {
	keys := ps.Keys()
	slices.Sort(keys)
	pairs := make([]Pair, len(keys))
	for i, k := range keys {
		pairs[i] = PairFromKey(k)
	}
	return pairs
}

// Length returns the underlying sequence length.
func (ps *PairSet) Length() int {
	return ps.length
}

func (ps *PairSet) String() string {
	var sb strings.Builder
	for i, pair := range ps.ToVec() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(pair.String())
	}
	return sb.String()
}

// PairList is a 1-based listing of the pairs of a PairTable, kept in
// 5'-to-3' order of the opening index. It can be used as a
// human-readable alternative to PairTable representations; beware that
// the indices are 1-based.
type PairList struct {
	length int
	pairs  []Pair
}

// PairListFrom collects the pairs of a PairTable into a PairList.
func PairListFrom(pt PairTable) PairList {
	var pairs []Pair
	for i, j := range pt {
		if j > i {
			pairs = append(pairs, NewPair(NAIDX(i)+1, NAIDX(j)+1))
		}
	}
	return PairList{length: pt.Len(), pairs: pairs}
}

// Pairs returns the 1-based pairs of the list.
func (pl PairList) Pairs() []Pair {
	return pl.pairs
}

// Length returns the underlying sequence length.
func (pl PairList) Length() int {
	return pl.length
}
