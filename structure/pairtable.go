package structure

import (
	"fmt"
	"math"
)

const (
	dotBracketUnpaired byte = '.'
	dotBracketOpen     byte = '('
	dotBracketClose    byte = ')'
)

// unpaired marks a position without a pairing partner in a PairTable.
const unpaired = -1

// PairTable is a length-indexed representation of a nested secondary
// structure. PairTable[i] is the index of the position that i pairs
// with, or -1 if i is unpaired. The table is symmetric: if
// pt[i] == j then pt[j] == i and i != j.
type PairTable []int

// FromDotBracket parses a dot-bracket string into a PairTable.
// Opening and closing brackets are matched with a stack; the function
// returns an error on unbalanced brackets, on characters outside the
// "().". alphabet, and on structures too long for the index type.
func FromDotBracket(structure string) (PairTable, error) {
	n := len(structure)
	if n > math.MaxUint16 {
		return nil, fmt.Errorf("structure of length %d exceeds the maximum of %d positions", n, math.MaxUint16)
	}

	pt := make(PairTable, n)

	// keeps track of the indexes of open brackets. Indexes of open
	// brackets are pushed onto stack and poped off when a closing
	// bracket is encountered
	openBracketIdxStack := make([]int, n)
	stackIdx := 0

	for i := 0; i < n; i++ {
		switch structure[i] {
		case dotBracketOpen:
			openBracketIdxStack[stackIdx] = i
			stackIdx++
		case dotBracketClose:
			stackIdx--
			if stackIdx < 0 {
				return nil, fmt.Errorf("%v\nunbalanced brackets '%c%c' found while extracting base pairs",
					structure, dotBracketOpen, dotBracketClose)
			}
			openBracketIdx := openBracketIdxStack[stackIdx]
			pt[i] = openBracketIdx
			pt[openBracketIdx] = i
		case dotBracketUnpaired:
			pt[i] = unpaired
		default:
			return nil, fmt.Errorf("found invalid character %q in structure. Only dot-bracket notation allowed", structure[i])
		}
	}

	if stackIdx != 0 {
		return nil, fmt.Errorf("%v\nunbalanced brackets '%c%c' found while extracting base pairs",
			structure, dotBracketOpen, dotBracketClose)
	}

	return pt, nil
}

// String returns the dot-bracket notation of the PairTable.
func (pt PairTable) String() string {
	dotBracket := make([]byte, len(pt))
	for i, j := range pt {
		switch {
		case j == unpaired:
			dotBracket[i] = dotBracketUnpaired
		case j > i:
			dotBracket[i] = dotBracketOpen
		default:
			dotBracket[i] = dotBracketClose
		}
	}
	return string(dotBracket)
}

// Len returns the number of positions in the table.
func (pt PairTable) Len() int {
	return len(pt)
}

// Paired reports whether position i has a pairing partner.
func (pt PairTable) Paired(i int) bool {
	return pt[i] != unpaired
}

// Clone returns an independent copy of the PairTable.
func (pt PairTable) Clone() PairTable {
	clone := make(PairTable, len(pt))
	copy(clone, pt)
	return clone
}

// Equal reports whether two PairTables have identical length and
// pairings.
func (pt PairTable) Equal(other PairTable) bool {
	if len(pt) != len(other) {
		return false
	}
	for i, j := range pt {
		if other[i] != j {
			return false
		}
	}
	return true
}

// AppendUnpaired extends the table by one unpaired position at the
// 3' end.
func (pt *PairTable) AppendUnpaired() {
	*pt = append(*pt, unpaired)
}

// Pairs returns every pair (i, j) with i < j in 5'-to-3' order of the
// opening index.
func (pt PairTable) Pairs() []Pair {
	var pairs []Pair
	for i, j := range pt {
		if j > i {
			pairs = append(pairs, NewPair(NAIDX(i), NAIDX(j)))
		}
	}
	return pairs
}
