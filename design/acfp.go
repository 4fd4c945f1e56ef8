package design

import (
	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

// Acfp is an addressable conformational folding path: a chain of
// nested structures of strictly increasing length intended to be
// realisable by single base-pair moves.
type Acfp struct {
	path []structure.PairTable
}

// AcfpFromString starts a path from a single dot-bracket structure.
func AcfpFromString(dotBracket string) (*Acfp, error) {
	pt, err := structure.FromDotBracket(dotBracket)
	if err != nil {
		return nil, err
	}
	return &Acfp{path: []structure.PairTable{pt}}, nil
}

// Clone returns an independent copy of the path.
func (a *Acfp) Clone() *Acfp {
	path := make([]structure.PairTable, len(a.path))
	for i, pt := range a.path {
		path[i] = pt.Clone()
	}
	return &Acfp{path: path}
}

// ExtendByOne appends the next (one position longer) structure to the
// path.
func (a *Acfp) ExtendByOne(pt structure.PairTable) {
	a.path = append(a.path, pt.Clone())
}

// Path returns the structures of the path.
func (a *Acfp) Path() []structure.PairTable {
	return a.path
}

// Len returns the number of structures on the path.
func (a *Acfp) Len() int {
	return len(a.path)
}

// Validate replays the whole path through a fresh PartialOrder. It
// returns the engine (for hierarchy and total-order queries) and
// whether every extension was accepted.
func (a *Acfp) Validate() (*PartialOrder, bool) {
	po := NewPartialOrder()
	for _, pt := range a.path {
		if !po.ExtendByPairTable(pt) {
			return po, false
		}
	}
	return po, true
}

// GenerateStructures enumerates every nested structure of length n in
// dot-bracket notation, including hairpins without unpaired interior.
// The count grows like the Motzkin numbers with all loop sizes
// admitted.
func GenerateStructures(n int) []string {
	if n == 0 {
		return []string{""}
	}
	var results []string
	buf := make([]byte, n)
	var emit func(pos, open int)
	emit = func(pos, open int) {
		if pos == n {
			if open == 0 {
				results = append(results, string(buf))
			}
			return
		}
		// never open a bracket that cannot close anymore
		if n-pos > open+1 {
			buf[pos] = '('
			emit(pos+1, open+1)
		}
		if open > 0 {
			buf[pos] = ')'
			emit(pos+1, open-1)
		}
		buf[pos] = '.'
		emit(pos+1, open)
	}
	emit(0, 0)
	return results
}

// CountStructures returns the number of nested structures per length
// 1..n without materialising them.
func CountStructures(n int) []int {
	// m[k] counts balanced strings of length k over "().".
	m := make([]int, n+1)
	m[0] = 1
	if n >= 1 {
		m[1] = 1
	}
	for k := 2; k <= n; k++ {
		// first position unpaired, or paired with position i+1.
		total := m[k-1]
		for i := 0; i+2 <= k; i++ {
			total += m[i] * m[k-i-2]
		}
		m[k] = total
	}
	return m[1:]
}
