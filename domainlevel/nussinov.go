package domainlevel

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

// NussinovDP holds the pair-score matrix of a sequence and the filled
// dynamic-programming table of the base-pair-maximisation recursion.
//
// Based on the approach described in:
// Nussinov and Jacobson, 1980
// https://www.pnas.org/doi/10.1073/pnas.77.11.6309
//
// The score matrix is an n x n non-negative integer matrix of which
// only the upper triangle is meaningful; a zero entry means "no pair
// allowed". The DP table cell (i, j) holds the maximum achievable
// pair-score sum on the closed interval [i, j].
type NussinovDP struct {
	pairScores [][]int
	dpTable    [][]int
}

// FromPairScores builds the DP table for an explicit score matrix.
// The matrix must be square with non-negative entries.
func FromPairScores(pairScores [][]int) (*NussinovDP, error) {
	n := len(pairScores)
	for i, row := range pairScores {
		if len(row) != n {
			return nil, fmt.Errorf("pair-score matrix is not square: row %d has %d columns, want %d", i, len(row), n)
		}
		for j, score := range row {
			if score < 0 {
				return nil, fmt.Errorf("pair-score matrix entry (%d, %d) is negative", i, j)
			}
		}
	}
	return &NussinovDP{
		pairScores: pairScores,
		dpTable:    nussinov(pairScores),
	}, nil
}

// FromDomains builds pair scores for a resolved domain sequence and
// fills the DP table. Two domains score when they are complements; the
// score is the length of the shorter domain.
func FromDomains(domains []Domain, registry *DomainRegistry) *NussinovDP {
	pairScores := buildPairScores(domains, registry)
	return &NussinovDP{
		pairScores: pairScores,
		dpTable:    nussinov(pairScores),
	}
}

// FromSequence resolves a whitespace-separated domain sequence against
// the registry and builds the DP. Unknown domain names yield an
// UnknownDomainError.
func FromSequence(sequence string, registry *DomainRegistry) (*NussinovDP, error) {
	domains, err := registry.ParseSequence(sequence)
	if err != nil {
		return nil, err
	}
	return FromDomains(domains, registry), nil
}

// Len returns the number of sequence positions covered by the DP.
func (dp *NussinovDP) Len() int {
	return len(dp.dpTable)
}

// Score returns the maximum achievable pair-score sum over the whole
// sequence.
func (dp *NussinovDP) Score() int {
	n := dp.Len()
	if n == 0 {
		return 0
	}
	return dp.dpTable[0][n-1]
}

// PairScores exposes the score matrix.
func (dp *NussinovDP) PairScores() [][]int {
	return dp.pairScores
}

// MFEPairs returns a single deterministic traceback of an optimal
// structure. Ties break left-first: unpaired-left, unpaired-right,
// pair, bifurcation.
func (dp *NussinovDP) MFEPairs() *structure.PairSet {
	n := dp.Len()
	pairs := structure.NewPairSet(n)
	if n > 0 {
		traceback(0, n-1, dp.dpTable, dp.pairScores, pairs)
	}
	return pairs
}

// AllMFEPairs returns the set of all pair-sets achieving the optimal
// score. Distinct tracebacks yielding the same structure are
// deduplicated.
func (dp *NussinovDP) AllMFEPairs() []*structure.PairSet {
	n := dp.Len()
	if n == 0 {
		return nil
	}
	memo := make(map[structure.PairKey][][]structure.PairKey)
	solutions := tracebackAll(0, n-1, dp.dpTable, dp.pairScores, memo)

	sets := make([]*structure.PairSet, len(solutions))
	for i, keys := range solutions {
		ps := structure.NewPairSet(n)
		for _, key := range keys {
			ps.Insert(structure.PairFromKey(key))
		}
		sets[i] = ps
	}
	return sets
}

// AllMFEStructs returns the dot-bracket strings of all co-optimal
// structures, sorted for deterministic output.
func (dp *NussinovDP) AllMFEStructs() []string {
	n := dp.Len()
	if n == 0 {
		return nil
	}
	memo := make(map[structure.PairKey][][]structure.PairKey)
	solutions := tracebackAll(0, n-1, dp.dpTable, dp.pairScores, memo)

	structs := make([]string, len(solutions))
	for si, keys := range solutions {
		dotBracket := make([]byte, n)
		for i := range dotBracket {
			dotBracket[i] = '.'
		}
		for _, key := range keys {
			pair := structure.PairFromKey(key)
			dotBracket[pair.I()] = '('
			dotBracket[pair.J()] = ')'
		}
		structs[si] = string(dotBracket)
	}
	slices.Sort(structs)
	return structs
}

// nussinov fills the DP table bottom-up in O(n^3):
//
//	D[i,j] = max( D[i+1,j], D[i,j-1],
//	              D[i+1,j-1] + P[i,j]          if P[i,j] > 0,
//	              max over k in (i,j) of D[i,k] + D[k+1,j] )
func nussinov(p [][]int) [][]int {
	n := len(p)
	dp := make([][]int, n)
	for i := range dp {
		dp[i] = make([]int, n)
	}
	for l := 1; l < n; l++ {
		for i := 0; i < n-l; i++ {
			j := i + l
			maxVal := dp[i+1][j]
			if dp[i][j-1] > maxVal {
				maxVal = dp[i][j-1]
			}
			if p[i][j] > 0 && dp[i+1][j-1]+p[i][j] > maxVal {
				maxVal = dp[i+1][j-1] + p[i][j]
			}
			for k := i + 1; k < j; k++ {
				if dp[i][k]+dp[k+1][j] > maxVal {
					maxVal = dp[i][k] + dp[k+1][j]
				}
			}
			dp[i][j] = maxVal
		}
	}
	return dp
}

// buildPairScores returns the pairwise score matrix for a domain
// sequence.
func buildPairScores(domains []Domain, registry *DomainRegistry) [][]int {
	n := len(domains)
	p := make([][]int, n)
	for i := range p {
		p[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if registry.AreComplements(domains[i], domains[j]) {
				score := domains[i].Length
				if domains[j].Length < score {
					score = domains[j].Length
				}
				p[i][j] = score
			}
		}
	}
	return p
}

// traceback recovers one optimal structure, preferring the leftmost
// matching case at every cell.
func traceback(i, j int, dp, p [][]int, pairs *structure.PairSet) {
	if i >= j {
		return
	}
	dpIJ := dp[i][j]

	switch {
	case dpIJ == dp[i+1][j]:
		traceback(i+1, j, dp, p, pairs)
	case dpIJ == dp[i][j-1]:
		traceback(i, j-1, dp, p, pairs)
	case p[i][j] > 0 && dpIJ == dp[i+1][j-1]+p[i][j]:
		pairs.Insert(structure.NewPair(structure.NAIDX(i), structure.NAIDX(j)))
		traceback(i+1, j-1, dp, p, pairs)
	default:
		for k := i + 1; k < j; k++ {
			if dpIJ == dp[i][k]+dp[k+1][j] {
				traceback(i, k, dp, p, pairs)
				traceback(k+1, j, dp, p, pairs)
				break
			}
		}
	}
}

// tracebackAll enumerates every optimal pair-set on [i, j]. The memo
// table is keyed by the packed (i, j) pair key; naive recursion is
// exponential. Each solution is canonicalised to a sorted vector of
// packed keys so that structurally equal tracebacks collapse.
func tracebackAll(i, j int, dp, p [][]int, memo map[structure.PairKey][][]structure.PairKey) [][]structure.PairKey {
	if i >= j {
		return [][]structure.PairKey{{}}
	}

	cellKey := structure.NewPair(structure.NAIDX(i), structure.NAIDX(j)).Key()
	if cached, ok := memo[cellKey]; ok {
		return cloneSolutions(cached)
	}

	dpIJ := dp[i][j]
	seen := make(map[string]struct{})
	var results [][]structure.PairKey
	add := func(sol []structure.PairKey) {
		canon := canonicalKey(sol)
		if _, ok := seen[canon]; ok {
			return
		}
		seen[canon] = struct{}{}
		results = append(results, sol)
	}

	// Case 1: i unpaired
	if dpIJ == dp[i+1][j] {
		for _, sub := range tracebackAll(i+1, j, dp, p, memo) {
			add(sub)
		}
		// Case 2: j unpaired
	} else if dpIJ == dp[i][j-1] {
		for _, sub := range tracebackAll(i, j-1, dp, p, memo) {
			add(sub)
		}
	}

	// Case 3: i-j paired
	if p[i][j] > 0 && dpIJ == dp[i+1][j-1]+p[i][j] {
		for _, sub := range tracebackAll(i+1, j-1, dp, p, memo) {
			sol := make([]structure.PairKey, 0, len(sub)+1)
			sol = append(sol, sub...)
			sol = append(sol, structure.NewPair(structure.NAIDX(i), structure.NAIDX(j)).Key())
			slices.Sort(sol)
			add(sol)
		}
	}

	// Case 4: bifurcation
	for k := i + 1; k < j; k++ {
		if dpIJ == dp[i][k]+dp[k+1][j] {
			lefts := tracebackAll(i, k, dp, p, memo)
			rights := tracebackAll(k+1, j, dp, p, memo)
			for _, left := range lefts {
				for _, right := range rights {
					combined := make([]structure.PairKey, 0, len(left)+len(right))
					combined = append(combined, left...)
					combined = append(combined, right...)
					slices.Sort(combined)
					add(combined)
				}
			}
		}
	}

	memo[cellKey] = results
	return cloneSolutions(results)
}

// cloneSolutions deep-copies memoised results so that callers can
// extend them without corrupting the cache.
func cloneSolutions(solutions [][]structure.PairKey) [][]structure.PairKey {
	cloned := make([][]structure.PairKey, len(solutions))
	for i, sol := range solutions {
		cloned[i] = append([]structure.PairKey(nil), sol...)
	}
	return cloned
}

// canonicalKey encodes a sorted key vector as a byte string for
// deduplication.
func canonicalKey(sol []structure.PairKey) string {
	buf := make([]byte, 4*len(sol))
	for i, key := range sol {
		binary.BigEndian.PutUint32(buf[4*i:], key)
	}
	return string(buf)
}
