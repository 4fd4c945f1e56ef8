package kinetics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bad-ants-fleet/fuzzyfold/energy"
	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

func mustLoopStructure(t *testing.T, seq, db string, model energy.EnergyModel) *LoopStructure {
	t.Helper()
	pt, err := structure.FromDotBracket(db)
	require.NoError(t, err)
	ls, err := LoopStructureFrom(seq, pt, model)
	require.NoError(t, err)
	return ls
}

func TestLoopStructureLengthMismatch(t *testing.T) {
	pt, err := structure.FromDotBracket("()")
	require.NoError(t, err)
	_, err = LoopStructureFrom("ACGU", pt, energy.NewConstant())
	require.Error(t, err)
}

func TestLoopStructureNeighbors(t *testing.T) {
	ls := mustLoopStructure(t, "GGAACC", "((..))", energy.NewConstant())
	assert.Equal(t, "((..))", ls.String())

	// The only add move joins the two unpaired positions of the
	// innermost loop.
	var adds []Neighbor
	for _, nbs := range ls.LoopNeighbors() {
		adds = append(adds, nbs...)
	}
	require.Len(t, adds, 1)
	assert.Equal(t, Neighbor{I: 2, J: 3, DeltaE: 0}, adds[0])

	dels := ls.DelNeighbors()
	require.Len(t, dels, 2)
	assert.Equal(t, Neighbor{I: 0, J: 5, DeltaE: 0}, dels[0])
	assert.Equal(t, Neighbor{I: 1, J: 4, DeltaE: 0}, dels[1])
}

func TestLoopStructureLookup(t *testing.T) {
	ls := mustLoopStructure(t, "GGAACC", "((..))", energy.NewConstant())
	lookup := ls.LoopLookup()

	// Opening indices map to outer loops, closing indices to inner
	// loops: deleting (0,5) merges lookup[0] with lookup[5].
	assert.Equal(t, lookup[5], lookup[1], "inner of (0,5) encloses the pair (1,4)")
	assert.NotEqual(t, lookup[0], lookup[5])
	assert.NotEqual(t, lookup[1], lookup[4])
}

func TestApplyAddMoveSplitsLoop(t *testing.T) {
	ls := mustLoopStructure(t, "GGAACC", "((..))", energy.NewConstant())
	outer, inner, pairChanges := ls.ApplyAddMove(2, 3)

	assert.Equal(t, "((()))", ls.String())
	assert.NotEqual(t, outer.Loop, inner.Loop)
	assert.Empty(t, outer.Neighbors)
	assert.Empty(t, inner.Neighbors)

	// The new pair and the enclosing pair see fresh delete moves; the
	// outermost pair is not adjacent to a changed loop.
	require.Len(t, pairChanges, 2)
	assert.Equal(t, 1, pairChanges[0].I)
	assert.Equal(t, 2, pairChanges[1].I)
}

func TestApplyDelMoveMergesLoops(t *testing.T) {
	ls := mustLoopStructure(t, "GGAACC", "((..))", energy.NewConstant())
	merged, pairChanges := ls.ApplyDelMove(1, 4)

	assert.Equal(t, "(....)", ls.String())
	// The merged loop owns the four unpaired positions; every pair of
	// them is an admissible add move under the Constant model.
	assert.Len(t, merged.Neighbors, 6)

	// The closing pair of the merged loop gets a refreshed delete move.
	require.Len(t, pairChanges, 1)
	assert.Equal(t, 0, pairChanges[0].I)
	assert.Equal(t, 5, pairChanges[0].J)
}

func TestLoopIDsAreStable(t *testing.T) {
	ls := mustLoopStructure(t, "GGAACC", "((..))", energy.NewConstant())

	before := make(map[int]struct{})
	for id := range ls.LoopNeighbors() {
		before[id] = struct{}{}
	}

	outer, inner, _ := ls.ApplyAddMove(2, 3)
	_, wasLive := before[outer.Loop]
	assert.False(t, wasLive, "split must allocate a fresh outer id")
	_, wasLive = before[inner.Loop]
	assert.False(t, wasLive, "split must allocate a fresh inner id")

	merged, _ := ls.ApplyDelMove(2, 3)
	assert.NotEqual(t, outer.Loop, merged.Loop)
	assert.NotEqual(t, inner.Loop, merged.Loop)
	assert.Equal(t, "((..))", ls.String())
}

func TestStackPairsDeltaE(t *testing.T) {
	// Under the StackPairs toy model every pair is worth -100
	// dcal/mol, so deletions cost +100 and admissible additions gain
	// -100.
	ls := mustLoopStructure(t, "GGGAAACCC", "(((...)))", energy.NewStackPairs(37.0))

	dels := ls.DelNeighbors()
	require.Len(t, dels, 3)
	for _, d := range dels {
		assert.Equal(t, 100, d.DeltaE)
	}

	// The hairpin loop spans only three unpaired bases; the minimum
	// hairpin size admits no further pair.
	for _, nbs := range ls.LoopNeighbors() {
		assert.Empty(t, nbs)
	}

	assert.Equal(t, -300, ls.Energy())
}

func TestStackPairsAddDeltaE(t *testing.T) {
	ls := mustLoopStructure(t, "GAAAAC", "......", energy.NewStackPairs(37.0))
	var adds []Neighbor
	for _, nbs := range ls.LoopNeighbors() {
		adds = append(adds, nbs...)
	}
	// Only G(0) and C(5) can pair, and they span the minimum hairpin.
	require.Len(t, adds, 1)
	assert.Equal(t, Neighbor{I: 0, J: 5, DeltaE: -100}, adds[0])
}
