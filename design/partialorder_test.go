package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

func extendAll(t *testing.T, po *PartialOrder, chain ...string) []bool {
	t.Helper()
	results := make([]bool, len(chain))
	for i, s := range chain {
		pt, err := structure.FromDotBracket(s)
		require.NoError(t, err)
		results[i] = po.ExtendByPairTable(pt)
	}
	return results
}

func level(t *testing.T, levels map[structure.PairKey]int, i, j structure.NAIDX) int {
	t.Helper()
	l, ok := levels[structure.NewPair(i, j).Key()]
	require.True(t, ok, "no level for (%d,%d)", i, j)
	return l
}

func TestNoPrecedence(t *testing.T) {
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "()", "().", "()()")
	assert.Equal(t, []bool{true, true, true, true}, results)

	assert.False(t, po.Constrained(structure.NewPair(0, 1)))
	assert.False(t, po.Constrained(structure.NewPair(2, 3)))

	levels := po.PairHierarchy()
	assert.Equal(t, 1, level(t, levels, 0, 1))
	assert.Equal(t, 1, level(t, levels, 2, 3))
}

func TestDuplicateLengthRejected(t *testing.T) {
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "()", "..")
	assert.Equal(t, []bool{true, true, false}, results)
}

func TestMissingPreviousLengthRejected(t *testing.T) {
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "()..")
	assert.Equal(t, []bool{true, false}, results)
}

func TestRejectionRecordsPrecedence(t *testing.T) {
	// The fourth structure would resurrect a move that was already
	// possible earlier; the chain is rejected, but the displacement
	// discovered during the history check is still recorded.
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "()", "().", "(.).")
	assert.Equal(t, []bool{true, true, true, false}, results)

	assert.True(t, po.Precedes(structure.NewPair(0, 2), structure.NewPair(0, 1)))
}

func TestRejectSimultaneousMigration(t *testing.T) {
	// Reaching (()). from ()() would require a simultaneous four-way
	// migration of pairing partners.
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "()", "().", "()()", "(()).")
	assert.Equal(t, []bool{true, true, true, true, false}, results)
}

func TestInsertWithoutDisplacementInHistoryRejected(t *testing.T) {
	// (0,1) could have inserted into ".." and "..." without
	// displacing anything, so forming it only now is inconsistent
	// with the recorded history.
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "..", "...", "()..")
	assert.Equal(t, []bool{true, true, true, false}, results)
}

func TestMultipleOrders(t *testing.T) {
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "()", "().", "()()")
	assert.Equal(t, []bool{true, true, true, true}, results)

	// (...) is rejected: (0,4) would displace (0,1), leaving (.()),
	// not (...).
	pt, err := structure.FromDotBracket("(...)")
	require.NoError(t, err)
	assert.False(t, po.ExtendByPairTable(pt))

	pt, err = structure.FromDotBracket("(.())")
	require.NoError(t, err)
	assert.True(t, po.ExtendByPairTable(pt))

	levels := po.PairHierarchy()
	assert.Equal(t, 1, level(t, levels, 0, 1))
	assert.Equal(t, 1, level(t, levels, 2, 3))
	assert.Equal(t, 2, level(t, levels, 0, 4))

	e1 := structure.NewPair(0, 1).Key()
	e2 := structure.NewPair(2, 3).Key()
	e3 := structure.NewPair(0, 4).Key()

	orders := po.AllTotalOrders()
	assert.Len(t, orders, 3)
	assert.Contains(t, orders, []structure.PairKey{e2, e1, e3})
	assert.Contains(t, orders, []structure.PairKey{e1, e3, e2})
	assert.Contains(t, orders, []structure.PairKey{e1, e2, e3})
	assert.NotContains(t, orders, []structure.PairKey{e2, e3, e1})
}

func TestPrecedencePropagation01(t *testing.T) {
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "()", "().", "()()", "(().)")
	assert.Equal(t, []bool{true, true, true, true, true}, results)

	levels := po.PairHierarchy()
	assert.Equal(t, 3, level(t, levels, 0, 1))
	assert.Equal(t, 1, level(t, levels, 2, 3))
	assert.Equal(t, 4, level(t, levels, 0, 4))
	assert.Equal(t, 2, level(t, levels, 1, 2))

	// Each direct dependency is recorded as its own edge.
	assert.True(t, po.Precedes(structure.NewPair(0, 1), structure.NewPair(0, 4)))
	assert.True(t, po.Precedes(structure.NewPair(2, 3), structure.NewPair(1, 2)))
	assert.True(t, po.Precedes(structure.NewPair(1, 2), structure.NewPair(0, 1)))

	orders := po.AllTotalOrders()
	require.Len(t, orders, 1)
	assert.Equal(t, []structure.PairKey{
		structure.NewPair(2, 3).Key(),
		structure.NewPair(1, 2).Key(),
		structure.NewPair(0, 1).Key(),
		structure.NewPair(0, 4).Key(),
	}, orders[0])
}

func TestPrecedencePropagation02(t *testing.T) {
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "()", "(.)", "(.).", "(.)()", "((..))")
	assert.Equal(t, []bool{true, true, true, true, true, true}, results)

	levels := po.PairHierarchy()
	assert.Equal(t, 1, level(t, levels, 0, 1))
	assert.Equal(t, 2, level(t, levels, 0, 2))
	assert.Equal(t, 3, level(t, levels, 0, 5))
	assert.Equal(t, 1, level(t, levels, 3, 4))
	assert.Equal(t, 2, level(t, levels, 1, 4))
}

func TestPrecedencePropagation04(t *testing.T) {
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "..", ".()", "..()", "(.())", "((()))")
	assert.Equal(t, []bool{true, true, true, true, true, true}, results)

	levels := po.PairHierarchy()
	assert.Equal(t, 1, level(t, levels, 1, 2))
	assert.Equal(t, 2, level(t, levels, 2, 3))
	assert.Equal(t, 2, level(t, levels, 0, 4))
	assert.Equal(t, 3, level(t, levels, 0, 5))
	assert.Equal(t, 1, level(t, levels, 1, 4))
}

func TestPrecedencePropagation05(t *testing.T) {
	po := NewPartialOrder()
	results := extendAll(t, po, ".", "()", "(.)", "()()", "()().", "()(())")
	assert.Equal(t, []bool{true, true, true, true, true, true}, results)

	levels := po.PairHierarchy()
	assert.Equal(t, 1, level(t, levels, 0, 1))
	assert.Equal(t, 2, level(t, levels, 0, 2))
	assert.Equal(t, 3, level(t, levels, 2, 3))
	assert.Equal(t, 1, level(t, levels, 3, 4))
	assert.Equal(t, 4, level(t, levels, 2, 5))
}

// Every linear extension of an accepted chain must rebuild the final
// structure from an all-unpaired table through valid single moves.
func TestTotalOrdersReconstructFinalStructure(t *testing.T) {
	po := NewPartialOrder()
	chain := []string{".", "()", "().", "()()"}
	results := extendAll(t, po, chain...)
	assert.Equal(t, []bool{true, true, true, true}, results)

	pt, err := structure.FromDotBracket("(.())")
	require.NoError(t, err)
	require.True(t, po.ExtendByPairTable(pt))

	final := pt

	orders := po.AllTotalOrders()
	require.Len(t, orders, 3)
	for _, order := range orders {
		replay := make(structure.PairTable, final.Len())
		for i := range replay {
			replay[i] = -1
		}
		for _, key := range order {
			pair := structure.PairFromKey(key)
			old, err := replay.TryMove(pair)
			require.NoError(t, err, "move %v must apply", pair)
			replay.ApplyMove(old, pair)
		}
		assert.Equal(t, final.String(), replay.String())
	}
}
