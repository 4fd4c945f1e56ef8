package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairSetFromPairTable(t *testing.T) {
	pt, err := FromDotBracket("((..))")
	require.NoError(t, err)
	ps := PairSetFrom(pt)

	expected := []Pair{NewPair(0, 5), NewPair(1, 4)}
	assert.Equal(t, 6, ps.Length())
	assert.Equal(t, expected, ps.ToVec())

	for _, p := range expected {
		assert.True(t, ps.Contains(p))
	}
	assert.False(t, ps.Contains(NewPair(0, 4)))
}

func TestPairSetInsert(t *testing.T) {
	ps := NewPairSet(6)
	assert.True(t, ps.Insert(NewPair(0, 5)))
	assert.False(t, ps.Insert(NewPair(0, 5)), "second insert of the same pair")
	assert.Equal(t, 1, ps.Len())
	assert.False(t, ps.IsEmpty())

	assert.Panics(t, func() { ps.Insert(NewPair(1, 6)) }, "pair out of range")
}

func TestPairSetString(t *testing.T) {
	pt, err := FromDotBracket("((..))")
	require.NoError(t, err)
	ps := PairSetFrom(pt)
	assert.Equal(t, "(0,5),(1,4)", ps.String())
}

func TestPairListFromPairTable(t *testing.T) {
	pt, err := FromDotBracket("((..))")
	require.NoError(t, err)
	pl := PairListFrom(pt)

	assert.Equal(t, 6, pl.Length())
	assert.Equal(t, []Pair{NewPair(1, 6), NewPair(2, 5)}, pl.Pairs())
}
