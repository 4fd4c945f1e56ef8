package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

func TestConstantModel(t *testing.T) {
	m := NewConstant()
	assert.Equal(t, DefaultTemperature, m.Temperature())
	assert.Equal(t, 0, m.MinHairpin())
	assert.True(t, m.CanPair('A', 'A'))

	pt, err := structure.FromDotBracket("((..))")
	require.NoError(t, err)
	assert.Equal(t, 0, m.LoopEnergy("GGAACC", pt, 0))
	assert.Equal(t, 0, m.LoopEnergy("GGAACC", pt, -1))
}

func TestStackPairsCanPair(t *testing.T) {
	m := NewStackPairs(37.0)
	assert.True(t, m.CanPair('A', 'U'))
	assert.True(t, m.CanPair('U', 'A'))
	assert.True(t, m.CanPair('A', 'T'))
	assert.True(t, m.CanPair('G', 'C'))
	assert.True(t, m.CanPair('G', 'U'))
	assert.False(t, m.CanPair('A', 'G'))
	assert.False(t, m.CanPair('C', 'U'))
	assert.False(t, m.CanPair('A', 'A'))
}

func TestStackPairsLoopEnergy(t *testing.T) {
	m := NewStackPairs(37.0)
	pt, err := structure.FromDotBracket("((..))")
	require.NoError(t, err)

	assert.Equal(t, 0, m.LoopEnergy("GGAACC", pt, -1))
	assert.Equal(t, -100, m.LoopEnergy("GGAACC", pt, 0))
	assert.Equal(t, -100, m.LoopEnergy("GGAACC", pt, 1))
}
