package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bad-ants-fleet/fuzzyfold/structure"
)

func TestCountStructuresMotzkin(t *testing.T) {
	// Nested structures over "()." are counted by the Motzkin numbers.
	assert.Equal(t, []int{1, 2, 4, 9, 21, 51, 127, 323, 835, 2188}, CountStructures(10))
}

func TestGenerateStructuresMatchesCounts(t *testing.T) {
	counts := CountStructures(7)
	for n := 1; n <= 7; n++ {
		structs := GenerateStructures(n)
		assert.Len(t, structs, counts[n-1], "length %d", n)

		seen := make(map[string]struct{})
		for _, s := range structs {
			_, dup := seen[s]
			assert.False(t, dup, "duplicate structure %q", s)
			seen[s] = struct{}{}
			_, err := structure.FromDotBracket(s)
			assert.NoError(t, err, s)
			assert.Len(t, s, n)
		}
	}
}

func TestAcfpValidate(t *testing.T) {
	acfp, err := AcfpFromString(".")
	require.NoError(t, err)

	for _, s := range []string{"()", "().", "()()"} {
		pt, err := structure.FromDotBracket(s)
		require.NoError(t, err)
		acfp.ExtendByOne(pt)
	}
	assert.Equal(t, 4, acfp.Len())

	po, ok := acfp.Validate()
	require.True(t, ok)
	assert.Len(t, po.AllTotalOrders(), 2)
}

func TestAcfpValidateRejects(t *testing.T) {
	acfp, err := AcfpFromString(".")
	require.NoError(t, err)
	for _, s := range []string{"()", "().", "(.)."} {
		pt, err := structure.FromDotBracket(s)
		require.NoError(t, err)
		acfp.ExtendByOne(pt)
	}
	_, ok := acfp.Validate()
	assert.False(t, ok)
}

func TestAcfpCloneIsIndependent(t *testing.T) {
	acfp, err := AcfpFromString(".")
	require.NoError(t, err)
	clone := acfp.Clone()

	pt, err := structure.FromDotBracket("()")
	require.NoError(t, err)
	clone.ExtendByOne(pt)

	assert.Equal(t, 1, acfp.Len())
	assert.Equal(t, 2, clone.Len())
}
