package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func canon(t *testing.T, s string) string {
	t.Helper()
	out, err := Canonicalize(s)
	require.NoError(t, err, s)
	return out
}

func TestCanonicalSMILES_OrderIndependent(t *testing.T) {
	for _, s := range []string{"OCC", "C(O)C", "CCO"} {
		assert.Equal(t, "CCO", canon(t, s), s)
	}
}

func TestCanonicalSMILES_SameMoleculeDifferentSpelling(t *testing.T) {
	groups := [][]string{
		{"FC1(F)CC(C(O)=O)C1", "OC(=O)C1CC(F)(F)C1", "C1C(F)(F)CC1C(=O)O"},
		{"c1ccccc1O", "Oc1ccccc1", "c1cc(O)ccc1"},
		{"CC(=O)[O-].[Na+]", "[Na+].[O-]C(C)=O"},
		{"C[C@H](F)Cl", "C[C@@H](Cl)F", "F[C@@H](C)Cl"},
		{"C1CCC2CCCCC2C1", "C1CCCC2CCCCC12"},
		{"c1ccc2ccccc2c1", "c1cccc2ccccc12"},
		{"Cc1ccccc1", "c1ccc(C)cc1"},
		{"c1ccncc1", "n1ccccc1"},
	}
	for _, g := range groups {
		want := canon(t, g[0])
		for _, s := range g[1:] {
			assert.Equal(t, want, canon(t, s), "%s vs %s", g[0], s)
		}
	}
}

func TestCanonicalSMILES_Idempotent(t *testing.T) {
	inputs := []string{
		"FC1(F)CC(C(O)=O)C1",
		"c1ccc2ccccc2c1",
		"C[C@H](N)C(=O)O",
		"N[C@@H](Cc1ccccc1)C(=O)O",
		"CC(=O)[O-].[Na+]",
		"[nH]1cccc1",
		"c1ccccc1-c1ccccc1",
		"C#N",
		"O=S(=O)(O)O",
		"C1CC2CCC1CC2",
		"[13CH3]C",
		"C/C=C/C",
		"C1CCCCCCCCC1",
		"C12C3C4C1C5C2C3C45",
		"C[C@H](O)[C@@H](C)O",
	}
	for _, s := range inputs {
		t.Run(s, func(t *testing.T) {
			first := canon(t, s)
			require.NotEmpty(t, first)
			assert.Equal(t, first, canon(t, first))
		})
	}
}

func TestCanonicalSMILES_KnownForms(t *testing.T) {
	tests := map[string]string{
		"C":                 "C",
		"[CH4]":             "C",
		"[H]C([H])([H])[H]": "C",
		"c1ccccc1":          "c1ccccc1",
		"C1CCCCC1":          "C1CCCCC1",
		"[NH4+]":            "[NH4+]",
		"C[C@H](C)F":        "CC(C)F",
	}
	for in, want := range tests {
		assert.Equal(t, want, canon(t, in), in)
	}
}

func TestCanonicalSMILES_ChiralityPreserved(t *testing.T) {
	r := canon(t, "C[C@H](F)Cl")
	s := canon(t, "C[C@@H](F)Cl")
	assert.NotEqual(t, r, s)
	assert.Contains(t, r, "@")
	assert.Contains(t, s, "@")
}

func TestCanonicalSMILES_DropsDoubleBondDirection(t *testing.T) {
	assert.Equal(t, canon(t, "CC=CC"), canon(t, "C/C=C\\C"))
}

func TestCanonicalSMILES_Empty(t *testing.T) {
	assert.Equal(t, "", CanonicalSMILES(&Molecule{}))
	assert.Equal(t, "", CanonicalSMILES(nil))
}

func TestPermutationParity(t *testing.T) {
	assert.False(t, permutationParity([]int{1, 2, 3}, []int{1, 2, 3}))
	assert.True(t, permutationParity([]int{1, 2, 3}, []int{2, 1, 3}))
	assert.False(t, permutationParity([]int{1, 2, 3}, []int{2, 3, 1}))
	assert.True(t, permutationParity([]int{-1, 4, 5, 6}, []int{4, -1, 5, 6}))
}

func TestDenseRank(t *testing.T) {
	ranks, n := denseRank([][]int{{2, 1}, {1}, {2, 1}, {1, 5}})
	assert.Equal(t, 3, n)
	assert.Equal(t, []int{2, 0, 2, 1}, ranks)
}
