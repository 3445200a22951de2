package chem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

func TestParseSMILES_Empty(t *testing.T) {
	m, err := ParseSMILES("")
	require.NoError(t, err)
	assert.Equal(t, 0, m.NumAtoms())
}

func TestParseSMILES_Counts(t *testing.T) {
	tests := []struct {
		smiles string
		atoms  int
		bonds  int
	}{
		{"C", 1, 0},
		{"CCO", 3, 2},
		{"c1ccccc1", 6, 6},
		{"FC1(F)CC(C(O)=O)C1", 9, 9},
		{"CC(=O)[O-].[Na+]", 5, 3},
		{"[H]C([H])([H])[H]", 1, 0},
		{"[2H]C", 2, 1},
		{"[H][H]", 2, 1},
		{"C%10CC%10", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			m, err := ParseSMILES(tt.smiles)
			require.NoError(t, err)
			assert.Equal(t, tt.atoms, m.NumAtoms())
			assert.Equal(t, tt.bonds, m.NumBonds())
		})
	}
}

func TestParseSMILES_ImplicitHydrogens(t *testing.T) {
	m := MustParseSMILES("CC(=O)O")
	assert.Equal(t, 3, m.Atoms[0].HCount)
	assert.Equal(t, 0, m.Atoms[1].HCount)
	assert.Equal(t, 0, m.Atoms[2].HCount)
	assert.Equal(t, 1, m.Atoms[3].HCount)

	benzene := MustParseSMILES("c1ccccc1")
	for _, a := range benzene.Atoms {
		assert.True(t, a.Aromatic)
		assert.Equal(t, 1, a.HCount)
	}

	pyridine := MustParseSMILES("n1ccccc1")
	assert.Equal(t, 0, pyridine.Atoms[0].HCount)

	sulfate := MustParseSMILES("OS(=O)(=O)O")
	assert.Equal(t, 0, sulfate.Atoms[1].HCount)
}

func TestParseSMILES_ExplicitHydrogensFolded(t *testing.T) {
	m := MustParseSMILES("[H]C([H])([H])[H]")
	require.Equal(t, 1, m.NumAtoms())
	assert.Equal(t, 6, m.Atoms[0].Number)
	assert.Equal(t, 4, m.Atoms[0].HCount)
}

func TestParseSMILES_BracketAtom(t *testing.T) {
	m := MustParseSMILES("[13CH3:7][NH3+]")
	require.Equal(t, 2, m.NumAtoms())
	c := m.Atoms[0]
	assert.Equal(t, 13, c.Isotope)
	assert.Equal(t, 3, c.HCount)
	assert.Equal(t, 7, c.AtomClass)
	n := m.Atoms[1]
	assert.Equal(t, 1, n.Charge)
	assert.Equal(t, 3, n.HCount)

	fe := MustParseSMILES("[Fe+3]")
	assert.Equal(t, 3, fe.Atoms[0].Charge)
	o := MustParseSMILES("[O--]")
	assert.Equal(t, -2, o.Atoms[0].Charge)
}

func TestParseSMILES_NameIgnored(t *testing.T) {
	m, err := ParseSMILES("  CCO ethanol  ")
	require.NoError(t, err)
	assert.Equal(t, 3, m.NumAtoms())
}

func TestParseSMILES_Rejects(t *testing.T) {
	bad := []string{
		"not a molecule",
		"C1CC",
		"C(C",
		"C)C",
		"C=",
		"C()C",
		"[Xx]",
		"[C",
		"CC(C)(C)(C)C",
		"C(=O)(=O)=O",
		"cc",
		"C11",
		"C1C1",
		"C=1CCC#1",
		".C",
		"C..C",
		"Q",
		"[NH4]",
	}
	for _, s := range bad {
		t.Run(s, func(t *testing.T) {
			_, err := ParseSMILES(s)
			assert.Error(t, err)
			code := apperrors.GetCode(err)
			assert.Contains(t, []apperrors.ErrorCode{
				apperrors.ErrCodeMoleculeParsingFailed,
				apperrors.ErrCodeMoleculeInvalidSMILES,
			}, code)
		})
	}
}

func TestParseSMILES_NonRingAromaticBondBecomesSingle(t *testing.T) {
	m := MustParseSMILES("c1ccccc1c1ccccc1")
	bi := m.bondBetween(5, 6)
	require.GreaterOrEqual(t, bi, 0)
	assert.Equal(t, BondSingle, m.Bonds[bi].Order)
}

func TestRingBonds(t *testing.T) {
	tests := []struct {
		smiles string
		bonds  int
		inRing int
	}{
		{"CCO", 2, 0},
		{"C1CCCCC1", 6, 6},
		{"c1ccccc1", 6, 6},
		{"Cc1ccccc1", 7, 6},
		{"OC(=O)c1ccccc1", 9, 6},
		{"c1ccccc1-c1ccccc1", 13, 12},
		{"c1ccc2ccccc2c1", 11, 11},
		{"C1CCC2CCCCC2C1", 11, 11},
		{"C1CC2CCC1CC2", 9, 9},
	}
	for _, tt := range tests {
		t.Run(tt.smiles, func(t *testing.T) {
			m := MustParseSMILES(tt.smiles)
			require.Len(t, m.Bonds, tt.bonds)
			n := 0
			for _, r := range m.ringBonds() {
				if r {
					n++
				}
			}
			assert.Equal(t, tt.inRing, n)
		})
	}
}

func TestParseSMILES_AromaticRingKeepsAromaticBonds(t *testing.T) {
	for _, s := range []string{"c1ccccc1", "c1ccncc1", "c1ccc2ccccc2c1"} {
		m := MustParseSMILES(s)
		for bi, b := range m.Bonds {
			assert.Equal(t, BondAromatic, b.Order, "%s bond %d", s, bi)
		}
	}
}

func TestMustParseSMILES_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseSMILES("C1CC") })
}
