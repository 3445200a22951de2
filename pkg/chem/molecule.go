// Package chem is a small, dependency-light chemistry toolkit covering what the
// studio needs from a cheminformatics library: SMILES parsing and canonical
// writing, MDL molfile and SDF reading, and basic descriptors.
//
// The model is a hydrogen-suppressed graph.  Hydrogens live in Atom.HCount
// unless they carry information of their own (isotopes, charges, H2).
package chem

import (
	"fmt"
	"sort"

	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// BondOrder is the multiplicity of a bond.
type BondOrder int

const (
	BondSingle    BondOrder = 1
	BondDouble    BondOrder = 2
	BondTriple    BondOrder = 3
	BondQuadruple BondOrder = 4
	BondAromatic  BondOrder = 5
)

// valence returns the contribution of a non-aromatic bond to atom valence.
func (o BondOrder) valence() int {
	if o == BondAromatic {
		return 1
	}
	return int(o)
}

// Chirality is the tetrahedral parity of an atom, relative to the order its
// neighbours were written.
type Chirality int

const (
	ChiralityNone Chirality = iota
	// ChiralityCCW is SMILES "@".
	ChiralityCCW
	// ChiralityCW is SMILES "@@".
	ChiralityCW
)

func (c Chirality) invert() Chirality {
	switch c {
	case ChiralityCCW:
		return ChiralityCW
	case ChiralityCW:
		return ChiralityCCW
	}
	return c
}

// implicitH marks the implicit hydrogen position in a stereo neighbour list.
const implicitH = -1

// Atom is a heavy atom (or a hydrogen that must stay explicit).
type Atom struct {
	Number    int
	Aromatic  bool
	Isotope   int
	Charge    int
	HCount    int
	AtomClass int
	Chirality Chirality

	// stereo holds neighbour atom indices in the reference order for
	// Chirality; implicitH stands for the attached hydrogen.
	stereo []int
}

// Symbol returns the element symbol.
func (a Atom) Symbol() string { return Symbol(a.Number) }

// Bond connects atoms A and B.
type Bond struct {
	A, B  int
	Order BondOrder
}

// Other returns the endpoint opposite to atom i.
func (b Bond) Other(i int) int {
	if b.A == i {
		return b.B
	}
	return b.A
}

// Molecule is an undirected hydrogen-suppressed molecular graph.
type Molecule struct {
	Atoms []Atom
	Bonds []Bond

	adj [][]int // bond indices per atom
}

// NumAtoms returns the number of explicit atoms.
func (m *Molecule) NumAtoms() int {
	if m == nil {
		return 0
	}
	return len(m.Atoms)
}

// NumBonds returns the number of bonds between explicit atoms.
func (m *Molecule) NumBonds() int {
	if m == nil {
		return 0
	}
	return len(m.Bonds)
}

// NumHeavyAtoms counts atoms that are not hydrogen.
func (m *Molecule) NumHeavyAtoms() int {
	if m == nil {
		return 0
	}
	n := 0
	for _, a := range m.Atoms {
		if a.Number != 1 {
			n++
		}
	}
	return n
}

// Neighbors returns the atoms bonded to atom i.
func (m *Molecule) Neighbors(i int) []int {
	out := make([]int, 0, len(m.adj[i]))
	for _, bi := range m.adj[i] {
		out = append(out, m.Bonds[bi].Other(i))
	}
	return out
}

// Degree returns the number of explicit neighbours of atom i.
func (m *Molecule) Degree(i int) int { return len(m.adj[i]) }

func (m *Molecule) addAtom(a Atom) int {
	m.Atoms = append(m.Atoms, a)
	m.adj = append(m.adj, nil)
	return len(m.Atoms) - 1
}

// bondBetween returns the bond index joining a and b, or -1.
func (m *Molecule) bondBetween(a, b int) int {
	for _, bi := range m.adj[a] {
		if m.Bonds[bi].Other(a) == b {
			return bi
		}
	}
	return -1
}

func (m *Molecule) addBond(a, b int, order BondOrder) error {
	if a == b {
		return apperrors.New(apperrors.ErrCodeMoleculeParsingFailed, "atom bonded to itself").
			WithDetail(fmt.Sprintf("atom %d", a+1))
	}
	if m.bondBetween(a, b) >= 0 {
		return apperrors.New(apperrors.ErrCodeMoleculeParsingFailed, "duplicate bond").
			WithDetail(fmt.Sprintf("atoms %d and %d", a+1, b+1))
	}
	m.Bonds = append(m.Bonds, Bond{A: a, B: b, Order: order})
	bi := len(m.Bonds) - 1
	m.adj[a] = append(m.adj[a], bi)
	m.adj[b] = append(m.adj[b], bi)
	return nil
}

func (m *Molecule) rebuildAdjacency() {
	m.adj = make([][]int, len(m.Atoms))
	for bi, b := range m.Bonds {
		m.adj[b.A] = append(m.adj[b.A], bi)
		m.adj[b.B] = append(m.adj[b.B], bi)
	}
}

// Clone returns a deep copy.
func (m *Molecule) Clone() *Molecule {
	c := &Molecule{
		Atoms: make([]Atom, len(m.Atoms)),
		Bonds: append([]Bond(nil), m.Bonds...),
	}
	for i, a := range m.Atoms {
		a.stereo = append([]int(nil), a.stereo...)
		c.Atoms[i] = a
	}
	c.rebuildAdjacency()
	return c
}

// ─────────────────────────────────────────────────────────────────────────────
// Valence model
// ─────────────────────────────────────────────────────────────────────────────

// bondSum returns the explicit valence of atom i from its bonds.  Aromatic
// bonds count n+1 when there are two or more of them.
func (m *Molecule) bondSum(i int) int {
	sum, arom := 0, 0
	for _, bi := range m.adj[i] {
		o := m.Bonds[bi].Order
		if o == BondAromatic {
			arom++
			continue
		}
		sum += o.valence()
	}
	switch {
	case arom >= 2:
		sum += arom + 1
	case arom == 1:
		sum++
	}
	return sum
}

// defaultHCount returns the implicit hydrogen count the atom would receive if
// written without brackets, and whether its bonding is within an allowed
// valence at all.
func (m *Molecule) defaultHCount(i int) (int, bool) {
	a := m.Atoms[i]
	vals := allowedValences(a.Number, a.Charge)
	if len(vals) == 0 {
		return 0, true
	}
	sum := m.bondSum(i)
	if a.Aromatic {
		h := vals[0] - sum
		if h < 0 {
			h = 0
		}
		return h, true
	}
	for _, v := range vals {
		if v >= sum {
			return v - sum, true
		}
	}
	return 0, false
}

// checkValence rejects atoms whose total valence is above every allowed one.
// Aromatic atoms are exempt: their electron count is resolved by
// kekulization, which the toolkit does not perform.
func (m *Molecule) checkValence(i int) error {
	a := m.Atoms[i]
	if a.Aromatic {
		return nil
	}
	vals := allowedValences(a.Number, a.Charge)
	if len(vals) == 0 {
		return nil
	}
	total := m.bondSum(i) + a.HCount
	if total > vals[len(vals)-1] {
		return apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, "explicit valence greater than permitted").
			WithDetail(fmt.Sprintf("atom %d %s, valence %d", i+1, a.Symbol(), total))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Ring perception
// ─────────────────────────────────────────────────────────────────────────────

// ringBonds marks every bond that lies on a cycle (i.e. is not a bridge).
func (m *Molecule) ringBonds() []bool {
	n := len(m.Atoms)
	inRing := make([]bool, len(m.Bonds))
	disc := make([]int, n)
	low := make([]int, n)
	for i := range disc {
		disc[i] = -1
	}
	timer := 0

	type frame struct {
		atom, parentBond, next int
	}
	for root := 0; root < n; root++ {
		if disc[root] >= 0 {
			continue
		}
		stack := []frame{{atom: root, parentBond: -1}}
		disc[root], low[root] = timer, timer
		timer++
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next < len(m.adj[top.atom]) {
				bi := m.adj[top.atom][top.next]
				top.next++
				if bi == top.parentBond {
					continue
				}
				nb := m.Bonds[bi].Other(top.atom)
				if disc[nb] < 0 {
					disc[nb], low[nb] = timer, timer
					timer++
					stack = append(stack, frame{atom: nb, parentBond: bi})
				} else {
					// a non-tree edge always closes a cycle
					inRing[bi] = true
					if disc[nb] < low[top.atom] {
						low[top.atom] = disc[nb]
					}
				}
				continue
			}
			done := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				parent := stack[len(stack)-1].atom
				if low[done.atom] < low[parent] {
					low[parent] = low[done.atom]
				}
				if low[done.atom] <= disc[parent] {
					inRing[done.parentBond] = true
				}
			}
		}
	}
	return inRing
}

// ─────────────────────────────────────────────────────────────────────────────
// Post-parse normalization
// ─────────────────────────────────────────────────────────────────────────────

// finish validates a freshly built molecule, folds plain hydrogens into their
// neighbours and drops stereo marks that carry no information.
func (m *Molecule) finish() error {
	inRing := m.ringBonds()
	for bi, b := range m.Bonds {
		if b.Order == BondAromatic && !inRing[bi] {
			m.Bonds[bi].Order = BondSingle
		}
	}
	for i, a := range m.Atoms {
		if !a.Aromatic {
			continue
		}
		ring := false
		for _, bi := range m.adj[i] {
			if inRing[bi] && m.Bonds[bi].Order == BondAromatic {
				ring = true
				break
			}
		}
		if !ring {
			return apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, "non-ring atom marked aromatic").
				WithDetail(fmt.Sprintf("atom %d %s", i+1, a.Symbol()))
		}
	}
	for i := range m.Atoms {
		if err := m.checkValence(i); err != nil {
			return err
		}
	}
	m.removeHydrogens()
	for i := range m.Atoms {
		m.pruneStereo(i)
	}
	return nil
}

// removeHydrogens deletes hydrogens that only restate a hydrogen count: no
// isotope, no charge, exactly one heavy-atom neighbour.
func (m *Molecule) removeHydrogens() {
	drop := make([]bool, len(m.Atoms))
	found := false
	for i, a := range m.Atoms {
		if a.Number != 1 || a.Isotope != 0 || a.Charge != 0 || a.HCount != 0 || len(m.adj[i]) != 1 {
			continue
		}
		b := m.Bonds[m.adj[i][0]]
		nb := b.Other(i)
		if b.Order != BondSingle || m.Atoms[nb].Number == 1 {
			continue
		}
		drop[i] = true
		found = true
		m.Atoms[nb].HCount++
	}
	if !found {
		return
	}

	remap := make([]int, len(m.Atoms))
	atoms := m.Atoms[:0]
	for i, a := range m.Atoms {
		if drop[i] {
			remap[i] = implicitH
			continue
		}
		remap[i] = len(atoms)
		atoms = append(atoms, a)
	}
	bonds := m.Bonds[:0]
	for _, b := range m.Bonds {
		if drop[b.A] || drop[b.B] {
			continue
		}
		bonds = append(bonds, Bond{A: remap[b.A], B: remap[b.B], Order: b.Order})
	}
	m.Atoms, m.Bonds = atoms, bonds
	for i := range m.Atoms {
		for k, nb := range m.Atoms[i].stereo {
			if nb >= 0 {
				m.Atoms[i].stereo[k] = remap[nb]
			}
		}
	}
	m.rebuildAdjacency()
}

// pruneStereo clears a chirality mark that cannot describe a tetrahedral
// centre: fewer than three ligands, more than four, or more than one hydrogen.
func (m *Molecule) pruneStereo(i int) {
	a := &m.Atoms[i]
	if a.Chirality == ChiralityNone {
		a.stereo = nil
		return
	}
	hs := 0
	for _, nb := range a.stereo {
		if nb == implicitH {
			hs++
		}
	}
	ligands := len(m.adj[i]) + a.HCount
	if hs > 1 || a.HCount > 1 || ligands < 3 || ligands > 4 || len(a.stereo) != ligands {
		a.Chirality = ChiralityNone
		a.stereo = nil
	}
}

// permutationParity returns true when to is an odd permutation of from.  Both
// slices must hold the same distinct elements.
func permutationParity(from, to []int) bool {
	pos := make(map[int]int, len(from))
	for i, v := range from {
		pos[v] = i
	}
	perm := make([]int, len(to))
	for i, v := range to {
		perm[i] = pos[v]
	}
	odd := false
	for i := 0; i < len(perm); i++ {
		for j := i + 1; j < len(perm); j++ {
			if perm[i] > perm[j] {
				odd = !odd
			}
		}
	}
	return odd
}

// sameMembers reports whether a and b are permutations of each other.
func sameMembers(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]int(nil), a...)
	y := append([]int(nil), b...)
	sort.Ints(x)
	sort.Ints(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
