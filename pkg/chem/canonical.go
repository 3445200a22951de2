package chem

import (
	"sort"
	"strconv"
	"strings"
)

// maxCanonicalPasses bounds the write/reparse loop in CanonicalSMILES.
const maxCanonicalPasses = 16

// CanonicalSMILES writes a canonical SMILES for m.  Equivalent inputs (same
// graph, different atom order) produce the same string, and the result is a
// fixed point: parsing it and canonicalizing again returns it unchanged.
//
// Double-bond geometry is not represented and is therefore never written.
func CanonicalSMILES(m *Molecule) string {
	if m.NumAtoms() == 0 {
		return ""
	}
	seq := []string{writeCanonical(m)}
	index := map[string]int{seq[0]: 0}
	for pass := 0; pass < maxCanonicalPasses; pass++ {
		next, err := ParseSMILES(seq[len(seq)-1])
		if err != nil {
			return seq[0]
		}
		t := writeCanonical(next)
		if at, ok := index[t]; ok {
			// Symmetric stereo can make the writer alternate between
			// equivalent spellings; pick the smallest member of the cycle.
			best := seq[at]
			for _, s := range seq[at+1:] {
				if s < best {
					best = s
				}
			}
			return best
		}
		index[t] = len(seq)
		seq = append(seq, t)
	}
	return seq[len(seq)-1]
}

// Canonicalize parses s and returns its canonical form.
func Canonicalize(s string) (string, error) {
	m, err := ParseSMILES(s)
	if err != nil {
		return "", err
	}
	return CanonicalSMILES(m), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Ranking
// ─────────────────────────────────────────────────────────────────────────────

// denseRank assigns 0-based ranks to keys so equal keys share a rank and the
// rank order follows the lexicographic key order.
func denseRank(keys [][]int) ([]int, int) {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return compareKeys(keys[idx[a]], keys[idx[b]]) < 0 })
	ranks := make([]int, len(keys))
	r := 0
	for i, atom := range idx {
		if i > 0 && compareKeys(keys[idx[i-1]], keys[atom]) != 0 {
			r++
		}
		ranks[atom] = r
	}
	if len(keys) == 0 {
		return ranks, 0
	}
	return ranks, r + 1
}

func compareKeys(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

func (m *Molecule) initialInvariants() [][]int {
	inRing := m.ringBonds()
	keys := make([][]int, len(m.Atoms))
	for i, a := range m.Atoms {
		ringDeg := 0
		for _, bi := range m.adj[i] {
			if inRing[bi] {
				ringDeg++
			}
		}
		arom := 0
		if a.Aromatic {
			arom = 1
		}
		keys[i] = []int{len(m.adj[i]), a.Number, a.Isotope, a.Charge, a.HCount, arom, ringDeg, a.AtomClass}
	}
	return keys
}

// refine iterates neighbourhood refinement until the class count is stable.
func (m *Molecule) refine(classes []int, count int) ([]int, int) {
	for {
		keys := make([][]int, len(m.Atoms))
		for i := range m.Atoms {
			nbr := make([]int, 0, len(m.adj[i]))
			for _, bi := range m.adj[i] {
				b := m.Bonds[bi]
				nbr = append(nbr, classes[b.Other(i)]*8+int(b.Order))
			}
			sort.Ints(nbr)
			keys[i] = append([]int{classes[i]}, nbr...)
		}
		next, n := denseRank(keys)
		if n == count {
			return next, n
		}
		classes, count = next, n
	}
}

// canonicalRanks returns the symmetry classes after refinement and a total
// order derived from them by breaking ties.
func (m *Molecule) canonicalRanks() (symmetry, ranks []int) {
	classes, count := denseRank(m.initialInvariants())
	classes, count = m.refine(classes, count)
	symmetry = append([]int(nil), classes...)

	for count < len(m.Atoms) {
		size := make([]int, count)
		for _, c := range classes {
			size[c]++
		}
		tied := -1
		for c, n := range size {
			if n > 1 {
				tied = c
				break
			}
		}
		chosen := -1
		for i, c := range classes {
			if c == tied {
				chosen = i
				break
			}
		}
		keys := make([][]int, len(classes))
		for i, c := range classes {
			k := c * 2
			if c == tied && i != chosen {
				k++
			}
			keys[i] = []int{k}
		}
		classes, count = denseRank(keys)
		classes, count = m.refine(classes, count)
	}
	return symmetry, classes
}

// ─────────────────────────────────────────────────────────────────────────────
// Writer
// ─────────────────────────────────────────────────────────────────────────────

type closure struct {
	bond    int
	partner int
}

type smilesWriter struct {
	m        *Molecule
	rank     []int
	symmetry []int

	visited  []bool
	seq      []int // DFS visit position per atom
	children [][]int
	parent   []int // parent bond per atom, -1 for roots
	isRing   []bool
	opens    [][]closure
	closes   [][]closure

	digits  map[int]int // bond -> ring number
	inUse   map[int]bool
	counter int
	sb      strings.Builder
}

func writeCanonical(m *Molecule) string {
	symmetry, rank := m.canonicalRanks()
	n := len(m.Atoms)
	w := &smilesWriter{
		m:        m,
		rank:     rank,
		symmetry: symmetry,
		visited:  make([]bool, n),
		seq:      make([]int, n),
		children: make([][]int, n),
		parent:   make([]int, n),
		isRing:   make([]bool, len(m.Bonds)),
		opens:    make([][]closure, n),
		closes:   make([][]closure, n),
		digits:   make(map[int]int),
		inUse:    make(map[int]bool),
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return rank[order[a]] < rank[order[b]] })

	first := true
	for _, root := range order {
		if w.visited[root] {
			continue
		}
		w.build(root, -1)
		if !first {
			w.sb.WriteByte('.')
		}
		first = false
		w.emit(root)
	}
	return w.sb.String()
}

// sortedBonds returns atom i's bonds ordered by the rank of the far atom.
func (w *smilesWriter) sortedBonds(i int) []int {
	bonds := append([]int(nil), w.m.adj[i]...)
	sort.Slice(bonds, func(a, b int) bool {
		return w.rank[w.m.Bonds[bonds[a]].Other(i)] < w.rank[w.m.Bonds[bonds[b]].Other(i)]
	})
	return bonds
}

// build performs the spanning DFS and classifies ring-closure bonds.
func (w *smilesWriter) build(atom, parentBond int) {
	w.visited[atom] = true
	w.seq[atom] = w.counter
	w.counter++
	w.parent[atom] = parentBond
	for _, bi := range w.sortedBonds(atom) {
		if bi == parentBond || w.isRing[bi] {
			continue
		}
		nb := w.m.Bonds[bi].Other(atom)
		if w.visited[nb] {
			w.isRing[bi] = true
			w.opens[nb] = append(w.opens[nb], closure{bond: bi, partner: atom})
			w.closes[atom] = append(w.closes[atom], closure{bond: bi, partner: nb})
			continue
		}
		w.children[atom] = append(w.children[atom], nb)
		w.build(nb, bi)
	}
}

func (w *smilesWriter) emit(atom int) {
	closes := append([]closure(nil), w.closes[atom]...)
	sort.Slice(closes, func(a, b int) bool { return w.seq[closes[a].partner] < w.seq[closes[b].partner] })
	opens := append([]closure(nil), w.opens[atom]...)
	sort.Slice(opens, func(a, b int) bool { return w.seq[opens[a].partner] < w.seq[opens[b].partner] })

	// Neighbour order as it will appear in the output, for stereo parity.
	var written []int
	if pb := w.parent[atom]; pb >= 0 {
		written = append(written, w.m.Bonds[pb].Other(atom))
	}
	a := w.m.Atoms[atom]
	if a.HCount == 1 {
		written = append(written, implicitH)
	}
	for _, c := range closes {
		written = append(written, c.partner)
	}
	for _, c := range opens {
		written = append(written, c.partner)
	}
	written = append(written, w.children[atom]...)

	w.sb.WriteString(w.atomToken(atom, written))

	var released []int
	for _, c := range closes {
		d := w.digits[c.bond]
		writeRingNumber(&w.sb, d)
		released = append(released, d)
	}
	for _, c := range opens {
		d := w.nextDigit()
		w.digits[c.bond] = d
		w.inUse[d] = true
		w.sb.WriteString(w.bondToken(c.bond))
		writeRingNumber(&w.sb, d)
	}
	for _, d := range released {
		delete(w.inUse, d)
	}

	for k, child := range w.children[atom] {
		bond := w.m.bondBetween(atom, child)
		last := k == len(w.children[atom])-1
		if !last {
			w.sb.WriteByte('(')
		}
		w.sb.WriteString(w.bondToken(bond))
		w.emit(child)
		if !last {
			w.sb.WriteByte(')')
		}
	}
}

func (w *smilesWriter) nextDigit() int {
	for d := 1; ; d++ {
		if !w.inUse[d] {
			return d
		}
	}
}

func writeRingNumber(sb *strings.Builder, d int) {
	if d < 10 {
		sb.WriteByte(byte('0' + d))
		return
	}
	sb.WriteByte('%')
	sb.WriteString(strconv.Itoa(d))
}

func (w *smilesWriter) bondToken(bi int) string {
	b := w.m.Bonds[bi]
	bothAromatic := w.m.Atoms[b.A].Aromatic && w.m.Atoms[b.B].Aromatic
	switch b.Order {
	case BondSingle:
		if bothAromatic {
			return "-"
		}
	case BondDouble:
		return "="
	case BondTriple:
		return "#"
	case BondQuadruple:
		return "$"
	case BondAromatic:
		if !bothAromatic {
			return ":"
		}
	}
	return ""
}

// outputChirality re-expresses the atom's stereo mark for the written
// neighbour order.  Centres with two equivalent ligands lose their mark.
func (w *smilesWriter) outputChirality(atom int, written []int) Chirality {
	a := w.m.Atoms[atom]
	if a.Chirality == ChiralityNone || !sameMembers(a.stereo, written) {
		return ChiralityNone
	}
	seen := make(map[int]bool)
	for _, nb := range w.m.Neighbors(atom) {
		c := w.symmetry[nb]
		if seen[c] {
			return ChiralityNone
		}
		seen[c] = true
	}
	if permutationParity(a.stereo, written) {
		return a.Chirality.invert()
	}
	return a.Chirality
}

func (w *smilesWriter) atomToken(atom int, written []int) string {
	a := w.m.Atoms[atom]
	chir := w.outputChirality(atom, written)
	sym := a.Symbol()
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}

	if chir == ChiralityNone && a.Isotope == 0 && a.Charge == 0 && a.AtomClass == 0 && organicSubset[a.Symbol()] {
		if h, ok := w.m.defaultHCount(atom); ok && h == a.HCount {
			if !a.Aromatic || isOrganicAromatic(sym) {
				return sym
			}
		}
	}

	var sb strings.Builder
	sb.WriteByte('[')
	if a.Isotope > 0 {
		sb.WriteString(strconv.Itoa(a.Isotope))
	}
	sb.WriteString(sym)
	switch chir {
	case ChiralityCCW:
		sb.WriteString("@")
	case ChiralityCW:
		sb.WriteString("@@")
	}
	if a.HCount > 0 {
		sb.WriteByte('H')
		if a.HCount > 1 {
			sb.WriteString(strconv.Itoa(a.HCount))
		}
	}
	switch {
	case a.Charge > 0:
		sb.WriteByte('+')
		if a.Charge > 1 {
			sb.WriteString(strconv.Itoa(a.Charge))
		}
	case a.Charge < 0:
		sb.WriteByte('-')
		if a.Charge < -1 {
			sb.WriteString(strconv.Itoa(-a.Charge))
		}
	}
	if a.AtomClass > 0 {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(a.AtomClass))
	}
	sb.WriteByte(']')
	return sb.String()
}

func isOrganicAromatic(sym string) bool {
	switch sym {
	case "b", "c", "n", "o", "p", "s":
		return true
	}
	return false
}
