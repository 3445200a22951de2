package chem

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Descriptors holds the basic properties shown next to a structure.
type Descriptors struct {
	MolWt    decimal.Decimal
	NumAtoms int
	NumBonds int
}

// MolWtFloat returns the molecular weight as a float64.
func (d Descriptors) MolWtFloat() float64 {
	f, _ := d.MolWt.Float64()
	return f
}

// Describe computes descriptors for m.  Atom and bond counts cover the
// hydrogen-suppressed graph; the weight includes implicit hydrogens.
func Describe(m *Molecule) Descriptors {
	return Descriptors{
		MolWt:    MolWt(m),
		NumAtoms: m.NumAtoms(),
		NumBonds: m.NumBonds(),
	}
}

// MolWt sums average atomic weights over all atoms and their hydrogens.
// Isotope-labelled atoms contribute their mass number.
func MolWt(m *Molecule) decimal.Decimal {
	total := decimal.Zero
	if m == nil {
		return total
	}
	h := weights[1]
	for _, a := range m.Atoms {
		if a.Isotope > 0 {
			total = total.Add(decimal.NewFromInt(int64(a.Isotope)))
		} else {
			total = total.Add(weights[a.Number])
		}
		if a.HCount > 0 {
			total = total.Add(h.Mul(decimal.NewFromInt(int64(a.HCount))))
		}
	}
	return total
}

// Formula returns the Hill-order molecular formula, e.g. "C5H6F2O2".
func Formula(m *Molecule) string {
	counts := map[string]int{}
	for _, a := range m.Atoms {
		counts[a.Symbol()]++
		if a.HCount > 0 {
			counts["H"] += a.HCount
		}
	}
	return hillFormula(counts)
}

func hillFormula(counts map[string]int) string {
	var syms []string
	for s := range counts {
		if s == "C" || s == "H" {
			continue
		}
		syms = append(syms, s)
	}
	sort.Strings(syms)
	if counts["C"] > 0 {
		head := []string{"C"}
		if counts["H"] > 0 {
			head = append(head, "H")
		}
		syms = append(head, syms...)
	} else if counts["H"] > 0 {
		syms = append(syms, "H")
		sort.Strings(syms)
	}

	var sb strings.Builder
	for _, s := range syms {
		sb.WriteString(s)
		if n := counts[s]; n > 1 {
			sb.WriteString(strconv.Itoa(n))
		}
	}
	return sb.String()
}
