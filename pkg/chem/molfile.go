package chem

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// molfileCharges maps the legacy atom-block charge field to a formal charge.
var molfileCharges = map[int]int{1: 3, 2: 2, 3: 1, 4: 0, 5: -1, 6: -2, 7: -3}

func molfileError(format string, args ...interface{}) error {
	return apperrors.Newf(apperrors.ErrCodeMoleculeInvalidFormat, format, args...)
}

// ParseMolBlock reads an MDL molfile (V2000 or V3000 connection table).
func ParseMolBlock(text string) (*Molecule, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) < 4 {
		return nil, molfileError("molfile too short: %d lines", len(lines))
	}
	counts := lines[3]
	var (
		m   *Molecule
		err error
	)
	if strings.Contains(counts, "V3000") {
		m, err = parseV3000(lines[4:])
	} else {
		m, err = parseV2000(counts, lines[4:])
	}
	if err != nil {
		return nil, err
	}
	if err := m.assignMolfileHydrogens(); err != nil {
		return nil, err
	}
	if err := m.finish(); err != nil {
		return nil, err
	}
	return m, nil
}

// col returns the trimmed substring [start,end) of line, clamped to its length.
func col(line string, start, end int) string {
	if start >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[start:end])
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// molfileAtom converts a molfile atom symbol into an Atom.
func molfileAtom(sym string) (Atom, error) {
	switch sym {
	case "D":
		return Atom{Number: 1, Isotope: 2}, nil
	case "T":
		return Atom{Number: 1, Isotope: 3}, nil
	case "A", "Q", "*", "L", "R#", "R":
		return Atom{Number: 0}, nil
	}
	n, ok := AtomicNumber(sym)
	if !ok {
		return Atom{}, molfileError("unknown atom symbol %q", sym)
	}
	return Atom{Number: n}, nil
}

func molfileBond(code int) (BondOrder, error) {
	switch code {
	case 1:
		return BondSingle, nil
	case 2:
		return BondDouble, nil
	case 3:
		return BondTriple, nil
	case 4:
		return BondAromatic, nil
	}
	return 0, molfileError("unsupported bond type %d", code)
}

// massNumber approximates the most common mass number from the average weight.
func massNumber(number int) int {
	w, ok := weights[number]
	if !ok {
		return 0
	}
	f, _ := w.Float64()
	return int(math.Round(f))
}

func parseV2000(counts string, body []string) (*Molecule, error) {
	natoms := atoiDefault(col(counts, 0, 3), -1)
	nbonds := atoiDefault(col(counts, 3, 6), -1)
	if natoms < 0 || nbonds < 0 {
		return nil, molfileError("malformed counts line %q", counts)
	}
	if len(body) < natoms+nbonds {
		return nil, molfileError("counts line announces %d atoms and %d bonds but the block is truncated", natoms, nbonds)
	}

	m := &Molecule{}
	for i := 0; i < natoms; i++ {
		line := body[i]
		sym := col(line, 31, 34)
		if sym == "" {
			fields := strings.Fields(line)
			if len(fields) < 4 {
				return nil, molfileError("malformed atom line %d", i+1)
			}
			sym = fields[3]
		}
		a, err := molfileAtom(sym)
		if err != nil {
			return nil, err
		}
		if diff := atoiDefault(col(line, 34, 36), 0); diff != 0 && a.Number > 0 {
			a.Isotope = massNumber(a.Number) + diff
		}
		a.Charge = molfileCharges[atoiDefault(col(line, 36, 39), 0)]
		m.addAtom(a)
	}

	for i := 0; i < nbonds; i++ {
		line := body[natoms+i]
		a1 := atoiDefault(col(line, 0, 3), 0)
		a2 := atoiDefault(col(line, 3, 6), 0)
		code := atoiDefault(col(line, 6, 9), 0)
		if a1 < 1 || a2 < 1 || a1 > natoms || a2 > natoms {
			return nil, molfileError("bond %d references atom out of range", i+1)
		}
		order, err := molfileBond(code)
		if err != nil {
			return nil, err
		}
		if err := m.addBond(a1-1, a2-1, order); err != nil {
			return nil, err
		}
	}

	chargesReset, isotopesReset := false, false
	for _, line := range body[natoms+nbonds:] {
		if strings.HasPrefix(line, "M  END") {
			break
		}
		switch {
		case strings.HasPrefix(line, "M  CHG"):
			if !chargesReset {
				for i := range m.Atoms {
					m.Atoms[i].Charge = 0
				}
				chargesReset = true
			}
			if err := applyPropertyPairs(m, line, func(a *Atom, v int) { a.Charge = v }); err != nil {
				return nil, err
			}
		case strings.HasPrefix(line, "M  ISO"):
			if !isotopesReset {
				for i := range m.Atoms {
					m.Atoms[i].Isotope = 0
				}
				isotopesReset = true
			}
			if err := applyPropertyPairs(m, line, func(a *Atom, v int) { a.Isotope = v }); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// applyPropertyPairs handles "M  XXX  n aaa vvv aaa vvv ..." lines.
func applyPropertyPairs(m *Molecule, line string, set func(*Atom, int)) error {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return molfileError("malformed property line %q", line)
	}
	n := atoiDefault(fields[2], -1)
	if n < 0 || len(fields) < 3+2*n {
		return molfileError("malformed property line %q", line)
	}
	for k := 0; k < n; k++ {
		idx := atoiDefault(fields[3+2*k], 0)
		val, err := strconv.Atoi(fields[4+2*k])
		if err != nil || idx < 1 || idx > len(m.Atoms) {
			return molfileError("malformed property line %q", line)
		}
		set(&m.Atoms[idx-1], val)
	}
	return nil
}

// v3000Lines strips the "M  V30 " prefix and joins continuation lines.
func v3000Lines(body []string) []string {
	var out []string
	var cur strings.Builder
	for _, line := range body {
		if strings.HasPrefix(line, "M  END") {
			break
		}
		if !strings.HasPrefix(line, "M  V30 ") {
			continue
		}
		content := strings.TrimRight(line[len("M  V30 "):], " ")
		if strings.HasSuffix(content, "-") {
			cur.WriteString(strings.TrimSuffix(content, "-"))
			continue
		}
		cur.WriteString(content)
		out = append(out, cur.String())
		cur.Reset()
	}
	return out
}

func parseV3000(body []string) (*Molecule, error) {
	m := &Molecule{}
	ids := map[int]int{}
	section := ""
	for _, line := range v3000Lines(body) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "BEGIN" && len(fields) > 1 {
			section = fields[1]
			continue
		}
		if fields[0] == "END" {
			section = ""
			continue
		}
		switch section {
		case "ATOM":
			if len(fields) < 6 {
				return nil, molfileError("malformed V3000 atom line %q", line)
			}
			id := atoiDefault(fields[0], -1)
			if strings.HasPrefix(fields[1], "[") || strings.HasPrefix(fields[1], "NOT") {
				return nil, molfileError("atom lists are not supported")
			}
			a, err := molfileAtom(fields[1])
			if err != nil {
				return nil, err
			}
			for _, prop := range fields[6:] {
				key, val, ok := strings.Cut(prop, "=")
				if !ok {
					continue
				}
				switch key {
				case "CHG":
					a.Charge = atoiDefault(val, 0)
				case "MASS":
					a.Isotope = atoiDefault(val, 0)
				}
			}
			ids[id] = m.addAtom(a)
		case "BOND":
			if len(fields) < 4 {
				return nil, molfileError("malformed V3000 bond line %q", line)
			}
			order, err := molfileBond(atoiDefault(fields[1], 0))
			if err != nil {
				return nil, err
			}
			a1, ok1 := ids[atoiDefault(fields[2], -1)]
			a2, ok2 := ids[atoiDefault(fields[3], -1)]
			if !ok1 || !ok2 {
				return nil, molfileError("V3000 bond %s references unknown atom", fields[0])
			}
			if err := m.addBond(a1, a2, order); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// assignMolfileHydrogens marks aromatic atoms and derives implicit hydrogen
// counts from the default valence model.
func (m *Molecule) assignMolfileHydrogens() error {
	for _, b := range m.Bonds {
		if b.Order == BondAromatic {
			m.Atoms[b.A].Aromatic = true
			m.Atoms[b.B].Aromatic = true
		}
	}
	for i := range m.Atoms {
		h, ok := m.defaultHCount(i)
		if !ok {
			a := m.Atoms[i]
			return apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, "explicit valence greater than permitted").
				WithDetail(fmt.Sprintf("atom %d %s, valence %d", i+1, a.Symbol(), m.bondSum(i)))
		}
		m.Atoms[i].HCount = h
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Molfile writer
// ─────────────────────────────────────────────────────────────────────────────

// MolBlock writes a minimal V2000 molfile with zero coordinates.  It exists so
// editor payloads and tests can round-trip a structure through the molfile
// path; it is not a depiction.
func MolBlock(m *Molecule, title string) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n     fluoro\n\n")
	fmt.Fprintf(&sb, "%3d%3d  0  0  0  0  0  0  0  0999 V2000\n", len(m.Atoms), len(m.Bonds))
	var charges, isotopes [][2]int
	for i, a := range m.Atoms {
		sym := a.Symbol()
		if a.Number == 0 {
			sym = "*"
		}
		fmt.Fprintf(&sb, "%10.4f%10.4f%10.4f %-3s 0  0  0  0  0  0  0  0  0  0  0  0\n", 0.0, 0.0, 0.0, sym)
		if a.Charge != 0 {
			charges = append(charges, [2]int{i + 1, a.Charge})
		}
		if a.Isotope != 0 {
			isotopes = append(isotopes, [2]int{i + 1, a.Isotope})
		}
	}
	for _, b := range m.Bonds {
		code := int(b.Order)
		if b.Order == BondAromatic {
			code = 4
		}
		fmt.Fprintf(&sb, "%3d%3d%3d  0\n", b.A+1, b.B+1, code)
	}
	writeProps := func(tag string, pairs [][2]int) {
		for start := 0; start < len(pairs); start += 8 {
			end := start + 8
			if end > len(pairs) {
				end = len(pairs)
			}
			fmt.Fprintf(&sb, "M  %s%3d", tag, end-start)
			for _, p := range pairs[start:end] {
				fmt.Fprintf(&sb, " %3d %3d", p[0], p[1])
			}
			sb.WriteByte('\n')
		}
	}
	writeProps("CHG", charges)
	writeProps("ISO", isotopes)
	sb.WriteString("M  END\n")
	return sb.String()
}
