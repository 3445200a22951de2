package chem

import (
	"fmt"
	"strings"
	"unicode"

	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// ringSlot is the placeholder written into a stereo list while a ring bond is
// still open.
const ringSlot = -2

type openRing struct {
	atom  int
	order BondOrder // zero when unspecified
	slot  int       // index into the opener's stereo list
}

type smilesParser struct {
	src string
	pos int
	mol *Molecule

	prev     int
	pending  BondOrder
	branches []int
	rings    map[int]openRing
	organic  []bool
}

// ParseSMILES parses a SMILES string.  Anything after the first whitespace is
// treated as a title and ignored.  An empty string yields an empty molecule
// and no error; callers decide whether zero atoms is acceptable.
func ParseSMILES(s string) (*Molecule, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		s = s[:i]
	}
	p := &smilesParser{
		src:   s,
		mol:   &Molecule{},
		prev:  -1,
		rings: make(map[int]openRing),
	}
	if err := p.parse(); err != nil {
		return nil, err
	}
	if err := p.assignImplicitHydrogens(); err != nil {
		return nil, err
	}
	if err := p.mol.finish(); err != nil {
		return nil, err
	}
	return p.mol, nil
}

// MustParseSMILES panics on error.  Intended for tests and constants.
func MustParseSMILES(s string) *Molecule {
	m, err := ParseSMILES(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (p *smilesParser) fail(msg string) error {
	return apperrors.New(apperrors.ErrCodeMoleculeParsingFailed, "SMILES parse error: "+msg).
		WithDetail(fmt.Sprintf("position %d in %q", p.pos, p.src))
}

func (p *smilesParser) parse() error {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '.':
			if p.prev < 0 || p.pending != 0 {
				return p.fail("unexpected '.'")
			}
			p.prev = -1
			p.pos++
		case c == '(':
			if p.prev < 0 {
				return p.fail("branch without preceding atom")
			}
			if p.pending != 0 {
				return p.fail("bond before branch")
			}
			if p.pos+1 < len(p.src) && p.src[p.pos+1] == ')' {
				return p.fail("empty branch")
			}
			p.branches = append(p.branches, p.prev)
			p.pos++
		case c == ')':
			if len(p.branches) == 0 {
				return p.fail("unbalanced ')'")
			}
			if p.pending != 0 {
				return p.fail("dangling bond")
			}
			p.prev = p.branches[len(p.branches)-1]
			p.branches = p.branches[:len(p.branches)-1]
			p.pos++
		case isBondChar(c):
			if p.prev < 0 || p.pending != 0 {
				return p.fail(fmt.Sprintf("unexpected bond '%c'", c))
			}
			p.pending = bondFromChar(c)
			p.pos++
		case c >= '0' && c <= '9':
			if err := p.ringClosure(int(c - '0')); err != nil {
				return err
			}
			p.pos++
		case c == '%':
			if p.pos+2 >= len(p.src) || !isDigit(p.src[p.pos+1]) || !isDigit(p.src[p.pos+2]) {
				return p.fail("malformed '%' ring number")
			}
			n := int(p.src[p.pos+1]-'0')*10 + int(p.src[p.pos+2]-'0')
			if err := p.ringClosure(n); err != nil {
				return err
			}
			p.pos += 3
		case c == '[':
			a, err := p.bracketAtom()
			if err != nil {
				return err
			}
			if err := p.attach(a, false); err != nil {
				return err
			}
		default:
			a, ok := p.organicAtom()
			if !ok {
				return p.fail(fmt.Sprintf("unexpected character '%c'", c))
			}
			if err := p.attach(a, true); err != nil {
				return err
			}
		}
	}
	if p.pending != 0 {
		return p.fail("dangling bond at end of input")
	}
	if len(p.branches) > 0 {
		return p.fail("unclosed branch")
	}
	if len(p.rings) > 0 {
		for n := range p.rings {
			return p.fail(fmt.Sprintf("unclosed ring %d", n))
		}
	}
	return nil
}

// attach adds an atom and bonds it to the previous one.
func (p *smilesParser) attach(a Atom, organic bool) error {
	cur := p.mol.addAtom(a)
	p.organic = append(p.organic, organic)
	if p.prev >= 0 {
		order := p.pending
		if order == 0 {
			order = p.defaultOrder(p.prev, cur)
		}
		if err := p.mol.addBond(p.prev, cur, order); err != nil {
			return err
		}
		p.mol.Atoms[p.prev].stereo = append(p.mol.Atoms[p.prev].stereo, cur)
		p.mol.Atoms[cur].stereo = append(p.mol.Atoms[cur].stereo, p.prev)
	}
	if !organic && a.HCount > 0 {
		p.mol.Atoms[cur].stereo = append(p.mol.Atoms[cur].stereo, implicitH)
	}
	p.pending = 0
	p.prev = cur
	return nil
}

func (p *smilesParser) defaultOrder(a, b int) BondOrder {
	if p.mol.Atoms[a].Aromatic && p.mol.Atoms[b].Aromatic {
		return BondAromatic
	}
	return BondSingle
}

func (p *smilesParser) ringClosure(n int) error {
	if p.prev < 0 {
		return p.fail("ring closure without atom")
	}
	cur := p.prev
	open, ok := p.rings[n]
	if !ok {
		atom := &p.mol.Atoms[cur]
		p.rings[n] = openRing{atom: cur, order: p.pending, slot: len(atom.stereo)}
		atom.stereo = append(atom.stereo, ringSlot)
		p.pending = 0
		return nil
	}
	delete(p.rings, n)

	order := open.order
	switch {
	case order != 0 && p.pending != 0 && order != p.pending:
		return p.fail(fmt.Sprintf("conflicting bond orders for ring %d", n))
	case order == 0:
		order = p.pending
	}
	if order == 0 {
		order = p.defaultOrder(open.atom, cur)
	}
	if open.atom == cur {
		return p.fail(fmt.Sprintf("ring %d closes on the atom that opened it", n))
	}
	if err := p.mol.addBond(open.atom, cur, order); err != nil {
		return p.fail(fmt.Sprintf("ring %d duplicates an existing bond", n))
	}
	p.mol.Atoms[open.atom].stereo[open.slot] = cur
	p.mol.Atoms[cur].stereo = append(p.mol.Atoms[cur].stereo, open.atom)
	p.pending = 0
	return nil
}

func (p *smilesParser) organicAtom() (Atom, bool) {
	rest := p.src[p.pos:]
	for _, sym := range []string{"Cl", "Br"} {
		if strings.HasPrefix(rest, sym) {
			p.pos += 2
			n, _ := AtomicNumber(sym)
			return Atom{Number: n}, true
		}
	}
	c := rest[:1]
	if organicSubset[c] {
		p.pos++
		n, _ := AtomicNumber(c)
		return Atom{Number: n}, true
	}
	switch c {
	case "b", "c", "n", "o", "p", "s":
		p.pos++
		n, _ := AtomicNumber(aromaticSymbols[c])
		return Atom{Number: n, Aromatic: true}, true
	}
	return Atom{}, false
}

func (p *smilesParser) bracketAtom() (Atom, error) {
	end := strings.IndexByte(p.src[p.pos:], ']')
	if end < 0 {
		return Atom{}, p.fail("unterminated bracket atom")
	}
	body := p.src[p.pos+1 : p.pos+end]
	start := p.pos
	p.pos += end + 1

	var a Atom
	i := 0
	for i < len(body) && isDigit(body[i]) {
		a.Isotope = a.Isotope*10 + int(body[i]-'0')
		i++
	}

	sym, arom, ok := bracketSymbol(body[i:])
	if !ok {
		p.pos = start
		return Atom{}, p.fail(fmt.Sprintf("unknown element in [%s]", body))
	}
	i += len(sym)
	if arom {
		sym = aromaticSymbols[sym]
	}
	a.Number, _ = AtomicNumber(sym)
	a.Aromatic = arom

	if i < len(body) && body[i] == '@' {
		a.Chirality = ChiralityCCW
		i++
		switch {
		case i < len(body) && body[i] == '@':
			a.Chirality = ChiralityCW
			i++
		case strings.HasPrefix(body[i:], "TH1"):
			i += 3
		case strings.HasPrefix(body[i:], "TH2"):
			a.Chirality = ChiralityCW
			i += 3
		case i+1 < len(body) && unicode.IsUpper(rune(body[i])) && unicode.IsUpper(rune(body[i+1])):
			p.pos = start
			return Atom{}, p.fail(fmt.Sprintf("unsupported stereo class in [%s]", body))
		}
	}

	if i < len(body) && body[i] == 'H' {
		i++
		a.HCount = 1
		if i < len(body) && isDigit(body[i]) {
			a.HCount = int(body[i] - '0')
			i++
		}
	}

	if i < len(body) && (body[i] == '+' || body[i] == '-') {
		sign := 1
		if body[i] == '-' {
			sign = -1
		}
		ch := body[i]
		i++
		switch {
		case i < len(body) && isDigit(body[i]):
			n := 0
			for i < len(body) && isDigit(body[i]) {
				n = n*10 + int(body[i]-'0')
				i++
			}
			a.Charge = sign * n
		default:
			n := 1
			for i < len(body) && body[i] == ch {
				n++
				i++
			}
			a.Charge = sign * n
		}
	}

	if i < len(body) && body[i] == ':' {
		i++
		if i >= len(body) || !isDigit(body[i]) {
			p.pos = start
			return Atom{}, p.fail(fmt.Sprintf("malformed atom class in [%s]", body))
		}
		for i < len(body) && isDigit(body[i]) {
			a.AtomClass = a.AtomClass*10 + int(body[i]-'0')
			i++
		}
	}

	if i != len(body) {
		p.pos = start
		return Atom{}, p.fail(fmt.Sprintf("unexpected text in [%s]", body))
	}
	return a, nil
}

// bracketSymbol reads the element symbol at the start of a bracket body.
func bracketSymbol(s string) (sym string, aromatic bool, ok bool) {
	if s == "" {
		return "", false, false
	}
	if s[0] == '*' {
		return "*", false, true
	}
	if len(s) >= 2 {
		two := s[:2]
		if _, known := aromaticSymbols[two]; known {
			return two, true, true
		}
		if unicode.IsUpper(rune(s[0])) && unicode.IsLower(rune(s[1])) {
			if _, known := bySymbol[two]; known {
				return two, false, true
			}
		}
	}
	one := s[:1]
	if _, known := aromaticSymbols[one]; known {
		return one, true, true
	}
	if _, known := bySymbol[one]; known && unicode.IsUpper(rune(s[0])) {
		return one, false, true
	}
	return "", false, false
}

// assignImplicitHydrogens fills HCount for organic-subset atoms once every
// bond is known.
func (p *smilesParser) assignImplicitHydrogens() error {
	for i, organic := range p.organic {
		if !organic {
			continue
		}
		h, ok := p.mol.defaultHCount(i)
		if !ok {
			a := p.mol.Atoms[i]
			return apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, "explicit valence greater than permitted").
				WithDetail(fmt.Sprintf("atom %d %s, valence %d", i+1, a.Symbol(), p.mol.bondSum(i)))
		}
		p.mol.Atoms[i].HCount = h
	}
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isBondChar(c byte) bool {
	switch c {
	case '-', '=', '#', '$', ':', '/', '\\':
		return true
	}
	return false
}

func bondFromChar(c byte) BondOrder {
	switch c {
	case '=':
		return BondDouble
	case '#':
		return BondTriple
	case '$':
		return BondQuadruple
	case ':':
		return BondAromatic
	}
	// '-', '/' and '\' are all single bonds; directional marks are dropped.
	return BondSingle
}
