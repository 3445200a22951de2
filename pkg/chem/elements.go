package chem

import "github.com/shopspring/decimal"

// element describes one entry of the periodic table subset the toolkit knows.
type element struct {
	symbol string
	number int
	// weight is the standard atomic weight, kept as a decimal string so
	// molecular-weight sums are exact before final rounding.
	weight string
	// valences lists allowed neutral valences in ascending order.  Empty
	// means the element is not valence-checked (metals and the like).
	valences []int
}

var elementTable = []element{
	{"*", 0, "0", nil},
	{"H", 1, "1.008", []int{1}},
	{"He", 2, "4.003", []int{0}},
	{"Li", 3, "6.94", []int{1}},
	{"Be", 4, "9.012", []int{2}},
	{"B", 5, "10.81", []int{3}},
	{"C", 6, "12.011", []int{4}},
	{"N", 7, "14.007", []int{3}},
	{"O", 8, "15.999", []int{2}},
	{"F", 9, "18.998", []int{1}},
	{"Ne", 10, "20.180", []int{0}},
	{"Na", 11, "22.990", nil},
	{"Mg", 12, "24.305", nil},
	{"Al", 13, "26.982", []int{3}},
	{"Si", 14, "28.086", []int{4}},
	{"P", 15, "30.974", []int{3, 5}},
	{"S", 16, "32.067", []int{2, 4, 6}},
	{"Cl", 17, "35.453", []int{1}},
	{"Ar", 18, "39.948", []int{0}},
	{"K", 19, "39.098", nil},
	{"Ca", 20, "40.078", nil},
	{"Sc", 21, "44.956", nil},
	{"Ti", 22, "47.867", nil},
	{"V", 23, "50.942", nil},
	{"Cr", 24, "51.996", nil},
	{"Mn", 25, "54.938", nil},
	{"Fe", 26, "55.845", nil},
	{"Co", 27, "58.933", nil},
	{"Ni", 28, "58.693", nil},
	{"Cu", 29, "63.546", nil},
	{"Zn", 30, "65.38", nil},
	{"Ga", 31, "69.723", []int{3}},
	{"Ge", 32, "72.630", []int{4}},
	{"As", 33, "74.922", []int{3, 5}},
	{"Se", 34, "78.971", []int{2, 4, 6}},
	{"Br", 35, "79.904", []int{1}},
	{"Kr", 36, "83.798", []int{0}},
	{"Rb", 37, "85.468", nil},
	{"Sr", 38, "87.62", nil},
	{"Y", 39, "88.906", nil},
	{"Zr", 40, "91.224", nil},
	{"Nb", 41, "92.906", nil},
	{"Mo", 42, "95.95", nil},
	{"Tc", 43, "98", nil},
	{"Ru", 44, "101.07", nil},
	{"Rh", 45, "102.906", nil},
	{"Pd", 46, "106.42", nil},
	{"Ag", 47, "107.868", nil},
	{"Cd", 48, "112.414", nil},
	{"In", 49, "114.818", []int{3}},
	{"Sn", 50, "118.71", []int{2, 4}},
	{"Sb", 51, "121.76", []int{3, 5}},
	{"Te", 52, "127.60", []int{2, 4, 6}},
	{"I", 53, "126.904", []int{1, 3, 5}},
	{"Xe", 54, "131.293", nil},
	{"Cs", 55, "132.905", nil},
	{"Ba", 56, "137.327", nil},
	{"Pt", 78, "195.084", nil},
	{"Au", 79, "196.967", nil},
	{"Hg", 80, "200.592", nil},
	{"Tl", 81, "204.38", nil},
	{"Pb", 82, "207.2", nil},
	{"Bi", 83, "208.980", nil},
}

var (
	bySymbol = map[string]*element{}
	byNumber = map[int]*element{}
	weights  = map[int]decimal.Decimal{}
)

// organicSubset lists the symbols that may appear outside brackets.
var organicSubset = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true, "*": true,
}

// aromaticSymbols maps lowercase aromatic spellings to element symbols.
// Only b c n o p s are legal outside brackets.
var aromaticSymbols = map[string]string{
	"b": "B", "c": "C", "n": "N", "o": "O", "p": "P", "s": "S",
	"se": "Se", "as": "As", "te": "Te",
}

func init() {
	for i := range elementTable {
		e := &elementTable[i]
		bySymbol[e.symbol] = e
		byNumber[e.number] = e
		weights[e.number] = decimal.RequireFromString(e.weight)
	}
}

// Symbol returns the element symbol for an atomic number, or "" if unknown.
func Symbol(number int) string {
	if e, ok := byNumber[number]; ok {
		return e.symbol
	}
	return ""
}

// AtomicNumber returns the atomic number for a symbol.
func AtomicNumber(symbol string) (int, bool) {
	e, ok := bySymbol[symbol]
	if !ok {
		return 0, false
	}
	return e.number, true
}

// allowedValences returns the valence list that applies to an atom with the
// given atomic number and formal charge.  Charged main-group atoms take the
// valences of their isoelectronic neutral neighbour (N+ behaves as C, O- as
// F).  A nil result means the atom is not valence-checked.
func allowedValences(number, charge int) []int {
	base, ok := byNumber[number]
	if !ok || base.valences == nil {
		return nil
	}
	if charge == 0 {
		return base.valences
	}
	iso, ok := byNumber[number-charge]
	if !ok || iso.valences == nil {
		return nil
	}
	// Isoelectronic shifts only make sense within the same period.
	if period(number) != period(number-charge) {
		return nil
	}
	return iso.valences
}

func period(z int) int {
	switch {
	case z <= 2:
		return 1
	case z <= 10:
		return 2
	case z <= 18:
		return 3
	case z <= 36:
		return 4
	case z <= 54:
		return 5
	default:
		return 6
	}
}
