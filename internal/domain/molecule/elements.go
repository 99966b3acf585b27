package molecule

import "strings"

var elementSymbols = []string{
	"Xx",
	"H", "He",
	"Li", "Be", "B", "C", "N", "O", "F", "Ne",
	"Na", "Mg", "Al", "Si", "P", "S", "Cl", "Ar",
	"K", "Ca", "Sc", "Ti", "V", "Cr", "Mn", "Fe", "Co", "Ni", "Cu", "Zn",
	"Ga", "Ge", "As", "Se", "Br", "Kr",
	"Rb", "Sr", "Y", "Zr", "Nb", "Mo", "Tc", "Ru", "Rh", "Pd", "Ag", "Cd",
	"In", "Sn", "Sb", "Te", "I", "Xe",
	"Cs", "Ba", "La", "Ce", "Pr", "Nd", "Pm", "Sm", "Eu", "Gd", "Tb", "Dy",
	"Ho", "Er", "Tm", "Yb", "Lu", "Hf", "Ta", "W", "Re", "Os", "Ir", "Pt",
	"Au", "Hg", "Tl", "Pb", "Bi", "Po", "At", "Rn",
}

// default valences used to fill implicit hydrogens
var defaultValences = map[int][]int{
	1:  {1},
	5:  {3},
	6:  {4},
	7:  {3, 5},
	8:  {2},
	9:  {1},
	14: {4},
	15: {3, 5},
	16: {2, 4, 6},
	17: {1},
	35: {1},
	53: {1},
}

// ElementSymbol returns the symbol for an atomic number, or "Xx".
func ElementSymbol(n int) string {
	if n <= 0 || n >= len(elementSymbols) {
		return elementSymbols[0]
	}
	return elementSymbols[n]
}

// ElementNumber returns the atomic number for a symbol (case-insensitive on
// the second letter), or 0 when unknown. "D" and "T" map to hydrogen.
func ElementNumber(symbol string) int {
	s := strings.TrimSpace(symbol)
	switch s {
	case "":
		return 0
	case "D", "T":
		return 1
	}
	if len(s) > 1 {
		s = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	} else {
		s = strings.ToUpper(s)
	}
	for i := 1; i < len(elementSymbols); i++ {
		if elementSymbols[i] == s {
			return i
		}
	}
	return 0
}

//Personal.AI order the ending
