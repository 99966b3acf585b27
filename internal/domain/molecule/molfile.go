package molecule

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// molfile charge codes in the atom block
var molfileCharges = map[int]int{1: 3, 2: 2, 3: 1, 5: -1, 6: -2, 7: -3}

var molfileBondOrders = map[int]BondOrder{
	1: BondSingle,
	2: BondDouble,
	3: BondTriple,
	4: BondAromatic,
	5: BondPartial,
	6: BondPartial,
	7: BondPartial,
	8: BondPartial,
}

// ParseMolfile reads the first molecule of a V2000 molfile or SD record.
func ParseMolfile(s string) (*Molecule, error) {
	return ReadMolfile(strings.NewReader(s))
}

// ReadMolfile reads the first molecule of a V2000 molfile or SD record.
// Atom coordinates, atom-block charges, M  CHG and M  ISO properties are
// honoured; implicit hydrogens are filled from default valences.
func ReadMolfile(r io.Reader) (*Molecule, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var header [3]string
	for i := 0; i < 3; i++ {
		if !sc.Scan() {
			return nil, parseErr("unexpected EOF in header")
		}
		header[i] = sc.Text()
	}
	if !sc.Scan() {
		return nil, parseErr("missing counts line")
	}
	counts := sc.Text()
	if strings.Contains(counts, "V3000") {
		return nil, errors.New(errors.ErrCodeMoleculeInvalidFormat, "V3000 molfiles are not supported")
	}
	if len(counts) < 6 {
		return nil, parseErr("counts line too short: %q", counts)
	}
	nAtoms, err := fixedInt(counts, 0, 3)
	if err != nil {
		return nil, parseErr("atom count: %v", err)
	}
	nBonds, err := fixedInt(counts, 3, 6)
	if err != nil {
		return nil, parseErr("bond count: %v", err)
	}

	mol := NewMolecule(strings.TrimSpace(header[0]))
	for i := 0; i < nAtoms; i++ {
		if !sc.Scan() {
			return nil, parseErr("atom block truncated at atom %d", i+1)
		}
		line := sc.Text()
		if len(line) < 34 {
			return nil, parseErr("atom line %d too short", i+1)
		}
		x, errX := fixedFloat(line, 0, 10)
		y, errY := fixedFloat(line, 10, 20)
		z, errZ := fixedFloat(line, 20, 30)
		if errX != nil || errY != nil || errZ != nil {
			return nil, parseErr("atom %d coordinates", i+1)
		}
		sym := strings.TrimSpace(line[31:34])
		el := ElementNumber(sym)
		opts := []AtomOption{WithPosition(x, y, z)}
		switch sym {
		case "D":
			opts = append(opts, WithIsotope(2))
		case "T":
			opts = append(opts, WithIsotope(3))
		}
		if code, err := fixedInt(line, 36, 39); err == nil {
			if c, ok := molfileCharges[code]; ok {
				opts = append(opts, WithCharge(c))
			}
		}
		mol.AddAtom(el, opts...)
	}

	for i := 0; i < nBonds; i++ {
		if !sc.Scan() {
			return nil, parseErr("bond block truncated at bond %d", i+1)
		}
		line := sc.Text()
		a1, err1 := fixedInt(line, 0, 3)
		a2, err2 := fixedInt(line, 3, 6)
		t, err3 := fixedInt(line, 6, 9)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, parseErr("bond line %d: %q", i+1, line)
		}
		order, ok := molfileBondOrders[t]
		if !ok {
			return nil, parseErr("bond %d has unknown type %d", i+1, t)
		}
		if _, err := mol.AddBond(a1-1, a2-1, order); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeMoleculeParseFailed, fmt.Sprintf("bond %d", i+1))
		}
	}

	chargeReset := false
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "M  END") || strings.HasPrefix(line, "$$$$") {
			break
		}
		if !strings.HasPrefix(line, "M  CHG") && !strings.HasPrefix(line, "M  ISO") {
			continue
		}
		isCharge := strings.HasPrefix(line, "M  CHG")
		if isCharge && !chargeReset {
			// any CHG line supersedes atom-block charges
			for _, a := range mol.atoms {
				a.Charge = 0
			}
			chargeReset = true
		}
		fields := strings.Fields(line[6:])
		if len(fields) == 0 {
			continue
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || len(fields) < 1+2*n {
			return nil, parseErr("malformed property line %q", line)
		}
		for k := 0; k < n; k++ {
			idx, errA := strconv.Atoi(fields[1+2*k])
			val, errV := strconv.Atoi(fields[2+2*k])
			if errA != nil || errV != nil || idx < 1 || idx > len(mol.atoms) {
				return nil, parseErr("malformed property line %q", line)
			}
			if isCharge {
				mol.atoms[idx-1].Charge = val
			} else {
				mol.atoms[idx-1].Isotope = val
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMoleculeParseFailed, "read molfile")
	}
	mol.FillImplicitHydrogens()
	return mol, nil
}

func parseErr(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrCodeMoleculeParseFailed, format, args...)
}

func fixedInt(line string, from, to int) (int, error) {
	if len(line) < to {
		if len(line) <= from {
			return 0, fmt.Errorf("column %d missing", from)
		}
		to = len(line)
	}
	return strconv.Atoi(strings.TrimSpace(line[from:to]))
}

func fixedFloat(line string, from, to int) (float64, error) {
	if len(line) < to {
		to = len(line)
	}
	if from >= to {
		return 0, fmt.Errorf("column %d missing", from)
	}
	return strconv.ParseFloat(strings.TrimSpace(line[from:to]), 64)
}

//Personal.AI order the ending
