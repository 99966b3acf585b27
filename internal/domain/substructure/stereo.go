package substructure

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/turtacn/KeyIP-Substructure/internal/domain/molecule"
	"github.com/turtacn/KeyIP-Substructure/internal/domain/substructure/pattern"
	"github.com/turtacn/KeyIP-Substructure/pkg/errors"
)

// Stereo slots hold target atom indices. An implicit hydrogen on target atom
// a is keyed hydrogenKey(a); in geometric mode it sits opposite the centroid
// of a's neighbours.
const noSlot = math.MinInt32

func hydrogenKey(a int) int { return -a - 2 }
func isHydrogenKey(k int) bool { return k <= -2 && k != noSlot }
func hydrogenOwner(k int) int { return -k - 2 }

// stereoOK validates every chirality, cis/trans and atropisomer descriptor
// of the pattern against the current complete mapping.
func (s *search) stereoOK() bool {
	if s.p.HasAtomStereo() {
		for _, pa := range s.p.Atoms {
			if pa.Stereo != nil && !s.atomStereoOK(pa) {
				return false
			}
		}
	}
	if s.p.HasBondStereo() {
		for _, pb := range s.p.Bonds {
			switch pb.Type() {
			case pattern.BondDouble:
				if !s.doubleBondOK(pb) {
					return false
				}
			case pattern.BondAtropisomer:
				if !s.atropisomerOK(pb) {
					return false
				}
			}
		}
	}
	return true
}

func (s *search) atomStereoOK(pa *pattern.Atom) bool {
	st := pa.Stereo
	switch st.Class {
	case molecule.ChiralAllene:
		return s.alleneOK(pa)
	case molecule.ChiralPolyhedral:
		return s.polyhedralOK(pa, pa.Not != st.Not)
	}
	keys, ok := s.stereoSlots(pa)
	if !ok {
		return true
	}
	c := s.matching[pa.Index]
	if centre, has := s.sc.position(c); has {
		pts, ok := s.slotPoints(keys)
		return ok && chiralityHolds(pa.Not, st.Class, st.Order, centre, pts)
	}
	ts := s.sc.topoStereo(c)
	if ts == nil || ts.ChiralClass() != st.Class {
		return false
	}
	order := s.targetNeighbourOrder(c, hasHydrogenKey(keys))
	pts, ok := layoutPoints(keys, order, stereoLayout(st.Class, ts.ChiralOrder(), len(order)))
	return ok && chiralityHolds(pa.Not, st.Class, st.Order, r3.Vec{}, pts)
}

// stereoSlots lists the target atoms around pa in descriptor order. A
// declared hydrogen takes slot 0 when pa has no earlier neighbour and slot 1
// otherwise. It reports false when more than one hydrogen is declared, in
// which case the descriptor cannot be checked.
func (s *search) stereoSlots(pa *pattern.Atom) ([]int, bool) {
	nH := pa.ExplicitHCount()
	if nH > 1 {
		return nil, false
	}
	keys := make([]int, 0, len(pa.Bonds)+nH)
	for _, bi := range pa.Bonds {
		keys = append(keys, s.matching[s.p.Bonds[bi].OtherAtom(pa.Index)])
	}
	if nH == 1 {
		c := s.matching[pa.Index]
		h := s.explicitHydrogen(c, keys)
		if h < 0 {
			h = hydrogenKey(c)
		}
		pos := 1
		if pa.IsFirst || len(keys) == 0 {
			pos = 0
		}
		keys = append(keys, 0)
		copy(keys[pos+1:], keys[pos:])
		keys[pos] = h
	}
	return keys, true
}

func (s *search) explicitHydrogen(c int, used []int) int {
	node := s.sc.atoms[c]
next:
	for e := range node.Edges() {
		j := node.BondedAtomIndex(e)
		if j < 0 || s.sc.atoms[j].ElementNumber() != 1 {
			continue
		}
		for _, u := range used {
			if u == j {
				continue next
			}
		}
		return j
	}
	return -1
}

func hasHydrogenKey(keys []int) bool {
	for _, k := range keys {
		if isHydrogenKey(k) {
			return true
		}
	}
	return false
}

// slotPoints resolves slot keys to coordinates.
func (s *search) slotPoints(keys []int) ([]r3.Vec, bool) {
	pts := make([]r3.Vec, len(keys))
	for k, key := range keys {
		p, ok := s.keyPoint(key)
		if !ok {
			return nil, false
		}
		pts[k] = p
	}
	return pts, true
}

func (s *search) keyPoint(key int) (r3.Vec, bool) {
	if !isHydrogenKey(key) {
		return s.sc.position(key)
	}
	owner := hydrogenOwner(key)
	c, ok := s.sc.position(owner)
	if !ok {
		return r3.Vec{}, false
	}
	node := s.sc.atoms[owner]
	var around []r3.Vec
	for e, edge := range node.Edges() {
		if !edge.IsCovalent() {
			continue
		}
		if p, has := s.sc.position(node.BondedAtomIndex(e)); has {
			around = append(around, p)
		}
	}
	if len(around) == 0 {
		return r3.Vec{}, false
	}
	return reflectThrough(c, centroid(around)), true
}

// targetNeighbourOrder is the descriptor order of a topological centre: its
// implicit hydrogen first, then its covalent neighbours in bond order.
func (s *search) targetNeighbourOrder(c int, withH bool) []int {
	node := s.sc.atoms[c]
	var order []int
	if withH && node.ImplicitHydrogenCount() > 0 {
		order = append(order, hydrogenKey(c))
	}
	for e, edge := range node.Edges() {
		if edge.IsCovalent() {
			order = append(order, node.BondedAtomIndex(e))
		}
	}
	return order
}

func layoutPoints(keys, order []int, layout []r3.Vec) ([]r3.Vec, bool) {
	if layout == nil || len(layout) < len(order) {
		return nil, false
	}
	pts := make([]r3.Vec, len(keys))
	for k, key := range keys {
		idx := -1
		for t, o := range order {
			if o == key {
				idx = t
				break
			}
		}
		if idx < 0 {
			return nil, false
		}
		pts[k] = layout[idx]
	}
	return pts, true
}

// stereoLayout places n neighbours of a topological centre at the origin so
// that the descriptor (class, order) holds for them in list order.
func stereoLayout(class molecule.ChiralClass, order, n int) []r3.Vec {
	switch class {
	case molecule.ChiralTrigonalPyramidal, molecule.ChiralTetrahedral, molecule.ChiralAllene:
		if n > 4 {
			return nil
		}
		m := []r3.Vec{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: -1}, {X: 0, Y: 1, Z: -1}, {X: -1, Y: -1, Z: -1}}
		if order == 2 {
			m[0], m[1] = m[1], m[0]
		}
		return m[:n]
	case molecule.ChiralSquarePlanar:
		if n != 4 {
			return nil
		}
		switch order {
		case 1:
			return []r3.Vec{{X: 1}, {Y: 1}, {X: -1}, {Y: -1}}
		case 2:
			return []r3.Vec{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}
		case 3:
			return []r3.Vec{{X: 1}, {Y: 1}, {Y: -1}, {X: -1}}
		}
		return nil
	case molecule.ChiralTrigonalBipyramidal, molecule.ChiralOctahedral:
		if n < 5 || n > 6 {
			return nil
		}
		ring := []r3.Vec{{X: 1}, {Y: 1}, {X: -1}, {Y: -1}}
		m := make([]r3.Vec, n)
		m[0] = r3.Vec{Z: 1}
		m[n-1] = r3.Vec{Z: -1}
		copy(m[1:n-1], ring[:n-2])
		if order == 2 {
			m[0], m[n-1] = m[n-1], m[0]
		}
		return m
	}
	return nil
}

// chiralityHolds applies the handedness rule of class to the slot points a
// around centre c. Axial pairs are verified before handedness.
func chiralityHolds(isNot bool, class molecule.ChiralClass, order int, c r3.Vec, a []r3.Vec) bool {
	switch class {
	case molecule.ChiralTrigonalPyramidal:
		if len(a) < 3 {
			return false
		}
		return isNot == (handedness(a[1], a[2], c, a[0]) != order)
	case molecule.ChiralAllene, molecule.ChiralTetrahedral:
		if len(a) < 4 {
			return false
		}
		return isNot == (handedness(a[1], a[2], a[3], a[0]) != order)
	case molecule.ChiralTrigonalBipyramidal:
		if len(a) < 5 || !isDiaxial(c, a[0], a[4]) {
			return false
		}
		return isNot == (handedness(a[1], a[2], a[3], a[0]) != order)
	case molecule.ChiralOctahedral:
		if len(a) < 6 || !isDiaxial(c, a[0], a[5]) || !isDiaxial(c, a[1], a[3]) || !isDiaxial(c, a[2], a[4]) {
			return false
		}
		n2, n3, n4 := planeNormals(a[1], a[2], a[3], a[4])
		if r3.Dot(n2, n3) < 0 || r3.Dot(n3, n4) < 0 {
			return false
		}
		hand := 2
		if r3.Dot(n2, r3.Sub(c, a[0])) < 0 {
			hand = 1
		}
		return isNot == (hand != order)
	case molecule.ChiralSquarePlanar:
		if len(a) < 4 {
			return false
		}
		// SP1 puts 1-3 and 2-4 trans, SP2 1-2 and 3-4, SP3 1-4 and 2-3.
		var actual int
		switch {
		case isDiaxial(c, a[0], a[2]) && isDiaxial(c, a[1], a[3]):
			actual = 1
		case isDiaxial(c, a[0], a[1]) && isDiaxial(c, a[2], a[3]):
			actual = 2
		case isDiaxial(c, a[0], a[3]) && isDiaxial(c, a[1], a[2]):
			actual = 3
		default:
			return false
		}
		return isNot == (actual != order)
	}
	return true
}

// polyhedralOK checks @PH neighbour orders: looking down each listed slot,
// the torsions of the remaining slots must increase in declared order.
func (s *search) polyhedralOK(pa *pattern.Atom, isNot bool) bool {
	keys, ok := s.stereoSlots(pa)
	if !ok {
		return true
	}
	centre, has := s.sc.position(s.matching[pa.Index])
	if !has {
		return false
	}
	pts, ok := s.slotPoints(keys)
	if !ok {
		return false
	}
	orders := pa.Stereo.PolyhedralOrders
	for j := len(orders) - 1; j >= 0; j-- {
		o := orders[j]
		if len(o) < 2 {
			continue
		}
		if j >= len(pts) {
			return false
		}
		for _, k := range o {
			if k >= len(pts) {
				return false
			}
		}
		ta1 := pts[j]
		ta2 := pts[o[0]]
		flast := 0.0
		if isNot {
			flast = math.MaxFloat64
		}
		for k := 1; k < len(o); k++ {
			f := torsion(pts[o[k]], ta1, centre, ta2)
			if math.IsNaN(f) {
				f = 180
			}
			if len(o) == 2 {
				return (f < 0) != isNot
			}
			if f < 0 {
				f += 360
			}
			if (f < flast) != isNot {
				return false
			}
			flast = f
		}
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Allenes and cumulenes
// ─────────────────────────────────────────────────────────────────────────────

// alleneOK walks out from the centre to the two cumulene ends and checks the
// tetrahedral rule on their four substituents.
func (s *search) alleneOK(pa *pattern.Atom) bool {
	if len(pa.Bonds) != 2 {
		return true
	}
	end1 := s.p.Bonds[pa.Bonds[0]].OtherAtom(pa.Index)
	end2 := s.p.Bonds[pa.Bonds[1]].OtherAtom(pa.Index)
	prev1, prev2 := pa.Index, pa.Index
	for s.cumulated(end1) && s.cumulated(end2) {
		end1, prev1 = s.beyond(end1, prev1), end1
		end2, prev2 = s.beyond(end2, prev2), end2
	}

	jn := [4]int{noSlot, noSlot, noSlot, noSlot}
	s.alleneSubstituents(end1, jn[:2])
	if n := len(s.p.Atoms[end2].Bonds); n < 2 || n > 3 {
		return true
	}
	s.alleneSubstituents(end2, jn[2:])
	if jn[1] == noSlot {
		s.fillAlleneSlot(&jn, 1, end1)
	}
	if jn[3] == noSlot {
		s.fillAlleneSlot(&jn, 3, end2)
	}
	for _, k := range jn {
		if k == noSlot {
			return false
		}
	}

	c := s.matching[pa.Index]
	order := pa.Stereo.Order
	if centre, has := s.sc.position(c); has {
		pts, ok := s.slotPoints(jn[:])
		return ok && chiralityHolds(pa.Not, molecule.ChiralTetrahedral, order, centre, pts)
	}
	ts := s.sc.topoStereo(c)
	if ts == nil || ts.ChiralClass() != molecule.ChiralAllene {
		return false
	}
	target := s.targetAlleneOrder(c)
	pts, ok := layoutPoints(jn[:], target, stereoLayout(molecule.ChiralAllene, ts.ChiralOrder(), len(target)))
	return ok && chiralityHolds(pa.Not, molecule.ChiralTetrahedral, order, r3.Vec{}, pts)
}

// cumulated reports an interior cumulene atom: two pattern bonds, both
// matched to target double bonds.
func (s *search) cumulated(k int) bool {
	a := s.p.Atoms[k]
	if len(a.Bonds) != 2 {
		return false
	}
	for _, nb := range s.p.NeighbourAtoms(k) {
		e := s.sc.edgeBetween(s.matching[k], s.matching[nb])
		if e == nil || e.CovalentOrder() != 2 {
			return false
		}
	}
	return true
}

func (s *search) beyond(k, prev int) int {
	for _, nb := range s.p.NeighbourAtoms(k) {
		if nb != prev {
			return nb
		}
	}
	return prev
}

// alleneSubstituents fills dst with the matched non-double-bonded
// neighbours of pattern atom end, in pattern order.
func (s *search) alleneSubstituents(end int, dst []int) {
	t := s.matching[end]
	n := 0
	for _, nb := range s.p.NeighbourAtoms(end) {
		tn := s.matching[nb]
		if e := s.sc.edgeBetween(t, tn); e != nil && e.CovalentOrder() == 2 {
			continue
		}
		if n < len(dst) {
			dst[n] = tn
			n++
		}
	}
}

// fillAlleneSlot supplies a substituent the pattern leaves implicit: another
// target neighbour of the end atom, else its implicit hydrogen. The filled
// slot moves ahead of its partner when the end atom opens the pattern or
// when it is the second end.
func (s *search) fillAlleneSlot(jn *[4]int, pt, end int) {
	t := s.matching[end]
	node := s.sc.atoms[t]
	fill := hydrogenKey(t)
	for e, edge := range node.Edges() {
		if !edge.IsCovalent() || edge.CovalentOrder() == 2 {
			continue
		}
		if j := node.BondedAtomIndex(e); j != jn[pt-1] {
			fill = j
			break
		}
	}
	jn[pt] = fill
	if s.p.Atoms[end].IsFirst || pt == 3 {
		jn[pt], jn[pt-1] = jn[pt-1], jn[pt]
	}
}

// targetAlleneOrder is the descriptor order of a topological allene centre:
// the substituents of the first cumulene end, then of the second, each end
// listing covalent neighbours in bond order followed by its implicit
// hydrogen.
func (s *search) targetAlleneOrder(c int) []int {
	var ends, prevs []int
	node := s.sc.atoms[c]
	for e, edge := range node.Edges() {
		if edge.CovalentOrder() == 2 {
			ends = append(ends, node.BondedAtomIndex(e))
			prevs = append(prevs, c)
		}
	}
	if len(ends) != 2 {
		return nil
	}
	for s.targetCumulated(ends[0]) && s.targetCumulated(ends[1]) {
		for k := range ends {
			nextEnd := s.targetBeyond(ends[k], prevs[k])
			prevs[k], ends[k] = ends[k], nextEnd
		}
	}
	var order []int
	for k, end := range ends {
		n := s.sc.atoms[end]
		count := 0
		for e, edge := range n.Edges() {
			if !edge.IsCovalent() || edge.OtherAtomIndex(end) == prevs[k] {
				continue
			}
			order = append(order, n.BondedAtomIndex(e))
			count++
		}
		if count < 2 && n.ImplicitHydrogenCount() > 0 {
			order = append(order, hydrogenKey(end))
		}
	}
	return order
}

func (s *search) targetCumulated(a int) bool {
	node := s.sc.atoms[a]
	if node.CovalentBondCount() != 2 {
		return false
	}
	for _, e := range node.Edges() {
		if e.IsCovalent() && e.CovalentOrder() != 2 {
			return false
		}
	}
	return true
}

func (s *search) targetBeyond(a, prev int) int {
	for _, e := range s.sc.atoms[a].Edges() {
		if j := e.OtherAtomIndex(a); e.IsCovalent() && j != prev {
			return j
		}
	}
	return prev
}

// ─────────────────────────────────────────────────────────────────────────────
// Bond stereochemistry
// ─────────────────────────────────────────────────────────────────────────────

// doubleBondOK checks cis/trans around a pattern double bond flanked by
// directional bonds. Every marked substituent on one end is checked against
// every marked substituent on the other, so markers that contradict each
// other on the same end never match.
func (s *search) doubleBondOK(pb *pattern.Bond) bool {
	side1 := s.directionalPartners(pb.Atom1, pb)
	side2 := s.directionalPartners(pb.Atom2, pb)
	if len(side1) == 0 || len(side2) == 0 {
		return true
	}
	x1, x2 := s.matching[pb.Atom1], s.matching[pb.Atom2]
	for _, p1 := range side1 {
		for _, p2 := range side2 {
			if !s.markedPairOK(x1, x2, p1, p2) {
				return false
			}
		}
	}
	return true
}

func (s *search) markedPairOK(x1, x2 int, p1, p2 directional) bool {
	y1, y2 := s.matching[p1.atom], s.matching[p2.atom]
	if pts, ok := s.slotPoints([]int{x1, y1, x2, y2}); ok {
		v1 := r3.Sub(pts[1], pts[0])
		v2 := r3.Sub(pts[3], pts[2])
		return r3.Dot(v1, v2)*float64(p1.dir*p2.dir) >= 0
	}
	s1, ok1 := s.targetDirection(x1, x2, y1)
	s2, ok2 := s.targetDirection(x2, x1, y2)
	if !ok1 || !ok2 {
		return false
	}
	return (s1*s2 > 0) == (p1.dir*p2.dir > 0)
}

// directional is a substituent reached over a "/" or "\" bond. dir is +1
// for "/" read from the double bond atom towards the substituent.
type directional struct {
	atom int
	dir  int
}

// directionalPartners lists the "/" and "\" bonds on pattern atom a other
// than db, in bond order.
func (s *search) directionalPartners(a int, db *pattern.Bond) []directional {
	var out []directional
	for _, bi := range s.p.Atoms[a].Bonds {
		b := s.p.Bonds[bi]
		if b == db || !b.Type().IsDirectional() {
			continue
		}
		dir := 1
		if b.Type() == pattern.BondDown {
			dir = -1
		}
		t := b.OtherAtom(a)
		if b.Atom2 != t {
			dir = -dir
		}
		out = append(out, directional{atom: t, dir: dir})
	}
	return out
}

// targetDirection reads the near/far marker on a target bond leaving x (other
// than the double bond to other), oriented from x outwards and expressed for
// substituent y.
func (s *search) targetDirection(x, other, y int) (int, bool) {
	for _, e := range s.sc.atoms[x].Edges() {
		far := e.OtherAtomIndex(x)
		if far == other {
			continue
		}
		var dir int
		switch e.Order() {
		case molecule.BondStereoNear:
			dir = 1
		case molecule.BondStereoFar:
			dir = -1
		default:
			continue
		}
		if e.AtomIndex2() != far {
			dir = -dir
		}
		if far != y {
			dir = -dir
		}
		return dir, true
	}
	return 0, false
}

// atropisomerOK checks the torsion sign across a hindered single bond:
// order 1 is a positive torsion, order 2 negative.
func (s *search) atropisomerOK(pb *pattern.Bond) bool {
	refA := s.beyond(pb.Atom1, pb.Atom2)
	refB := s.beyond(pb.Atom2, pb.Atom1)
	if refA == pb.Atom2 || refB == pb.Atom1 {
		return true
	}
	pts, ok := s.slotPoints([]int{s.matching[refA], s.matching[pb.Atom1], s.matching[pb.Atom2], s.matching[refB]})
	if !ok {
		return false
	}
	f := torsion(pts[0], pts[1], pts[2], pts[3])
	if math.IsNaN(f) {
		return false
	}
	switch pb.AtropOrder {
	case 1:
		return f > 0 && f < 180
	case 2:
		return f < 0 && f > -180
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// Descriptor derivation
// ─────────────────────────────────────────────────────────────────────────────

// StereoFlag derives the chirality descriptor ("@", "@@", "@SP1".."@SP3")
// that neighbours, in the given order, form around centre. Fewer than three
// neighbours, or a planar arrangement fitting no square-planar order, yields
// an empty flag.
func StereoFlag(target molecule.Graph, centre int, neighbours []int) (string, error) {
	if target == nil {
		return "", errors.TargetInconsistent("target graph is nil")
	}
	n := target.AtomCount()
	point := func(i int) (r3.Vec, error) {
		if i < 0 || i >= n {
			return r3.Vec{}, errors.TargetInconsistent("atom %d outside 0..%d", i, n-1)
		}
		p, ok := target.Atom(i).Position()
		if !ok {
			return r3.Vec{}, errors.TargetInconsistent("atom %d has no coordinates", i)
		}
		return p, nil
	}
	c, err := point(centre)
	if err != nil {
		return "", err
	}
	pts := make([]r3.Vec, len(neighbours))
	for k, i := range neighbours {
		if pts[k], err = point(i); err != nil {
			return "", err
		}
	}
	handed := func(class molecule.ChiralClass) string {
		if chiralityHolds(false, class, 1, c, pts) {
			return "@"
		}
		return "@@"
	}
	switch {
	case len(pts) < 3:
		return "", nil
	case len(pts) == 3:
		return handed(molecule.ChiralTrigonalPyramidal), nil
	case len(pts) == 4 && math.Abs(distanceToPlane(pts[0], pts[1], pts[2], pts[3])) < 0.2:
		for order := 1; order <= 3; order++ {
			if chiralityHolds(false, molecule.ChiralSquarePlanar, order, c, pts) {
				return fmt.Sprintf("@SP%d", order), nil
			}
		}
		return "", nil
	default:
		return handed(molecule.ChiralTetrahedral), nil
	}
}

//Personal.AI order the ending
