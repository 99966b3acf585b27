package substructure

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// normalThrough returns the unit normal of the plane through a, b and c and
// the plane offset w, so that n·x + w = 0 for points x on the plane.
func normalThrough(a, b, c r3.Vec) (r3.Vec, float64) {
	n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
	if l := r3.Norm(n); l > 0 {
		n = r3.Scale(1/l, n)
	}
	return n, -r3.Dot(a, n)
}

// handedness is 1 ("@") when pt lies on the positive side of the plane
// wound a -> b -> c, otherwise 2 ("@@").
func handedness(a, b, c, pt r3.Vec) int {
	n, w := normalThrough(a, b, c)
	if r3.Dot(n, pt)+w > 0 {
		return 1
	}
	return 2
}

// distanceToPlane is the signed distance of pt from the plane through a, b
// and c.
func distanceToPlane(a, b, c, pt r3.Vec) float64 {
	n, w := normalThrough(a, b, c)
	return r3.Dot(n, pt) + w
}

// diaxialCos is the cosine bound (about 172 degrees) for an axial pair.
const diaxialCos = -0.95

// isDiaxial reports whether a1 and a2 sit on opposite sides of the centre.
func isDiaxial(centre, a1, a2 r3.Vec) bool {
	u := unit(r3.Sub(centre, a1))
	v := unit(r3.Sub(centre, a2))
	return r3.Dot(u, v) < diaxialCos
}

// planeNormals returns the normals of the triangles 1-2-3, 2-3-4 and 3-4-1.
func planeNormals(a1, a2, a3, a4 r3.Vec) (r3.Vec, r3.Vec, r3.Vec) {
	n1, _ := normalThrough(a1, a2, a3)
	n2, _ := normalThrough(a2, a3, a4)
	n3, _ := normalThrough(a3, a4, a1)
	return n1, n2, n3
}

// torsion returns the dihedral angle p1-p2-p3-p4 in degrees, in (-180, 180],
// or NaN when three of the points are collinear.
func torsion(p1, p2, p3, p4 r3.Vec) float64 {
	b1 := r3.Sub(p2, p1)
	b2 := r3.Sub(p3, p2)
	b3 := r3.Sub(p4, p3)
	n1 := r3.Cross(b1, b2)
	n2 := r3.Cross(b2, b3)
	if r3.Norm(n1) == 0 || r3.Norm(n2) == 0 {
		return math.NaN()
	}
	m := r3.Cross(n1, unit(b2))
	x := r3.Dot(n1, n2)
	y := r3.Dot(m, n2)
	return math.Atan2(y, x) * 180 / math.Pi
}

func unit(v r3.Vec) r3.Vec {
	if l := r3.Norm(v); l > 0 {
		return r3.Scale(1/l, v)
	}
	return v
}

// centroid returns the mean of pts.
func centroid(pts []r3.Vec) r3.Vec {
	var c r3.Vec
	for _, p := range pts {
		c = r3.Add(c, p)
	}
	if len(pts) > 0 {
		c = r3.Scale(1/float64(len(pts)), c)
	}
	return c
}

// reflectThrough returns centre + (centre - p): a point opposite p.
func reflectThrough(centre, p r3.Vec) r3.Vec {
	return r3.Sub(r3.Scale(2, centre), p)
}

//Personal.AI order the ending
