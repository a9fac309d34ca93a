package gesture

import (
	"math"

	"github.com/golang/geo/r3"
)

// collinearEpsilon is the smallest axis length treated as non-degenerate.
const collinearEpsilon = 1e-9

func distance2D(a, b r3.Vector) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// IsNear reports whether both points are present and closer than th in 3D.
func IsNear(a, b *r3.Vector, th float64) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Distance(*b) < th
}

// IsFar reports whether both points are present and farther than th in 3D.
func IsFar(a, b *r3.Vector, th float64) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Distance(*b) > th
}

// IsNear2D is IsNear on the XY plane.
func IsNear2D(a, b *r3.Vector, th float64) bool {
	if a == nil || b == nil {
		return false
	}
	return distance2D(*a, *b) < th
}

func midpoint(a, b r3.Vector) r3.Vector {
	return a.Add(b).Mul(0.5)
}

// TriangleCenter returns the midpoint between c and the midpoint of a and b.
// This is not the centroid.
func TriangleCenter(a, b, c *r3.Vector) (r3.Vector, bool) {
	if a == nil || b == nil || c == nil {
		return r3.Vector{}, false
	}
	return midpoint(midpoint(*a, *b), *c), true
}

// TriangleCenterWithAxis returns a frame at TriangleCenter(a, b, c) with X
// along a→b, Y toward c from the midpoint of a and b, and Z = X × Y. Y is
// re-derived from Z and X so the axes are orthonormal even when c is not on
// the perpendicular bisector of a and b. Collinear points have no frame.
func TriangleCenterWithAxis(a, b, c *r3.Vector) (Transform, bool) {
	center, ok := TriangleCenter(a, b, c)
	if !ok {
		return Transform{}, false
	}

	x := b.Sub(*a)
	y := c.Sub(midpoint(*a, *b))
	if x.Norm() < collinearEpsilon || y.Norm() < collinearEpsilon {
		return Transform{}, false
	}
	x = x.Normalize()
	z := x.Cross(y.Normalize())
	if z.Norm() < collinearEpsilon {
		return Transform{}, false
	}
	z = z.Normalize()
	y = z.Cross(x)

	return Transform{X: x, Y: y, Z: z, Origin: center}, true
}
