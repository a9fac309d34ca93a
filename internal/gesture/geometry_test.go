package gesture

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/hand"
)

func vp(x, y, z float64) *r3.Vector { return &r3.Vector{X: x, Y: y, Z: z} }

func TestTriangleCenter(t *testing.T) {
	t.Run("midpoint of apex and base midpoint", func(t *testing.T) {
		c, ok := TriangleCenter(vp(0, 0, 0), vp(2, 0, 0), vp(1, 4, 0))
		require.True(t, ok)
		assert.Equal(t, r3.Vector{X: 1, Y: 2, Z: 0}, c)
	})

	t.Run("not the centroid", func(t *testing.T) {
		c, ok := TriangleCenter(vp(0, 0, 0), vp(3, 0, 0), vp(0, 3, 0))
		require.True(t, ok)
		assert.Equal(t, r3.Vector{X: 0.75, Y: 1.5, Z: 0}, c)
	})

	t.Run("absent joint", func(t *testing.T) {
		_, ok := TriangleCenter(vp(0, 0, 0), nil, vp(0, 3, 0))
		assert.False(t, ok)
		_, ok = TriangleCenterWithAxis(nil, vp(0, 0, 0), vp(0, 3, 0))
		assert.False(t, ok)
	})
}

func assertOrthonormal(t *testing.T, tr Transform) {
	t.Helper()
	const tol = 1e-5
	axes := []r3.Vector{tr.X, tr.Y, tr.Z}
	for i, a := range axes {
		assert.InDelta(t, 1, a.Norm(), tol, "axis %d length", i)
		for j := i + 1; j < len(axes); j++ {
			assert.InDelta(t, 0, a.Dot(axes[j]), tol, "axes %d,%d", i, j)
		}
	}
	// right-handed
	assert.InDelta(t, 1, tr.X.Cross(tr.Y).Dot(tr.Z), tol)
}

func TestTriangleCenterWithAxis(t *testing.T) {
	t.Run("isosceles matches direct construction", func(t *testing.T) {
		tr, ok := TriangleCenterWithAxis(vp(0, 0, 0), vp(2, 0, 0), vp(1, 3, 0))
		require.True(t, ok)
		assert.InDelta(t, 1, tr.X.X, 1e-12)
		assert.InDelta(t, 1, tr.Y.Y, 1e-12)
		assert.InDelta(t, 1, tr.Z.Z, 1e-12)
		assert.Equal(t, r3.Vector{X: 1, Y: 1.5, Z: 0}, tr.Origin)

		m := tr.Matrix()
		assert.Equal(t, [4]float64{0, 0, 0, 1}, m[3])
		assert.Equal(t, 1.0, m[0][3])
		assert.Equal(t, 1.5, m[1][3])
	})

	t.Run("orthonormal for skewed triangles", func(t *testing.T) {
		triangles := [][3]*r3.Vector{
			{vp(0.28, 0.37, 0), vp(0.62, 0.58, 0), vp(0.5, 0.2, 0)},
			{vp(1, 2, 3), vp(-4, 0.5, 2), vp(7, 7, -1)},
			{vp(0, 0, 0), vp(1e-3, 0, 0), vp(5, 1e-3, 2)},
			{vp(-1, -1, -1), vp(1, 1, 1.5), vp(0.2, 3, -2)},
		}
		for _, tri := range triangles {
			tr, ok := TriangleCenterWithAxis(tri[0], tri[1], tri[2])
			require.True(t, ok)
			assertOrthonormal(t, tr)
		}
	})

	t.Run("collinear has no frame", func(t *testing.T) {
		_, ok := TriangleCenterWithAxis(vp(0, 0, 0), vp(1, 1, 1), vp(2, 2, 2))
		assert.False(t, ok)
		_, ok = TriangleCenterWithAxis(vp(1, 1, 1), vp(1, 1, 1), vp(2, 0, 0))
		assert.False(t, ok)
	})
}

func TestDistancePredicates(t *testing.T) {
	a, b := vp(0, 0, 0), vp(3, 4, 12)

	assert.True(t, IsNear(a, b, 13.1))
	assert.False(t, IsNear(a, b, 13), "strict")
	assert.False(t, IsFar(a, b, 13), "strict")
	assert.True(t, IsFar(a, b, 12.9))

	assert.True(t, IsNear2D(a, b, 5.1))
	assert.False(t, IsNear2D(a, b, 5))

	assert.False(t, IsNear(nil, b, math.Inf(1)))
	assert.False(t, IsFar(a, nil, -1))
	assert.False(t, IsNear2D(nil, nil, 1))
}

func TestBasePredicates(t *testing.T) {
	t.Run("straight and bend", func(t *testing.T) {
		b := NewBase(KindShaka)
		b.Observe(rightFrame(shakaHand()))

		assert.True(t, b.IsStraight(hand.Right, hand.Thumb))
		assert.True(t, b.IsStraight(hand.Right, hand.Little))
		assert.True(t, b.IsBend(hand.Right, hand.Index))
		assert.False(t, b.IsStraight(hand.Right, hand.Index))
	})

	t.Run("idempotent", func(t *testing.T) {
		b := NewBase(KindShaka)
		b.Observe(rightFrame(openHand()))
		for f := hand.Thumb; f < hand.Wrist; f++ {
			first := b.IsStraight(hand.Right, f)
			assert.Equal(t, first, b.IsStraight(hand.Right, f))
		}
	})

	t.Run("missing joint is false", func(t *testing.T) {
		h := openHand()
		h.Clear(hand.Index, hand.PIP)
		b := NewBase(KindShaka)
		b.Observe(rightFrame(h))
		assert.False(t, b.IsStraight(hand.Right, hand.Index))
		assert.False(t, b.IsBend(hand.Right, hand.Index))

		h.Clear(hand.Wrist, hand.Tip)
		assert.False(t, b.IsStraight(hand.Right, hand.Middle))
	})

	t.Run("single hand answers either side", func(t *testing.T) {
		var f hand.Frame
		f.Hands[hand.Left] = openHand()
		b := NewBase(KindShaka)
		b.Observe(f)
		assert.True(t, b.IsStraight(hand.Right, hand.Index))
		assert.True(t, b.IsStraight(hand.Left, hand.Index))
	})

	t.Run("two hands are looked up by side", func(t *testing.T) {
		var f hand.Frame
		f.Hands[hand.Right] = fistHand()
		f.Hands[hand.Left] = openHand()
		b := NewBase(KindShaka)
		b.Observe(f)
		assert.False(t, b.IsStraight(hand.Right, hand.Index))
		assert.True(t, b.IsStraight(hand.Left, hand.Index))
	})

	t.Run("saved frame", func(t *testing.T) {
		b := NewBase(KindShaka)
		b.Observe(rightFrame(openHand()))
		b.SaveFrame()
		b.Observe(hand.Frame{})

		assert.Nil(t, b.Point(hand.Right, hand.Index, hand.Tip))
		require.NotNil(t, b.LastPoint(hand.Right, hand.Index, hand.Tip))

		b.ClearSaved()
		assert.Nil(t, b.LastPoint(hand.Right, hand.Index, hand.Tip))
	})
}

func TestPointing(t *testing.T) {
	t.Run("vector (0,10) points up only", func(t *testing.T) {
		h := &hand.Hand{}
		h.Set(hand.Index, hand.Tip, r3.Vector{X: 0, Y: 10})
		h.Set(hand.Index, hand.MCP, r3.Vector{X: 0, Y: 0})
		b := NewBase(KindCursor)
		b.Observe(rightFrame(h))

		assert.True(t, b.IsPointingUp(hand.Right, hand.Index))
		assert.False(t, b.IsPointingDown(hand.Right, hand.Index))
		assert.False(t, b.IsPointingLeft(hand.Right, hand.Index))
		assert.False(t, b.IsPointingRight(hand.Right, hand.Index))
	})

	t.Run("ratio boundary", func(t *testing.T) {
		h := &hand.Hand{}
		h.Set(hand.Index, hand.Tip, r3.Vector{X: 1, Y: 5})
		h.Set(hand.Index, hand.MCP, r3.Vector{})
		b := NewBase(KindCursor)
		b.Observe(rightFrame(h))
		assert.False(t, b.IsPointingUp(hand.Right, hand.Index))

		b = NewBase(KindCursor, WithDirectionRatio(4))
		b.Observe(rightFrame(h))
		assert.True(t, b.IsPointingUp(hand.Right, hand.Index))
	})

	t.Run("absent joints point nowhere", func(t *testing.T) {
		h := &hand.Hand{}
		h.Set(hand.Index, hand.Tip, r3.Vector{X: -10})
		b := NewBase(KindCursor)
		b.Observe(rightFrame(h))

		dx, dy := b.PointingVector(hand.Right, hand.Index)
		assert.Zero(t, dx)
		assert.Zero(t, dy)
		assert.False(t, b.IsPointingLeft(hand.Right, hand.Index))
	})

	t.Run("left and right", func(t *testing.T) {
		b := NewBase(KindCursor)
		b.Observe(rightFrame(pointingHand(r3.Vector{X: 0.85, Y: 0.36})))
		assert.True(t, b.IsPointingRight(hand.Right, hand.Index))

		b.Observe(rightFrame(pointingHand(r3.Vector{X: 0.15, Y: 0.36})))
		assert.True(t, b.IsPointingLeft(hand.Right, hand.Index))
	})
}
