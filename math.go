package nova

import "math"

// Inf is the engine's representation of positive infinity, used as the
// starting value for separation/distance minimization loops.
const Inf = math.MaxFloat64

// Vector2 is a 2D vector or point. It is a value type throughout the engine;
// nothing holds a pointer to a Vector2.
type Vector2 struct {
	X, Y float64
}

// Vec2 constructs a Vector2 from its components.
func Vec2(x, y float64) Vector2 {
	return Vector2{X: x, Y: y}
}

func (v Vector2) Add(o Vector2) Vector2 {
	return Vector2{v.X + o.X, v.Y + o.Y}
}

func (v Vector2) Sub(o Vector2) Vector2 {
	return Vector2{v.X - o.X, v.Y - o.Y}
}

func (v Vector2) Neg() Vector2 {
	return Vector2{-v.X, -v.Y}
}

func (v Vector2) Scale(s float64) Vector2 {
	return Vector2{v.X * s, v.Y * s}
}

func (v Vector2) Dot(o Vector2) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Cross returns the scalar (z-component) cross product of two 2D vectors.
func (v Vector2) Cross(o Vector2) float64 {
	return v.X*o.Y - v.Y*o.X
}

func (v Vector2) LenSqr() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vector2) Len() float64 {
	return math.Sqrt(v.LenSqr())
}

func (v Vector2) DistSqr(o Vector2) float64 {
	return v.Sub(o).LenSqr()
}

func (v Vector2) Dist(o Vector2) float64 {
	return v.Sub(o).Len()
}

// Normalized returns the unit vector in the direction of v, or the zero
// vector if v has zero length.
func (v Vector2) Normalized() Vector2 {
	l := v.Len()
	if l == 0 {
		return Vector2{}
	}
	return v.Scale(1 / l)
}

// Rotated returns v rotated counter-clockwise by angle radians.
func (v Vector2) Rotated(angle float64) Vector2 {
	s, c := math.Sincos(angle)
	return Vector2{
		X: c*v.X - s*v.Y,
		Y: s*v.X + c*v.Y,
	}
}

// PerpRight returns v rotated -90 degrees: (y, -x).
func (v Vector2) PerpRight() Vector2 {
	return Vector2{v.Y, -v.X}
}

// PerpLeft returns v rotated +90 degrees: (-y, x).
func (v Vector2) PerpLeft() Vector2 {
	return Vector2{-v.Y, v.X}
}

// CrossVS returns the vector cross product of a scalar (angular velocity)
// and a vector, i.e. omega x v = (-omega*v.y, omega*v.x).
func CrossVS(omega float64, v Vector2) Vector2 {
	return Vector2{-omega * v.Y, omega * v.X}
}

func (v Vector2) IsValid() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Transform is a rigid 2D pose: a translation plus a rotation, applied as
// rotate-then-translate.
type Transform struct {
	Position Vector2
	Angle    float64
}

// Apply transforms a body-local point into world space.
func (t Transform) Apply(p Vector2) Vector2 {
	return p.Rotated(t.Angle).Add(t.Position)
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	MinX, MinY, MaxX, MaxY float64
}

// Overlaps reports whether two AABBs intersect, including touching edges.
func (a AABB) Overlaps(b AABB) bool {
	if a.MaxX < b.MinX || b.MaxX < a.MinX {
		return false
	}
	if a.MaxY < b.MinY || b.MaxY < a.MinY {
		return false
	}
	return true
}

// Contains reports whether b lies entirely within a.
func (a AABB) Contains(b AABB) bool {
	return a.MinX <= b.MinX && a.MinY <= b.MinY && a.MaxX >= b.MaxX && a.MaxY >= b.MaxY
}

func (a AABB) Merge(b AABB) AABB {
	return AABB{
		MinX: math.Min(a.MinX, b.MinX),
		MinY: math.Min(a.MinY, b.MinY),
		MaxX: math.Max(a.MaxX, b.MaxX),
		MaxY: math.Max(a.MaxY, b.MaxY),
	}
}

// Mat22 is a 2x2 matrix stored by column, used by the hinge constraint's
// point-to-point block solve.
type Mat22 struct {
	Col1, Col2 Vector2
}

func (m Mat22) Solve(b Vector2) Vector2 {
	a11, a12, a21, a22 := m.Col1.X, m.Col2.X, m.Col1.Y, m.Col2.Y
	det := a11*a22 - a12*a21
	if det != 0 {
		det = 1 / det
	}
	return Vector2{
		X: det * (a22*b.X - a12*b.Y),
		Y: det * (a11*b.Y - a21*b.X),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
