package nova

import "math"

// MaxPolygonVertices is the fixed capacity carried over from the later
// incarnation of the source engine, which replaced dynamically-sized
// vertex arrays with a fixed-capacity buffer.
const MaxPolygonVertices = 16

// ShapeKind discriminates the Shape sum type.
type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapePolygon
)

// Shape is a tagged union of Circle and Polygon payloads, carrying a
// body-local offset and a cache of its world-space vertices that is only
// valid immediately after a call to Transform.
type Shape struct {
	ID   uint32
	Kind ShapeKind

	// Circle payload.
	Center Vector2
	Radius float64

	// Polygon payload. Vertices/Normals are body-local (already offset by
	// the construction-time offset); WorldVertices is the transform cache.
	Vertices      [MaxPolygonVertices]Vector2
	Normals       [MaxPolygonVertices]Vector2
	WorldVertices [MaxPolygonVertices]Vector2
	Count         int

	// body is set once the shape is attached to a RigidBody via AddShape.
	body *RigidBody
}

var shapeIDCounter uint32

func nextShapeID() uint32 {
	shapeIDCounter++
	return shapeIDCounter
}

// NewCircle constructs a circle shape with a body-local center and radius.
func NewCircle(center Vector2, radius float64) (*Shape, error) {
	if radius <= 0 {
		return nil, newError(InvalidShape, "circle radius must be positive, got %v", radius)
	}
	return &Shape{
		ID:     nextShapeID(),
		Kind:   ShapeCircle,
		Center: center,
		Radius: radius,
	}, nil
}

// NewPolygon constructs a convex polygon shape from vertices given in any
// order. The vertices are re-wound CCW, offset by offset, and validated to
// have between 3 and MaxPolygonVertices points.
func NewPolygon(vertices []Vector2, offset Vector2) (*Shape, error) {
	if len(vertices) < 3 {
		return nil, newError(InvalidShape, "polygon needs at least 3 vertices, got %d", len(vertices))
	}
	if len(vertices) > MaxPolygonVertices {
		return nil, newError(InvalidShape, "polygon exceeds %d vertices, got %d", MaxPolygonVertices, len(vertices))
	}

	offsetVerts := make([]Vector2, len(vertices))
	for i, v := range vertices {
		offsetVerts[i] = v.Add(offset)
	}

	ordered := ensureCCW(offsetVerts)

	s := &Shape{
		ID:    nextShapeID(),
		Kind:  ShapePolygon,
		Count: len(ordered),
	}
	copy(s.Vertices[:], ordered)
	s.computeNormals()
	return s, nil
}

// NewRect constructs an axis-aligned rectangle as a CCW polygon centered on
// offset.
func NewRect(w, h float64, offset Vector2) (*Shape, error) {
	hw, hh := w/2, h/2
	verts := []Vector2{
		{-hw, -hh},
		{hw, -hh},
		{hw, hh},
		{-hw, hh},
	}
	return NewPolygon(verts, offset)
}

// NewNGon constructs a regular n-sided polygon of circumradius r.
func NewNGon(n int, r float64, offset Vector2) (*Shape, error) {
	if n < 3 {
		return nil, newError(InvalidShape, "ngon needs at least 3 sides, got %d", n)
	}
	verts := make([]Vector2, n)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		verts[i] = Vec2(r*math.Cos(a), r*math.Sin(a))
	}
	return NewPolygon(verts, offset)
}

// NewConvexHull computes the convex hull of the given points using gift
// wrapping and builds a polygon from it. Points closer together than a
// welding tolerance are treated as duplicates.
func NewConvexHull(points []Vector2, offset Vector2) (*Shape, error) {
	hull, err := giftWrapHull(points)
	if err != nil {
		return nil, err
	}
	return NewPolygon(hull, offset)
}

const weldTolerance = 1e-6

func giftWrapHull(points []Vector2) ([]Vector2, error) {
	welded := make([]Vector2, 0, len(points))
	for _, p := range points {
		dup := false
		for _, q := range welded {
			if p.DistSqr(q) < weldTolerance*weldTolerance {
				dup = true
				break
			}
		}
		if !dup {
			welded = append(welded, p)
		}
	}
	n := len(welded)
	if n < 3 {
		return nil, newError(InvalidShape, "convex hull needs at least 3 distinct points, got %d", n)
	}

	i0 := 0
	for i := 1; i < n; i++ {
		if welded[i].X > welded[i0].X || (welded[i].X == welded[i0].X && welded[i].Y < welded[i0].Y) {
			i0 = i
		}
	}

	hullIdx := make([]int, 0, MaxPolygonVertices)
	ih := i0
	for {
		if len(hullIdx) >= MaxPolygonVertices {
			return nil, newError(InvalidShape, "convex hull exceeds %d vertices", MaxPolygonVertices)
		}
		hullIdx = append(hullIdx, ih)

		ie := 0
		for j := 1; j < n; j++ {
			if ie == ih {
				ie = j
				continue
			}
			r := welded[ie].Sub(welded[hullIdx[len(hullIdx)-1]])
			v := welded[j].Sub(welded[hullIdx[len(hullIdx)-1]])
			c := r.Cross(v)
			if c < 0 || (c == 0 && v.LenSqr() > r.LenSqr()) {
				ie = j
			}
		}

		ih = ie
		if ie == i0 {
			break
		}
	}

	if len(hullIdx) < 3 {
		return nil, newError(InvalidShape, "convex hull degenerate")
	}

	out := make([]Vector2, len(hullIdx))
	for i, idx := range hullIdx {
		out[i] = welded[idx]
	}
	return out, nil
}

// ensureCCW returns verts re-wound counter-clockwise if the signed area is
// negative (CW), otherwise returns them unchanged.
func ensureCCW(verts []Vector2) []Vector2 {
	area := signedArea(verts)
	if area >= 0 {
		return verts
	}
	rev := make([]Vector2, len(verts))
	for i, v := range verts {
		rev[len(verts)-1-i] = v
	}
	return rev
}

func signedArea(verts []Vector2) float64 {
	sum := 0.0
	n := len(verts)
	for i := 0; i < n; i++ {
		a := verts[i]
		b := verts[(i+1)%n]
		sum += a.Cross(b)
	}
	return sum / 2
}

func (s *Shape) computeNormals() {
	n := s.Count
	for i := 0; i < n; i++ {
		edge := s.Vertices[(i+1)%n].Sub(s.Vertices[i])
		assert(edge.LenSqr() > 1e-20, "polygon edge %d has zero length", i)
		s.Normals[i] = edge.PerpRight().Normalized()
	}
}

// Transform writes the world-space vertex cache for polygon shapes. It is a
// no-op for circles, whose world position is computed on demand from the
// owning body's pose.
func (s *Shape) Transform(xf Transform) {
	if s.Kind != ShapePolygon {
		return
	}
	for i := 0; i < s.Count; i++ {
		s.WorldVertices[i] = xf.Apply(s.Vertices[i])
	}
}

// AABB returns the shape's axis-aligned bounding box under the given
// transform. For polygons this assumes Transform has just been called with
// the same xf.
func (s *Shape) AABB(xf Transform) AABB {
	switch s.Kind {
	case ShapeCircle:
		c := xf.Apply(s.Center)
		return AABB{c.X - s.Radius, c.Y - s.Radius, c.X + s.Radius, c.Y + s.Radius}
	default:
		box := AABB{Inf, Inf, -Inf, -Inf}
		for i := 0; i < s.Count; i++ {
			v := s.WorldVertices[i]
			box.MinX = math.Min(box.MinX, v.X)
			box.MinY = math.Min(box.MinY, v.Y)
			box.MaxX = math.Max(box.MaxX, v.X)
			box.MaxY = math.Max(box.MaxY, v.Y)
		}
		return box
	}
}

// WorldNormal returns the i-th face normal rotated into world space.
func (s *Shape) WorldNormal(i int, angle float64) Vector2 {
	return s.Normals[i].Rotated(angle)
}

// area and centroid feed RigidBody's mass computation (§4.3). Circle: exact
// formulas. Polygon: shoelace area and the standard polygon centroid
// formula, both in body-local coordinates.
func (s *Shape) area() float64 {
	switch s.Kind {
	case ShapeCircle:
		return math.Pi * s.Radius * s.Radius
	default:
		return math.Abs(signedArea(s.Vertices[:s.Count]))
	}
}

func (s *Shape) centroid() Vector2 {
	switch s.Kind {
	case ShapeCircle:
		return s.Center
	default:
		var cx, cy, a float64
		n := s.Count
		for i := 0; i < n; i++ {
			p0 := s.Vertices[i]
			p1 := s.Vertices[(i+1)%n]
			cross := p0.Cross(p1)
			a += cross
			cx += (p0.X + p1.X) * cross
			cy += (p0.Y + p1.Y) * cross
		}
		a *= 0.5
		if a == 0 {
			return Vector2{}
		}
		return Vec2(cx/(6*a), cy/(6*a))
	}
}

// momentOfInertiaPerMass returns I/m about the shape's own centroid.
func (s *Shape) momentOfInertiaPerMass() float64 {
	switch s.Kind {
	case ShapeCircle:
		return 0.5 * s.Radius * s.Radius
	default:
		// Standard polygon second moment of area formula, normalized by area.
		var numer, denom float64
		c := s.centroid()
		n := s.Count
		for i := 0; i < n; i++ {
			p0 := s.Vertices[i].Sub(c)
			p1 := s.Vertices[(i+1)%n].Sub(c)
			cross := math.Abs(p0.Cross(p1))
			term := p0.Dot(p0) + p0.Dot(p1) + p1.Dot(p1)
			numer += cross * term
			denom += cross
		}
		if denom == 0 {
			return 0
		}
		return numer / (6 * denom)
	}
}
