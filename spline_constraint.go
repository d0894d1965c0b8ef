package nova

// SplineConstraint softly pulls a body-local anchor toward the nearest
// point on a Catmull-Rom spline through ControlPoints, per §9's open
// question on curve family: Catmull-Rom is chosen because it passes
// through every control point (unlike a B-spline) without the per-segment
// tangent bookkeeping a Bezier chain would need.
type SplineConstraint struct {
	Body         *RigidBody
	LocalAnchor  Vector2
	ControlPoints []Vector2
	Stiffness    float64
	Damping      float64

	// Samples controls how finely each segment is scanned for the nearest
	// point; higher is more accurate and more expensive.
	Samples int

	r          Vector2
	normal     Vector2
	mass       float64
	gamma, beta float64
	currentDist float64

	AccumulatedImpulse float64
}

func NewSplineConstraint(body *RigidBody, localAnchor Vector2, controlPoints []Vector2, stiffness, damping float64) *SplineConstraint {
	return &SplineConstraint{
		Body: body, LocalAnchor: localAnchor, ControlPoints: controlPoints,
		Stiffness: stiffness, Damping: damping, Samples: 16,
	}
}

// SetControlPoints replaces the spline's control points. The constraint
// re-projects its anchor against the new curve on the next presolve, so the
// swap is safe between steps.
func (sc *SplineConstraint) SetControlPoints(pts []Vector2) {
	sc.ControlPoints = pts
}

// catmullRom evaluates the Catmull-Rom spline through pts at parameter t in
// segment [seg, seg+1), clamping endpoint tangents by repeating the first
// and last control points.
func catmullRom(pts []Vector2, seg int, t float64) Vector2 {
	n := len(pts)
	p0 := pts[clampIndex(seg-1, n)]
	p1 := pts[clampIndex(seg, n)]
	p2 := pts[clampIndex(seg+1, n)]
	p3 := pts[clampIndex(seg+2, n)]

	t2 := t * t
	t3 := t2 * t

	x := 0.5 * ((2 * p1.X) +
		(-p0.X+p2.X)*t +
		(2*p0.X-5*p1.X+4*p2.X-p3.X)*t2 +
		(-p0.X+3*p1.X-3*p2.X+p3.X)*t3)
	y := 0.5 * ((2 * p1.Y) +
		(-p0.Y+p2.Y)*t +
		(2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*t2 +
		(-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*t3)
	return Vec2(x, y)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// nearestSplinePoint scans every segment at Samples resolution and returns
// the closest sampled point to target.
func (sc *SplineConstraint) nearestSplinePoint(target Vector2) Vector2 {
	pts := sc.ControlPoints
	if len(pts) < 2 {
		if len(pts) == 1 {
			return pts[0]
		}
		return target
	}

	best := pts[0]
	bestDistSqr := Inf
	segments := len(pts) - 1
	samples := sc.Samples
	if samples < 1 {
		samples = 1
	}

	for seg := 0; seg < segments; seg++ {
		for i := 0; i <= samples; i++ {
			t := float64(i) / float64(samples)
			p := catmullRom(pts, seg, t)
			d := p.DistSqr(target)
			if d < bestDistSqr {
				bestDistSqr = d
				best = p
			}
		}
	}
	return best
}

func (sc *SplineConstraint) Presolve(s *Space, dt, invDt float64) {
	b := sc.Body
	sc.r = worldAnchor(b, sc.LocalAnchor)
	anchor := anchorWorldPoint(b, sc.r)

	target := sc.nearestSplinePoint(anchor)
	d := target.Sub(anchor)

	dist := d.Len()
	sc.currentDist = dist
	if dist < 1e-9 {
		sc.normal = Vec2(1, 0)
	} else {
		sc.normal = d.Scale(1 / dist)
	}

	crN := sc.r.Cross(sc.normal)
	k := b.invMass + crN*crN*b.invInertia

	sc.gamma, sc.beta = softnessParams(sc.Stiffness, sc.Damping, dt)
	denom := k + sc.gamma
	if denom > 0 {
		sc.mass = 1 / denom
	} else {
		sc.mass = 0
	}
}

func (sc *SplineConstraint) Warmstart(s *Space) {
	b := sc.Body
	p := sc.normal.Scale(sc.AccumulatedImpulse)
	b.linearVelocity = b.linearVelocity.Add(p.Scale(b.invMass))
	b.angularVelocity += b.invInertia * sc.r.Cross(p)
}

func (sc *SplineConstraint) Solve(invDt float64) {
	b := sc.Body
	pointVel := b.linearVelocity.Add(CrossVS(b.angularVelocity, sc.r))
	// C is minus the anchor-to-target distance, so it rises toward zero as
	// the anchor approaches the (world-stationary) target, and Cdot is the
	// anchor's velocity projected onto the (anchor -> target) normal.
	cDot := pointVel.Dot(sc.normal)

	c := -sc.currentDist
	bias := sc.beta*invDt*c + sc.gamma*sc.AccumulatedImpulse

	lambda := -(cDot + bias) * sc.mass
	sc.AccumulatedImpulse += lambda

	p := sc.normal.Scale(lambda)
	b.linearVelocity = b.linearVelocity.Add(p.Scale(b.invMass))
	b.angularVelocity += b.invInertia * sc.r.Cross(p)
}
