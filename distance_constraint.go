package nova

// DistanceJoint is a rigid two-body constraint holding the distance
// between two body-local anchors fixed at Length, per §4.6: C = |xA + rA -
// xB - rB| - L0 = 0, solved with Baumgarte stabilization (no softness).
type DistanceJoint struct {
	BodyA, BodyB *RigidBody
	LocalAnchorA Vector2
	LocalAnchorB Vector2
	Length       float64

	rA, rB        Vector2
	normal        Vector2
	mass          float64
	currentLength float64
	beta          float64

	AccumulatedImpulse float64
}

// NewDistanceJoint constructs a distance joint between the two bodies'
// local anchors, with Length defaulting to the anchors' current world
// separation if length <= 0.
func NewDistanceJoint(a, b *RigidBody, localAnchorA, localAnchorB Vector2, length float64) *DistanceJoint {
	if length <= 0 {
		pa := a.Transform().Apply(localAnchorA)
		pb := b.Transform().Apply(localAnchorB)
		length = pa.Dist(pb)
	}
	return &DistanceJoint{BodyA: a, BodyB: b, LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB, Length: length}
}

func (j *DistanceJoint) Presolve(s *Space, dt, invDt float64) {
	j.rA = worldAnchor(j.BodyA, j.LocalAnchorA)
	j.rB = worldAnchor(j.BodyB, j.LocalAnchorB)

	pA := anchorWorldPoint(j.BodyA, j.rA)
	pB := anchorWorldPoint(j.BodyB, j.rB)
	d := pB.Sub(pA)

	length := d.Len()
	if length < 1e-9 {
		j.normal = Vec2(1, 0)
	} else {
		j.normal = d.Scale(1 / length)
	}
	j.currentLength = length

	k := pointEffectiveMass(j.BodyA, j.BodyB, j.rA, j.rB, j.normal)
	if k > 0 {
		j.mass = 1 / k
	} else {
		j.mass = 0
	}

	j.beta = s.Settings.Baumgarte
}

func (j *DistanceJoint) Warmstart(s *Space) {
	p := j.normal.Scale(j.AccumulatedImpulse)
	applyJointImpulse(j.BodyA, j.BodyB, p, j.rA, j.rB)
}

func (j *DistanceJoint) Solve(invDt float64) {
	relVel := relativeVelocity(j.BodyA, j.BodyB, j.rA, j.rB)
	cDot := relVel.Dot(j.normal)

	c := j.currentLength - j.Length
	bias := j.beta * invDt * c

	lambda := -(cDot + bias) * j.mass
	j.AccumulatedImpulse += lambda

	applyJointImpulse(j.BodyA, j.BodyB, j.normal.Scale(lambda), j.rA, j.rB)
}

// applyJointImpulse applies impulse p to body a (negated) and b (positive)
// at their respective COM-relative anchors, the same convention the
// contact solver uses.
func applyJointImpulse(a, b *RigidBody, p Vector2, rA, rB Vector2) {
	a.linearVelocity = a.linearVelocity.Sub(p.Scale(a.invMass))
	a.angularVelocity -= a.invInertia * rA.Cross(p)
	b.linearVelocity = b.linearVelocity.Add(p.Scale(b.invMass))
	b.angularVelocity += b.invInertia * rB.Cross(p)
}
