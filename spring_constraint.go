package nova

// Spring is a soft distance constraint: the same geometric constraint as
// DistanceJoint, but solved with the gamma/beta softness parameters
// derived from a stiffness/damping pair instead of hard Baumgarte bias,
// per §4.6.
type Spring struct {
	BodyA, BodyB *RigidBody
	LocalAnchorA Vector2
	LocalAnchorB Vector2
	Length       float64
	Stiffness    float64
	Damping      float64

	rA, rB        Vector2
	normal        Vector2
	mass          float64
	currentLength float64
	gamma, beta   float64

	AccumulatedImpulse float64
}

func NewSpring(a, b *RigidBody, localAnchorA, localAnchorB Vector2, length, stiffness, damping float64) *Spring {
	return &Spring{
		BodyA: a, BodyB: b,
		LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB,
		Length: length, Stiffness: stiffness, Damping: damping,
	}
}

func (sp *Spring) Presolve(s *Space, dt, invDt float64) {
	sp.rA = worldAnchor(sp.BodyA, sp.LocalAnchorA)
	sp.rB = worldAnchor(sp.BodyB, sp.LocalAnchorB)

	pA := anchorWorldPoint(sp.BodyA, sp.rA)
	pB := anchorWorldPoint(sp.BodyB, sp.rB)
	d := pB.Sub(pA)

	length := d.Len()
	if length < 1e-9 {
		sp.normal = Vec2(1, 0)
	} else {
		sp.normal = d.Scale(1 / length)
	}
	sp.currentLength = length

	k := pointEffectiveMass(sp.BodyA, sp.BodyB, sp.rA, sp.rB, sp.normal)
	sp.gamma, sp.beta = softnessParams(sp.Stiffness, sp.Damping, dt)

	denom := k + sp.gamma
	if denom > 0 {
		sp.mass = 1 / denom
	} else {
		sp.mass = 0
	}
}

func (sp *Spring) Warmstart(s *Space) {
	p := sp.normal.Scale(sp.AccumulatedImpulse)
	applyJointImpulse(sp.BodyA, sp.BodyB, p, sp.rA, sp.rB)
}

func (sp *Spring) Solve(invDt float64) {
	relVel := relativeVelocity(sp.BodyA, sp.BodyB, sp.rA, sp.rB)
	cDot := relVel.Dot(sp.normal)

	c := sp.currentLength - sp.Length
	bias := sp.beta*invDt*c + sp.gamma*sp.AccumulatedImpulse

	lambda := -(cDot + bias) * sp.mass
	sp.AccumulatedImpulse += lambda

	applyJointImpulse(sp.BodyA, sp.BodyB, sp.normal.Scale(lambda), sp.rA, sp.rB)
}
