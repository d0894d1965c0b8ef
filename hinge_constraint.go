package nova

import "math"

// Hinge is a revolute joint: a 2-DoF point-to-point constraint pinning two
// body-local anchors together, with an optional angle limit between
// LowerAngle and UpperAngle (EnableLimit), measured as b's angle minus a's
// angle minus ReferenceAngle, per §4.6.
type Hinge struct {
	BodyA, BodyB *RigidBody
	LocalAnchorA Vector2
	LocalAnchorB Vector2

	EnableLimit    bool
	LowerAngle     float64
	UpperAngle     float64
	ReferenceAngle float64

	rA, rB Vector2
	mass   Mat22
	beta   float64

	AccumulatedImpulse      Vector2
	AccumulatedLimitImpulse float64

	limitState limitState
}

type limitState int

const (
	limitInactive limitState = iota
	limitAtLower
	limitAtUpper
	limitEqual
)

func NewHinge(a, b *RigidBody, localAnchorA, localAnchorB Vector2) *Hinge {
	return &Hinge{BodyA: a, BodyB: b, LocalAnchorA: localAnchorA, LocalAnchorB: localAnchorB}
}

func (h *Hinge) Presolve(s *Space, dt, invDt float64) {
	a, b := h.BodyA, h.BodyB
	h.rA = worldAnchor(a, h.LocalAnchorA)
	h.rB = worldAnchor(b, h.LocalAnchorB)

	k11 := a.invMass + b.invMass + a.invInertia*h.rA.Y*h.rA.Y + b.invInertia*h.rB.Y*h.rB.Y
	k12 := -a.invInertia*h.rA.X*h.rA.Y - b.invInertia*h.rB.X*h.rB.Y
	k22 := a.invMass + b.invMass + a.invInertia*h.rA.X*h.rA.X + b.invInertia*h.rB.X*h.rB.X
	h.mass = Mat22{Col1: Vec2(k11, k12), Col2: Vec2(k12, k22)}

	h.beta = s.Settings.Baumgarte

	if h.EnableLimit {
		jointAngle := b.angle - a.angle - h.ReferenceAngle
		if h.UpperAngle-h.LowerAngle < 2*1e-5 {
			h.limitState = limitEqual
		} else if jointAngle <= h.LowerAngle {
			if h.limitState != limitAtLower {
				h.AccumulatedLimitImpulse = 0
			}
			h.limitState = limitAtLower
		} else if jointAngle >= h.UpperAngle {
			if h.limitState != limitAtUpper {
				h.AccumulatedLimitImpulse = 0
			}
			h.limitState = limitAtUpper
		} else {
			h.limitState = limitInactive
			h.AccumulatedLimitImpulse = 0
		}
	} else {
		h.limitState = limitInactive
		h.AccumulatedLimitImpulse = 0
	}
}

func (h *Hinge) Warmstart(s *Space) {
	applyJointImpulse(h.BodyA, h.BodyB, h.AccumulatedImpulse, h.rA, h.rB)

	if h.limitState != limitInactive {
		a, b := h.BodyA, h.BodyB
		a.angularVelocity -= a.invInertia * h.AccumulatedLimitImpulse
		b.angularVelocity += b.invInertia * h.AccumulatedLimitImpulse
	}
}

func (h *Hinge) Solve(invDt float64) {
	a, b := h.BodyA, h.BodyB

	if h.limitState != limitInactive {
		jointAngle := b.angle - a.angle - h.ReferenceAngle
		cDot := b.angularVelocity - a.angularVelocity

		var c float64
		switch h.limitState {
		case limitAtLower:
			c = jointAngle - h.LowerAngle
		case limitAtUpper:
			c = jointAngle - h.UpperAngle
		case limitEqual:
			c = jointAngle - h.LowerAngle
		}

		k := a.invInertia + b.invInertia
		var lambda float64
		if k > 0 {
			bias := h.beta * invDt * c
			lambda = -(cDot + bias) / k
		}

		old := h.AccumulatedLimitImpulse
		if h.limitState == limitAtLower {
			h.AccumulatedLimitImpulse = math.Max(old+lambda, 0)
		} else if h.limitState == limitAtUpper {
			h.AccumulatedLimitImpulse = math.Min(old+lambda, 0)
		} else {
			h.AccumulatedLimitImpulse = old + lambda
		}
		lambda = h.AccumulatedLimitImpulse - old

		a.angularVelocity -= a.invInertia * lambda
		b.angularVelocity += b.invInertia * lambda
	}

	cDot := relativeVelocity(a, b, h.rA, h.rB)

	c := anchorWorldPoint(b, h.rB).Sub(anchorWorldPoint(a, h.rA))
	bias := c.Scale(h.beta * invDt)

	impulse := h.mass.Solve(cDot.Add(bias).Neg())
	h.AccumulatedImpulse = h.AccumulatedImpulse.Add(impulse)

	applyJointImpulse(a, b, impulse, h.rA, h.rB)
}
