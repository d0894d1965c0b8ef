package nova

import "math"

// contactPresolve implements §4.7's presolve step for every point in a
// persistent contact pair: effective masses for the normal and tangent
// directions, and the velocity bias from restitution and (if selected)
// Baumgarte position correction.
func (s *Space) contactPresolve(pcp *PersistentContactPair, invDt float64) {
	a, b := pcp.BodyA, pcp.BodyB
	n := pcp.Normal
	t := n.PerpRight()

	for i := 0; i < pcp.ContactCount; i++ {
		c := &pcp.Contacts[i]

		rA, rB := c.AnchorA, c.AnchorB

		rnA := rA.Cross(n)
		rnB := rB.Cross(n)
		kNormal := a.invMass + b.invMass + rnA*rnA*a.invInertia + rnB*rnB*b.invInertia
		if kNormal > 0 {
			c.SolverInfo.NormalMass = 1 / kNormal
		} else {
			c.SolverInfo.NormalMass = 0
		}

		rtA := rA.Cross(t)
		rtB := rB.Cross(t)
		kTangent := a.invMass + b.invMass + rtA*rtA*a.invInertia + rtB*rtB*b.invInertia
		if kTangent > 0 {
			c.SolverInfo.TangentMass = 1 / kTangent
		} else {
			c.SolverInfo.TangentMass = 0
		}

		relVel := relativeVelocity(a, b, rA, rB)
		vRelN := relVel.Dot(n)

		bias := -pcp.Restitution * math.Min(0, vRelN+s.Settings.RestitutionThreshold)

		if s.Settings.ContactPositionCorrection == Baumgarte {
			penetration := -c.Separation - s.Settings.PenetrationSlop
			if penetration > 0 {
				bias -= (s.Settings.Baumgarte * invDt) * penetration
			}
		}

		c.SolverInfo.VelocityBias = bias
	}
}

// relativeVelocity returns the relative velocity of B's contact point
// w.r.t. A's: (vB + wB x rB) - (vA + wA x rA).
func relativeVelocity(a, b *RigidBody, rA, rB Vector2) Vector2 {
	vA := a.linearVelocity.Add(CrossVS(a.angularVelocity, rA))
	vB := b.linearVelocity.Add(CrossVS(b.angularVelocity, rB))
	return vB.Sub(vA)
}

// contactWarmstart applies each point's stored accumulated impulse (if
// warmstarting is enabled and the point is persisted) so the solver starts
// from last step's solution instead of zero, per §4.7.
func (s *Space) contactWarmstart(pcp *PersistentContactPair) {
	a, b := pcp.BodyA, pcp.BodyB
	n := pcp.Normal
	t := n.PerpRight()

	for i := 0; i < pcp.ContactCount; i++ {
		c := &pcp.Contacts[i]

		if s.Settings.Warmstarting && c.IsPersisted {
			p := n.Scale(c.SolverInfo.NormalImpulse).Add(t.Scale(c.SolverInfo.TangentImpulse))
			applyContactImpulse(a, b, p, c.AnchorA, c.AnchorB)
		} else {
			c.SolverInfo.NormalImpulse = 0
			c.SolverInfo.TangentImpulse = 0
		}
	}
}

func applyContactImpulse(a, b *RigidBody, p Vector2, rA, rB Vector2) {
	a.linearVelocity = a.linearVelocity.Sub(p.Scale(a.invMass))
	a.angularVelocity -= a.invInertia * rA.Cross(p)
	b.linearVelocity = b.linearVelocity.Add(p.Scale(b.invMass))
	b.angularVelocity += b.invInertia * rB.Cross(p)
}

// contactSolveVelocity performs one sequential-impulse iteration over a
// persistent contact pair's points, per §4.7: friction first (clamped to
// the normal impulse accumulated at the *start* of this iteration, per Box2D
// practice), then the normal impulse (clamped non-negative).
func (s *Space) contactSolveVelocity(pcp *PersistentContactPair) {
	a, b := pcp.BodyA, pcp.BodyB
	n := pcp.Normal
	t := n.PerpRight()

	for i := 0; i < pcp.ContactCount; i++ {
		c := &pcp.Contacts[i]
		info := &c.SolverInfo

		// Friction.
		relVel := relativeVelocity(a, b, c.AnchorA, c.AnchorB)
		vRelT := relVel.Dot(t)
		dLambdaT := -vRelT * info.TangentMass

		maxFriction := pcp.Friction * info.NormalImpulse
		newTangent := clamp(info.TangentImpulse+dLambdaT, -maxFriction, maxFriction)
		dLambdaT = newTangent - info.TangentImpulse
		info.TangentImpulse = newTangent

		applyContactImpulse(a, b, t.Scale(dLambdaT), c.AnchorA, c.AnchorB)

		// Normal.
		relVel = relativeVelocity(a, b, c.AnchorA, c.AnchorB)
		vRelN := relVel.Dot(n)
		dLambdaN := -(vRelN - info.VelocityBias) * info.NormalMass

		newNormal := math.Max(info.NormalImpulse+dLambdaN, 0)
		dLambdaN = newNormal - info.NormalImpulse
		info.NormalImpulse = newNormal

		applyContactImpulse(a, b, n.Scale(dLambdaN), c.AnchorA, c.AnchorB)
	}
}

// contactSolvePosition runs one NGS position-correction sweep over a
// persistent contact pair, per §4.7: it recomputes separation from the
// bodies' current, world-transformed shapes (not the presolve snapshot)
// and nudges positions/angles by a pseudo-velocity capped at
// MaxLinearCorrection.
func (s *Space) contactSolvePosition(pcp *PersistentContactPair) {
	a, b := pcp.BodyA, pcp.BodyB

	fresh := collide(pcp.ShapeA, a.Transform(), pcp.ShapeB, b.Transform())

	for i := 0; i < pcp.ContactCount; i++ {
		c := &pcp.Contacts[i]

		separation := c.Separation
		if i < fresh.ContactCount {
			separation = fresh.Contacts[i].Separation
		}

		correction := clamp(s.Settings.Baumgarte*(-separation-s.Settings.PenetrationSlop), 0, s.Settings.MaxLinearCorrection)
		if correction <= 0 {
			continue
		}

		n := pcp.Normal
		rA, rB := c.AnchorA, c.AnchorB
		rnA := rA.Cross(n)
		rnB := rB.Cross(n)
		k := a.invMass + b.invMass + rnA*rnA*a.invInertia + rnB*rnB*b.invInertia
		if k <= 0 {
			continue
		}
		impulse := correction / k

		move := n.Scale(impulse)
		a.position = a.position.Sub(move.Scale(a.invMass))
		a.angle -= a.invInertia * rA.Cross(move)
		b.position = b.position.Add(move.Scale(b.invMass))
		b.angle += b.invInertia * rB.Cross(move)

		a.origin = a.position.Sub(a.com.Rotated(a.angle))
		b.origin = b.position.Sub(b.com.Rotated(b.angle))
		a.invalidateCaches()
		b.invalidateCaches()
	}
}
