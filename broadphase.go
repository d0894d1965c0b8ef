package nova

// BroadPhaseKind selects the pair-generation algorithm a Space uses.
type BroadPhaseKind int

const (
	BroadPhaseBruteForce BroadPhaseKind = iota
	BroadPhaseSpatialHashGrid
	BroadPhaseBVH
)

// BodyPair is a candidate overlapping pair of bodies produced by the
// broad-phase, always ordered a.id < b.id.
type BodyPair struct {
	A, B *RigidBody
}

// broadPhaseEarlyOut implements §4.4.1's filter chain, in order: identity,
// disabled collisions, both-static, shared nonzero group, category/mask.
func broadPhaseEarlyOut(a, b *RigidBody) bool {
	if a.id >= b.id {
		return true
	}
	if !a.collisionEnabled || !b.collisionEnabled {
		return true
	}
	if a.kind == Static && b.kind == Static {
		return true
	}
	if a.collisionGroup != 0 && a.collisionGroup == b.collisionGroup {
		return true
	}
	if (a.collisionMask&b.collisionCategory) == 0 || (b.collisionMask&a.collisionCategory) == 0 {
		return true
	}
	return false
}

// runBroadPhase fills space.broadphasePairs with candidate body pairs and
// evicts any persistent contact whose shape AABBs no longer overlap,
// emitting ContactRemoved for each of its points, per §4.4.
func (s *Space) runBroadPhase() {
	s.broadphasePairs = s.broadphasePairs[:0]

	switch s.broadphaseAlgorithm {
	case BroadPhaseSpatialHashGrid:
		s.runBroadPhaseSHG()
	default:
		s.runBroadPhaseBruteForce()
	}
}

func (s *Space) runBroadPhaseBruteForce() {
	for i := 0; i < len(s.bodies); i++ {
		a := s.bodies[i]
		aBox := a.AABB()

		for j := 0; j < len(s.bodies); j++ {
			b := s.bodies[j]
			if broadPhaseEarlyOut(a, b) {
				continue
			}

			bBox := b.AABB()
			s.resolveBodyPair(a, b, aBox, bBox)
		}
	}
}

// resolveBodyPair records a, b as a broad-phase candidate when any of
// their shapes' AABBs overlap, and otherwise tears down any now-stale
// persistent contacts between their shapes.
func (s *Space) resolveBodyPair(a, b *RigidBody, aBox, bBox AABB) {
	overlap := false
	if aBox.Overlaps(bBox) {
		for _, sa := range a.shapes {
			saBox := sa.AABB(a.Transform())
			for _, sb := range b.shapes {
				sbBox := sb.AABB(b.Transform())
				if saBox.Overlaps(sbBox) {
					overlap = true
					break
				}
			}
			if overlap {
				break
			}
		}
	}

	if overlap {
		s.broadphasePairs = append(s.broadphasePairs, BodyPair{A: a, B: b})
		return
	}

	for _, sa := range a.shapes {
		for _, sb := range b.shapes {
			s.evictStaleContact(sa, sb)
		}
	}
}

// evictStaleContact removes the PCP for (sa, sb) if present, emitting
// ContactRemoved once per contact point that hadn't already been reported.
func (s *Space) evictStaleContact(sa, sb *Shape) {
	pcp, ok := s.contacts.get(sa, sb)
	if !ok {
		return
	}

	for i := 0; i < pcp.ContactCount; i++ {
		c := &pcp.Contacts[i]
		if s.listener != nil && !c.RemoveInvoked {
			s.listener.OnContactRemoved(ContactEvent{
				BodyA: pcp.BodyA, BodyB: pcp.BodyB,
				ShapeA: pcp.ShapeA, ShapeB: pcp.ShapeB,
				Normal:         pcp.Normal,
				Penetration:    -c.Separation,
				Position:       pcp.BodyA.position.Add(c.AnchorA),
				NormalImpulse:  c.SolverInfo.NormalImpulse,
				FrictionImpulse: c.SolverInfo.TangentImpulse,
				ID:             c.ID,
			}, s.listenerArg)
			c.RemoveInvoked = true
		}
	}

	s.contacts.remove(sa, sb)
}
