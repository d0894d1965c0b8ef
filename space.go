package nova

import "log/slog"

// Space is the top-level simulation container: the set of bodies and
// constraints, the persistent contact store, and the settings that drive
// Step's substep pipeline (§4.9).
type Space struct {
	Settings SpaceSettings

	gravity Vector2

	bodies      []*RigidBody
	bodyIndex   map[uint64]int
	constraints []Constraint

	contacts        *contactStore
	broadphasePairs []BodyPair

	broadphaseAlgorithm BroadPhaseKind
	shg                 *SpatialHashGrid

	useKillBounds bool
	killBounds    AABB

	listener    ContactListener
	listenerArg any

	idCounter uint64

	stepping     bool
	pendingAdds  []*RigidBody
	pendingRemoves []*RigidBody
	pendingConstraintAdds    []Constraint
	pendingConstraintRemoves []Constraint

	logger *slog.Logger
}

// NewSpace constructs an empty Space with default settings, no gravity, and
// brute-force broad-phase.
func NewSpace() *Space {
	return &Space{
		Settings:  DefaultSpaceSettings(),
		bodyIndex: make(map[uint64]int),
		contacts:  newContactStore(),
		listener:  NopContactListener{},
		logger:    slog.Default().With("component", "nova.space"),
	}
}

func (s *Space) Gravity() Vector2    { return s.gravity }
func (s *Space) SetGravity(g Vector2) { s.gravity = g }

func (s *Space) BroadPhase() BroadPhaseKind { return s.broadphaseAlgorithm }
// SetBroadPhase selects the pair-generation algorithm. BVH is named for API
// completeness (per §6's {BruteForce|SHG|BVH} selector) but has no
// implementation in this engine (see DESIGN.md); selecting it returns
// InvalidArgument and leaves the current algorithm unchanged.
func (s *Space) SetBroadPhase(k BroadPhaseKind) error {
	if k == BroadPhaseBVH {
		return newError(InvalidArgument, "BVH broad-phase is not implemented")
	}
	s.broadphaseAlgorithm = k
	return nil
}

func (s *Space) SetContactListener(l ContactListener, userArg any) {
	if l == nil {
		l = NopContactListener{}
	}
	s.listener = l
	s.listenerArg = userArg
}

// SetKillBounds enables an AABB beyond which dynamic bodies are
// automatically removed at the end of each substep, per §4.9's kill-bounds
// note. DisableKillBounds turns the check off.
func (s *Space) SetKillBounds(box AABB) {
	s.useKillBounds = true
	s.killBounds = box
}

func (s *Space) DisableKillBounds() { s.useKillBounds = false }

// damping returns the space-level linear/angular damping coefficients that
// every body's IntegrateAccelerations scales by its own damping scale.
func (s *Space) damping() (linear, angular float64) {
	return s.Settings.LinearDamping, s.Settings.AngularDamping
}

// AddRigidBody attaches body to the space, assigning it an ID. If called
// while a step is in progress, the add is deferred until the step's flush
// phase, per §5.
func (s *Space) AddRigidBody(b *RigidBody) error {
	if b.space == s {
		return newError(AlreadyAdded, "body %d already belongs to this space", b.id)
	}
	if b.space != nil {
		return newError(AlreadyAdded, "body %d already belongs to another space", b.id)
	}
	if s.stepping {
		b.space = s
		s.pendingAdds = append(s.pendingAdds, b)
		return nil
	}
	s.insertBody(b)
	return nil
}

func (s *Space) insertBody(b *RigidBody) {
	s.idCounter++
	b.id = s.idCounter
	b.space = s
	s.bodyIndex[b.id] = len(s.bodies)
	s.bodies = append(s.bodies, b)
}

// RemoveRigidBody detaches body from the space. If called while a step is
// in progress, the removal is deferred until the step's flush phase.
func (s *Space) RemoveRigidBody(b *RigidBody) error {
	if b.space != s {
		return newError(NotFound, "body %d does not belong to this space", b.id)
	}
	if s.stepping {
		s.pendingRemoves = append(s.pendingRemoves, b)
		return nil
	}
	s.removeBody(b)
	return nil
}

func (s *Space) removeBody(b *RigidBody) {
	idx, ok := s.bodyIndex[b.id]
	if !ok {
		return
	}
	// Shift rather than swap-with-last: iteration order over bodies must
	// keep following insertion order after removals.
	last := len(s.bodies) - 1
	copy(s.bodies[idx:], s.bodies[idx+1:])
	s.bodies[last] = nil
	s.bodies = s.bodies[:last]
	delete(s.bodyIndex, b.id)
	for i := idx; i < len(s.bodies); i++ {
		s.bodyIndex[s.bodies[i].id] = i
	}

	for _, shape := range b.shapes {
		for _, other := range s.bodies {
			for _, os := range other.shapes {
				s.evictStaleContact(shape, os)
			}
		}
	}

	b.space = nil
}

// AddConstraint attaches a non-contact constraint to the space, deferring
// if called mid-step. Adding a constraint the space already holds is an
// AlreadyAdded error, mirroring AddRigidBody.
func (s *Space) AddConstraint(c Constraint) error {
	if s.hasConstraint(c) {
		return newError(AlreadyAdded, "constraint already belongs to this space")
	}
	if s.stepping {
		s.pendingConstraintAdds = append(s.pendingConstraintAdds, c)
		return nil
	}
	s.constraints = append(s.constraints, c)
	return nil
}

// RemoveConstraint detaches a constraint, deferring if called mid-step.
func (s *Space) RemoveConstraint(c Constraint) error {
	if !s.hasConstraint(c) {
		return newError(NotFound, "constraint does not belong to this space")
	}
	if s.stepping {
		s.pendingConstraintRemoves = append(s.pendingConstraintRemoves, c)
		return nil
	}
	s.removeConstraint(c)
	return nil
}

func (s *Space) hasConstraint(c Constraint) bool {
	for _, existing := range s.constraints {
		if existing == c {
			return true
		}
	}
	for _, pending := range s.pendingConstraintAdds {
		if pending == c {
			return true
		}
	}
	return false
}

func (s *Space) removeConstraint(c Constraint) {
	for i, existing := range s.constraints {
		if existing == c {
			last := len(s.constraints) - 1
			copy(s.constraints[i:], s.constraints[i+1:])
			s.constraints[last] = nil
			s.constraints = s.constraints[:last]
			return
		}
	}
}

// Clear empties the space. If freeAll is true, every body also has its
// space reference cleared so it can be reused elsewhere; otherwise the
// slices are simply reset, matching the source engine's two clear modes.
func (s *Space) Clear(freeAll bool) {
	if freeAll {
		for _, b := range s.bodies {
			b.space = nil
		}
	}
	s.bodies = s.bodies[:0]
	s.bodyIndex = make(map[uint64]int)
	s.constraints = s.constraints[:0]
	s.contacts = newContactStore()
	s.broadphasePairs = s.broadphasePairs[:0]
	s.pendingAdds = s.pendingAdds[:0]
	s.pendingRemoves = s.pendingRemoves[:0]
	s.pendingConstraintAdds = s.pendingConstraintAdds[:0]
	s.pendingConstraintRemoves = s.pendingConstraintRemoves[:0]
	// idCounter is deliberately not reset: IDs stay monotonic for the
	// space's whole lifetime, so bodies re-added after a Clear cannot alias
	// stale contact-store keys from before it.
}

// SetLogger replaces the logger Step uses for per-step diagnostics. Passing
// nil silences them.
func (s *Space) SetLogger(l *slog.Logger) { s.logger = l }

func (s *Space) flushPending() {
	for _, b := range s.pendingAdds {
		s.insertBody(b)
	}
	s.pendingAdds = s.pendingAdds[:0]

	for _, b := range s.pendingRemoves {
		s.removeBody(b)
	}
	s.pendingRemoves = s.pendingRemoves[:0]

	s.constraints = append(s.constraints, s.pendingConstraintAdds...)
	s.pendingConstraintAdds = s.pendingConstraintAdds[:0]

	for _, c := range s.pendingConstraintRemoves {
		s.removeConstraint(c)
	}
	s.pendingConstraintRemoves = s.pendingConstraintRemoves[:0]
}

// runNarrowPhase implements §4.4/§4.5's narrow-phase orchestration: for every
// broad-phase candidate pair, collide every shape-on-shape combination,
// express anchors relative to each body's center of mass, match the result
// against the persisted manifold for warm-starting, and fire the
// ContactBegan/ContactPersisted listener callbacks.
func (s *Space) runNarrowPhase() {
	for _, pair := range s.broadphasePairs {
		a, b := pair.A, pair.B
		xfA, xfB := a.Transform(), b.Transform()

		for _, sa := range a.shapes {
			for _, sb := range b.shapes {
				saBox, sbBox := sa.AABB(xfA), sb.AABB(xfB)
				if !saBox.Overlaps(sbBox) {
					s.evictStaleContact(sa, sb)
					continue
				}

				pcp := collide(sa, xfA, sb, xfB)
				if pcp.ContactCount == 0 {
					s.evictStaleContact(sa, sb)
					continue
				}

				existing, hadPrev := s.contacts.get(sa, sb)

				// Per §4.5 point 3: a shape pair with no prior PCP is only
				// inserted if it is actually penetrating. A previously
				// tracked pair is kept (and may report non-penetrating
				// persisted contacts, e.g. two boxes settled exactly flush).
				if !hadPrev && !pcp.Penetrating() {
					s.evictStaleContact(sa, sb)
					continue
				}

				pcp.ShapeA, pcp.ShapeB = sa, sb
				pcp.BodyA, pcp.BodyB = a, b
				pcp.Friction = s.Settings.FrictionMix.Mix(a.material.Friction, b.material.Friction)
				pcp.Restitution = s.Settings.RestitutionMix.Mix(a.material.Restitution, b.material.Restitution)

				comA, comB := a.worldCenterOfMass(), b.worldCenterOfMass()

				for i := 0; i < pcp.ContactCount; i++ {
					c := &pcp.Contacts[i]
					worldPoint := c.AnchorA
					c.AnchorA = worldPoint.Sub(comA)
					c.AnchorB = worldPoint.Sub(comB)

					if hadPrev {
						for j := 0; j < existing.ContactCount; j++ {
							if existing.Contacts[j].ID == c.ID {
								c.SolverInfo = existing.Contacts[j].SolverInfo
								c.IsPersisted = true
								break
							}
						}
					}
				}

				s.contacts.set(sa, sb, &pcp)

				event := func(c *Contact) ContactEvent {
					return ContactEvent{
						BodyA: a, BodyB: b, ShapeA: sa, ShapeB: sb,
						Normal:          pcp.Normal,
						Penetration:     -c.Separation,
						Position:        comA.Add(c.AnchorA),
						NormalImpulse:   c.SolverInfo.NormalImpulse,
						FrictionImpulse: c.SolverInfo.TangentImpulse,
						ID:              c.ID,
					}
				}
				for i := 0; i < pcp.ContactCount; i++ {
					c := &pcp.Contacts[i]
					if c.IsPersisted {
						s.listener.OnContactPersisted(event(c), s.listenerArg)
					} else {
						s.listener.OnContactBegan(event(c), s.listenerArg)
					}
				}
			}
		}
	}
}

// Step advances the simulation by dt, split into Settings.Substeps equal
// substeps, each running the full pipeline in §4.9: integrate
// accelerations, broad-phase, narrow-phase, constraint presolve/warmstart,
// velocity iterations, integrate velocities (plus kill-bounds), and,
// if selected, NGS position-correction iterations.
func (s *Space) Step(dt float64) {
	if dt <= 0 || s.Settings.Substeps == 0 {
		return
	}

	s.stepping = true
	defer func() { s.stepping = false }()

	substeps := s.Settings.Substeps
	if substeps < 0 {
		substeps = 1
	}
	h := dt / float64(substeps)
	invH := 0.0
	if h > 0 {
		invH = 1 / h
	}

	for step := 0; step < substeps; step++ {
		for _, b := range s.bodies {
			b.invalidateCaches()
			b.IntegrateAccelerations(s.gravity, h)
		}

		s.runBroadPhase()
		s.runNarrowPhase()

		// One stable contact order for every solver phase of this substep;
		// ranging the map directly would reshuffle between phases.
		pcps := s.contacts.ordered()

		for _, c := range s.constraints {
			c.Presolve(s, h, invH)
		}
		for _, pcp := range pcps {
			s.contactPresolve(pcp, invH)
		}

		for _, c := range s.constraints {
			c.Warmstart(s)
		}
		for _, pcp := range pcps {
			s.contactWarmstart(pcp)
		}

		iterations := s.Settings.VelocityIterations
		if iterations < 1 {
			iterations = 1
		}
		for i := 0; i < iterations; i++ {
			for _, c := range s.constraints {
				c.Solve(invH)
			}
			for _, pcp := range pcps {
				s.contactSolveVelocity(pcp)
			}
		}

		for _, b := range s.bodies {
			b.IntegrateVelocities(h)
		}
		s.enforceKillBounds()

		if s.Settings.ContactPositionCorrection == NGS {
			positionIterations := s.Settings.PositionIterations
			if positionIterations < 1 {
				positionIterations = 1
			}
			for i := 0; i < positionIterations; i++ {
				for _, pcp := range pcps {
					s.contactSolvePosition(pcp)
				}
			}
		}

		s.flushPending()
	}

	if s.logger != nil {
		s.logger.Debug("step complete",
			"dt", dt,
			"substeps", substeps,
			"bodies", len(s.bodies),
			"broadphase_pairs", len(s.broadphasePairs),
			"contacts", s.contacts.len(),
		)
	}
}

// enforceKillBounds queues for removal every dynamic body whose AABB is no
// longer entirely contained in the configured kill bounds.
func (s *Space) enforceKillBounds() {
	if !s.useKillBounds {
		return
	}
	for i := len(s.bodies) - 1; i >= 0; i-- {
		b := s.bodies[i]
		if b.kind != Dynamic {
			continue
		}
		if !s.killBounds.Contains(b.AABB()) {
			s.pendingRemoves = append(s.pendingRemoves, b)
		}
	}
}

// Bodies returns the space's live body list. Callers must not mutate the
// returned slice.
func (s *Space) Bodies() []*RigidBody { return s.bodies }

// Constraints returns the space's live constraint list. Callers must not
// mutate the returned slice.
func (s *Space) Constraints() []Constraint { return s.constraints }
