package nova

import "math"

// RigidBodyKind distinguishes bodies that never move under simulation
// forces (Static) from those that do (Dynamic). Kinematic bodies are not
// modeled separately; a body with velocities set externally and type
// Dynamic but invmass 0 behaves like one, per §3's note.
type RigidBodyKind int

const (
	Static RigidBodyKind = iota
	Dynamic
)

// RigidBodyInit carries the construction-time attributes of a body. It can
// be reused across multiple bodies.
type RigidBodyInit struct {
	Kind             RigidBodyKind
	Position         Vector2
	Angle            float64
	LinearVelocity   Vector2
	AngularVelocity  float64
	Material         Material
	LinearDampingScale  float64
	AngularDampingScale float64
	GravityScale        float64
}

// DefaultRigidBodyInit mirrors the original engine's default initializer:
// a static body with unit-density, lightly-bouncy, moderately-grippy
// material and unscaled damping/gravity.
var DefaultRigidBodyInit = RigidBodyInit{
	Kind:                Static,
	Material:            DefaultMaterial,
	LinearDampingScale:  1.0,
	AngularDampingScale: 1.0,
	GravityScale:        1.0,
}

// RigidBody is a rigid body aggregating shapes. It carries the body's
// motion state, derived mass properties, material, collision filtering,
// and the force/torque accumulators cleared every acceleration integration.
type RigidBody struct {
	id    uint64
	space *Space

	kind RigidBodyKind

	position Vector2
	angle    float64
	// origin is the world location of the body-local frame origin:
	// position - rot(com, angle).
	origin Vector2

	linearVelocity  Vector2
	angularVelocity float64

	linearDampingScale  float64
	angularDampingScale float64
	gravityScale        float64

	material Material

	mass       float64
	invMass    float64
	inertia    float64
	invInertia float64
	com        Vector2 // centroid, in body-local coordinates

	force  Vector2
	torque float64

	shapes []*Shape

	collisionEnabled   bool
	collisionGroup     uint32
	collisionCategory  uint32
	collisionMask      uint32

	cacheAABB      bool
	cachedAABB     AABB
	cacheTransform bool
	cachedXform    Transform
}

// NewRigidBody creates a new, unattached body from an initializer. Attach it
// to a Space with Space.AddRigidBody.
func NewRigidBody(init RigidBodyInit) *RigidBody {
	b := &RigidBody{
		kind:                init.Kind,
		position:            init.Position,
		angle:               init.Angle,
		linearVelocity:      init.LinearVelocity,
		angularVelocity:     init.AngularVelocity,
		material:            init.Material,
		linearDampingScale:  init.LinearDampingScale,
		angularDampingScale: init.AngularDampingScale,
		gravityScale:        init.GravityScale,
		collisionEnabled:    true,
		collisionCategory:   0xFFFFFFFF,
		collisionMask:       0xFFFFFFFF,
	}
	b.origin = b.position.Sub(b.com.Rotated(b.angle))
	if b.kind == Static {
		b.invMass = 0
		b.invInertia = 0
	}
	return b
}

func (b *RigidBody) ID() uint64       { return b.id }
func (b *RigidBody) Space() *Space    { return b.space }
func (b *RigidBody) Kind() RigidBodyKind { return b.kind }

func (b *RigidBody) SetKind(k RigidBodyKind) {
	b.kind = k
	if k == Static {
		b.invMass = 0
		b.invInertia = 0
		b.linearVelocity = Vector2{}
		b.angularVelocity = 0
	} else {
		b.recomputeMass()
	}
}

func (b *RigidBody) Position() Vector2 { return b.position }
func (b *RigidBody) SetPosition(p Vector2) {
	b.position = p
	b.origin = p.Sub(b.com.Rotated(b.angle))
	b.invalidateCaches()
}

func (b *RigidBody) Angle() float64 { return b.angle }
func (b *RigidBody) SetAngle(a float64) {
	b.angle = a
	b.origin = b.position.Sub(b.com.Rotated(a))
	b.invalidateCaches()
}

func (b *RigidBody) Transform() Transform { return Transform{Position: b.origin, Angle: b.angle} }

func (b *RigidBody) LinearVelocity() Vector2       { return b.linearVelocity }
func (b *RigidBody) SetLinearVelocity(v Vector2)   { b.linearVelocity = v }
func (b *RigidBody) AngularVelocity() float64      { return b.angularVelocity }
func (b *RigidBody) SetAngularVelocity(w float64)  { b.angularVelocity = w }

func (b *RigidBody) LinearDampingScale() float64      { return b.linearDampingScale }
func (b *RigidBody) SetLinearDampingScale(s float64)  { b.linearDampingScale = s }
func (b *RigidBody) AngularDampingScale() float64     { return b.angularDampingScale }
func (b *RigidBody) SetAngularDampingScale(s float64) { b.angularDampingScale = s }
func (b *RigidBody) GravityScale() float64            { return b.gravityScale }
func (b *RigidBody) SetGravityScale(s float64)        { b.gravityScale = s }

func (b *RigidBody) Material() Material     { return b.material }
func (b *RigidBody) SetMaterial(m Material) { b.material = m; b.recomputeMass() }

func (b *RigidBody) Mass() float64    { return b.mass }
func (b *RigidBody) InvMass() float64 { return b.invMass }

// SetMass overrides the computed mass directly. Per §7, setting a zero mass
// on a dynamic body without also zeroing invmass is an InvalidArgument.
func (b *RigidBody) SetMass(m float64) error {
	if b.kind == Dynamic && m <= 0 {
		return newError(InvalidArgument, "dynamic body mass must be positive, got %v", m)
	}
	b.mass = m
	if m > 0 {
		b.invMass = 1 / m
	} else {
		b.invMass = 0
	}
	return nil
}

func (b *RigidBody) Inertia() float64    { return b.inertia }
func (b *RigidBody) InvInertia() float64 { return b.invInertia }
func (b *RigidBody) SetInertia(i float64) {
	b.inertia = i
	if i > 0 {
		b.invInertia = 1 / i
	} else {
		b.invInertia = 0
	}
}

func (b *RigidBody) CenterOfMass() Vector2 { return b.com }

func (b *RigidBody) CollisionEnabled() bool     { return b.collisionEnabled }
func (b *RigidBody) EnableCollisions(on bool)   { b.collisionEnabled = on }
func (b *RigidBody) CollisionGroup() uint32     { return b.collisionGroup }
func (b *RigidBody) SetCollisionGroup(g uint32) { b.collisionGroup = g }
func (b *RigidBody) CollisionCategory() uint32     { return b.collisionCategory }
func (b *RigidBody) SetCollisionCategory(c uint32) { b.collisionCategory = c }
func (b *RigidBody) CollisionMask() uint32     { return b.collisionMask }
func (b *RigidBody) SetCollisionMask(m uint32) { b.collisionMask = m }

func (b *RigidBody) Shapes() []*Shape { return b.shapes }

// AddShape attaches shape to the body and recomputes mass, inertia and
// center of mass from the union of all attached shapes, assuming the
// uniform density of the body's material.
func (b *RigidBody) AddShape(s *Shape) {
	s.body = b
	b.shapes = append(b.shapes, s)
	b.recomputeMass()
}

// recomputeMass implements §4.3: area-and-density-weighted centroid, the
// parallel-axis theorem for shapes offset from that centroid, and the
// shoelace/circle formulas for area and local inertia per shape.
func (b *RigidBody) recomputeMass() {
	if b.kind == Static || len(b.shapes) == 0 {
		b.mass, b.invMass, b.inertia, b.invInertia = 0, 0, 0, 0
		b.com = Vector2{}
		return
	}

	var totalMass float64
	var weightedCentroid Vector2
	for _, s := range b.shapes {
		m := s.area() * b.material.Density
		weightedCentroid = weightedCentroid.Add(s.centroid().Scale(m))
		totalMass += m
	}
	if totalMass <= 0 {
		b.mass, b.invMass, b.inertia, b.invInertia = 0, 0, 0, 0
		return
	}
	com := weightedCentroid.Scale(1 / totalMass)

	var totalInertia float64
	for _, s := range b.shapes {
		m := s.area() * b.material.Density
		iSelf := s.momentOfInertiaPerMass() * m
		d := s.centroid().Sub(com)
		totalInertia += iSelf + m*d.LenSqr() // parallel-axis theorem
	}

	b.mass = totalMass
	b.invMass = 1 / totalMass
	b.inertia = totalInertia
	if totalInertia > 0 {
		b.invInertia = 1 / totalInertia
	} else {
		b.invInertia = 0
	}
	b.com = com
	b.origin = b.position.Sub(b.com.Rotated(b.angle))
}

func (b *RigidBody) ApplyForce(f Vector2)         { b.force = b.force.Add(f) }
func (b *RigidBody) ApplyTorque(t float64)        { b.torque += t }

// ApplyForceAt applies force f at a world-space point, contributing to both
// the linear force accumulator and the torque accumulator.
func (b *RigidBody) ApplyForceAt(f Vector2, worldPoint Vector2) {
	b.force = b.force.Add(f)
	r := worldPoint.Sub(b.worldCenterOfMass())
	b.torque += r.Cross(f)
}

// ApplyImpulse applies an instantaneous impulse J at body-local point r,
// immediately changing velocity and angular velocity (not routed through
// the force accumulator).
func (b *RigidBody) ApplyImpulse(j Vector2, rLocal Vector2) {
	if b.invMass == 0 && b.invInertia == 0 {
		return
	}
	b.linearVelocity = b.linearVelocity.Add(j.Scale(b.invMass))
	rWorld := rLocal.Rotated(b.angle)
	b.angularVelocity += b.invInertia * rWorld.Cross(j)
}

func (b *RigidBody) worldCenterOfMass() Vector2 {
	return b.origin.Add(b.com.Rotated(b.angle))
}

// IntegrateAccelerations advances velocities by dt under gravity and the
// accumulated force/torque, per §4.3. Static bodies are untouched.
func (b *RigidBody) IntegrateAccelerations(gravity Vector2, dt float64) {
	if b.kind == Static {
		return
	}

	b.linearVelocity = b.linearVelocity.Add(
		b.force.Scale(b.invMass).Add(gravity.Scale(b.gravityScale)).Scale(dt),
	)
	b.angularVelocity += b.invInertia * b.torque * dt

	linDamp, angDamp := b.space.damping()
	if linDamp > 0 {
		b.linearVelocity = b.linearVelocity.Scale(math.Pow(1-linDamp, dt*b.linearDampingScale))
	}
	if angDamp > 0 {
		b.angularVelocity *= math.Pow(1-angDamp, dt*b.angularDampingScale)
	}

	b.force = Vector2{}
	b.torque = 0
}

// IntegrateVelocities advances position and angle by dt, updates origin and
// invalidates the transform/AABB caches, per §4.3.
func (b *RigidBody) IntegrateVelocities(dt float64) {
	if b.kind == Static {
		return
	}
	b.position = b.position.Add(b.linearVelocity.Scale(dt))
	b.angle += b.angularVelocity * dt
	b.origin = b.position.Sub(b.com.Rotated(b.angle))
	b.invalidateCaches()
}

func (b *RigidBody) invalidateCaches() {
	b.cacheAABB = false
	b.cacheTransform = false
}

// AABB returns the union of all attached shapes' world AABBs, caching the
// result until the next pose change.
func (b *RigidBody) AABB() AABB {
	if b.cacheAABB {
		return b.cachedAABB
	}
	xf := b.Transform()
	box := AABB{Inf, Inf, -Inf, -Inf}
	for _, s := range b.shapes {
		s.Transform(xf)
		box = box.Merge(s.AABB(xf))
	}
	if len(b.shapes) == 0 {
		box = AABB{b.position.X, b.position.Y, b.position.X, b.position.Y}
	}
	b.cachedAABB = box
	b.cacheAABB = true
	return box
}

// KineticEnergy returns the body's translational + rotational kinetic
// energy: ½m|v|² + ½Iω².
func (b *RigidBody) KineticEnergy() float64 {
	return 0.5*b.mass*b.linearVelocity.LenSqr() + b.RotationalEnergy()
}

// RotationalEnergy returns ½Iω².
func (b *RigidBody) RotationalEnergy() float64 {
	return 0.5 * b.inertia * b.angularVelocity * b.angularVelocity
}
