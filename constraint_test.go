package nova_test

import (
	"math"
	"testing"

	nova "github.com/novialriptide/nova-physics"
)

func dynamicBody(x, y float64) *nova.RigidBody {
	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Position = nova.Vec2(x, y)
	b := nova.NewRigidBody(init)
	shape, _ := nova.NewCircle(nova.Vector2{}, 0.5)
	b.AddShape(shape)
	return b
}

func TestDistanceJointHoldsLength(t *testing.T) {
	s := nova.NewSpace()
	s.SetGravity(nova.Vec2(0, -nova.GravEarth))

	anchor := nova.NewRigidBody(nova.DefaultRigidBodyInit) // static
	hang := dynamicBody(0, -2)

	s.AddRigidBody(anchor)
	s.AddRigidBody(hang)

	joint := nova.NewDistanceJoint(anchor, hang, nova.Vector2{}, nova.Vector2{}, 2)
	s.AddConstraint(joint)

	for i := 0; i < 300; i++ {
		s.Step(1.0 / 60.0)
	}

	dist := anchor.Position().Dist(hang.Position())
	if math.Abs(dist-2) > 0.05 {
		t.Errorf("expected the hung body to settle at distance 2, got %v", dist)
	}
}

func TestHingeHoldsAnchorsTogether(t *testing.T) {
	s := nova.NewSpace()
	s.SetGravity(nova.Vec2(0, -nova.GravEarth))

	anchor := nova.NewRigidBody(nova.DefaultRigidBodyInit)
	arm := dynamicBody(1, 0)

	s.AddRigidBody(anchor)
	s.AddRigidBody(arm)

	hinge := nova.NewHinge(anchor, arm, nova.Vector2{}, nova.Vec2(-1, 0))
	s.AddConstraint(hinge)

	for i := 0; i < 120; i++ {
		s.Step(1.0 / 60.0)
	}

	armAnchorWorld := arm.Position().Add(nova.Vec2(-1, 0).Rotated(arm.Angle()))
	gap := anchor.Position().Dist(armAnchorWorld)
	if gap > 0.1 {
		t.Errorf("expected hinge anchors to stay together, gap=%v", gap)
	}
}

func TestDistanceJointHoldsMovingDisks(t *testing.T) {
	s := nova.NewSpace()

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Position = nova.Vec2(-1, 0)
	init.LinearVelocity = nova.Vec2(1, 0)
	a := nova.NewRigidBody(init)
	ca, _ := nova.NewCircle(nova.Vector2{}, 0.5)
	a.AddShape(ca)

	init.Position = nova.Vec2(1, 0)
	init.LinearVelocity = nova.Vec2(-1, 0)
	b := nova.NewRigidBody(init)
	cb, _ := nova.NewCircle(nova.Vector2{}, 0.5)
	b.AddShape(cb)

	// The disks never touch as shapes: only the joint couples them.
	a.SetCollisionGroup(1)
	b.SetCollisionGroup(1)

	s.AddRigidBody(a)
	s.AddRigidBody(b)
	s.AddConstraint(nova.NewDistanceJoint(a, b, nova.Vector2{}, nova.Vector2{}, 2))

	for i := 0; i < 120; i++ {
		s.Step(1.0 / 60.0)
		dist := a.Position().Dist(b.Position())
		if math.Abs(dist-2) > 0.05 {
			t.Fatalf("step %d: joint length drifted to %v, want 2 +- 0.05", i, dist)
		}
	}
}

func TestHingeAngleLimitClampsRotation(t *testing.T) {
	s := nova.NewSpace()

	anchor := nova.NewRigidBody(nova.DefaultRigidBodyInit)

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.AngularVelocity = 3
	wheel := nova.NewRigidBody(init)
	shape, _ := nova.NewCircle(nova.Vector2{}, 0.5)
	wheel.AddShape(shape)

	s.AddRigidBody(anchor)
	s.AddRigidBody(wheel)

	hinge := nova.NewHinge(anchor, wheel, nova.Vector2{}, nova.Vector2{})
	hinge.EnableLimit = true
	hinge.LowerAngle = -0.5
	hinge.UpperAngle = 0.5
	s.AddConstraint(hinge)

	for i := 0; i < 120; i++ {
		s.Step(1.0 / 60.0)
	}

	if wheel.Angle() > 0.7 || wheel.Angle() < -0.7 {
		t.Errorf("expected the limit to clamp the wheel near [-0.5, 0.5], got angle=%v", wheel.Angle())
	}
}

func TestSplineConstraintPullsAnchorTowardCurve(t *testing.T) {
	s := nova.NewSpace()

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Position = nova.Vec2(0, 2)
	body := nova.NewRigidBody(init)
	shape, _ := nova.NewCircle(nova.Vector2{}, 0.5)
	body.AddShape(shape)
	s.AddRigidBody(body)

	sc := nova.NewSplineConstraint(body, nova.Vector2{}, []nova.Vector2{
		nova.Vec2(-5, 0), nova.Vec2(-2, 0), nova.Vec2(2, 0), nova.Vec2(5, 0),
	}, 300, 10)
	s.AddConstraint(sc)

	startDist := math.Abs(body.Position().Y)
	for i := 0; i < 120; i++ {
		s.Step(1.0 / 60.0)
	}
	endDist := math.Abs(body.Position().Y)

	if endDist >= startDist {
		t.Errorf("expected the spline constraint to pull the body toward the curve, start=%v end=%v", startDist, endDist)
	}
}

func TestSplineSetControlPointsRetargets(t *testing.T) {
	s := nova.NewSpace()

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	body := nova.NewRigidBody(init)
	shape, _ := nova.NewCircle(nova.Vector2{}, 0.5)
	body.AddShape(shape)
	s.AddRigidBody(body)

	sc := nova.NewSplineConstraint(body, nova.Vector2{}, []nova.Vector2{
		nova.Vec2(-1, 0), nova.Vec2(1, 0),
	}, 300, 10)
	s.AddConstraint(sc)

	// Move the whole curve well above the body; the constraint should now
	// pull it upward.
	sc.SetControlPoints([]nova.Vector2{nova.Vec2(-1, 4), nova.Vec2(1, 4)})

	for i := 0; i < 60; i++ {
		s.Step(1.0 / 60.0)
	}

	if body.Position().Y <= 0.5 {
		t.Errorf("expected the retargeted spline to lift the body, got y=%v", body.Position().Y)
	}
}

func TestSpringPullsTowardRestLength(t *testing.T) {
	s := nova.NewSpace()

	anchor := nova.NewRigidBody(nova.DefaultRigidBodyInit)
	bob := dynamicBody(0, -5)

	s.AddRigidBody(anchor)
	s.AddRigidBody(bob)

	spring := nova.NewSpring(anchor, bob, nova.Vector2{}, nova.Vector2{}, 1, 200, 5)
	s.AddConstraint(spring)

	startDist := anchor.Position().Dist(bob.Position())
	for i := 0; i < 60; i++ {
		s.Step(1.0 / 60.0)
	}
	endDist := anchor.Position().Dist(bob.Position())

	if endDist >= startDist {
		t.Errorf("expected spring to pull the bob closer to rest length, start=%v end=%v", startDist, endDist)
	}
}
