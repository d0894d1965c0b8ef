package nova_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	nova "github.com/novialriptide/nova-physics"
)

// diffReport renders a unified diff between the expected and actual
// multi-line descriptions of a scenario's outcome, for a readable failure
// message instead of a bare value mismatch.
func diffReport(t *testing.T, expected, actual string) {
	t.Helper()
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		t.Fatalf("computing diff: %v", err)
	}
	t.Fatalf("scenario outcome mismatch:\n%s", text)
}

func describeBody(label string, b *nova.RigidBody) string {
	p := b.Position()
	return fmt.Sprintf("%s: pos=(%.3f, %.3f) angle=%.3f vel=(%.3f, %.3f)\n",
		label, p.X, p.Y, b.Angle(), b.LinearVelocity().X, b.LinearVelocity().Y)
}

func TestFreeFallUnderGravity(t *testing.T) {
	s := nova.NewSpace()
	s.SetGravity(nova.Vec2(0, -nova.GravEarth))

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Position = nova.Vec2(0, 10)
	box := nova.NewRigidBody(init)
	rect, _ := nova.NewRect(1, 1, nova.Vector2{})
	box.AddShape(rect)

	if err := s.AddRigidBody(box); err != nil {
		t.Fatalf("AddRigidBody: %v", err)
	}

	const dt = 1.0 / 60.0
	for i := 0; i < 60; i++ {
		s.Step(dt)
	}

	// Semi-implicit Euler over n steps drops g*h^2*n(n+1)/2 ~= 4.99, a
	// touch more than the analytic g/2; allow for that plus default damping.
	gotY := box.Position().Y
	if gotY < 4.9 || gotY > 5.15 {
		diffReport(t, "body.y ~= 5.01 after 1 second of free fall", describeBody("box", box))
	}
	if box.LinearVelocity().Y >= 0 {
		diffReport(t, "body.vy < 0 after 1 second of free fall", describeBody("box", box))
	}
}

func TestBoxRestsOnGround(t *testing.T) {
	s := nova.NewSpace()
	s.SetGravity(nova.Vec2(0, -nova.GravEarth))
	s.Settings.ContactPositionCorrection = nova.NGS

	ground := nova.NewRigidBody(nova.DefaultRigidBodyInit) // static, at origin
	groundShape, _ := nova.NewRect(20, 1, nova.Vector2{})
	ground.AddShape(groundShape)

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Position = nova.Vec2(0, 3)
	box := nova.NewRigidBody(init)
	boxShape, _ := nova.NewRect(1, 1, nova.Vector2{})
	box.AddShape(boxShape)

	if err := s.AddRigidBody(ground); err != nil {
		t.Fatalf("AddRigidBody(ground): %v", err)
	}
	if err := s.AddRigidBody(box); err != nil {
		t.Fatalf("AddRigidBody(box): %v", err)
	}

	const dt = 1.0 / 60.0
	for i := 0; i < 300; i++ {
		s.Step(dt)
	}

	wantY := 1.0 // ground top (0.5) + half the box height (0.5)
	gotY := box.Position().Y
	if diff := gotY - wantY; diff > 0.05 || diff < -0.05 {
		diffReport(t, fmt.Sprintf("box.y ~= %.3f (resting on ground)", wantY), describeBody("box", box))
	}
	if strings.Contains(fmt.Sprint(box.LinearVelocity().Y), "NaN") {
		t.Fatal("box velocity is NaN")
	}
}

func TestStepZeroDtIsNoOp(t *testing.T) {
	s := nova.NewSpace()
	s.SetGravity(nova.Vec2(0, -nova.GravEarth))

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Position = nova.Vec2(0, 10)
	box := nova.NewRigidBody(init)
	rect, _ := nova.NewRect(1, 1, nova.Vector2{})
	box.AddShape(rect)
	s.AddRigidBody(box)

	s.Step(0)

	if box.Position() != nova.Vec2(0, 10) || box.LinearVelocity() != (nova.Vector2{}) {
		t.Errorf("expected step(0) to be a no-op, got pos=%v vel=%v", box.Position(), box.LinearVelocity())
	}
}

func TestStepZeroSubstepsIsNoOp(t *testing.T) {
	s := nova.NewSpace()
	s.SetGravity(nova.Vec2(0, -nova.GravEarth))
	s.Settings.Substeps = 0

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Position = nova.Vec2(0, 10)
	box := nova.NewRigidBody(init)
	rect, _ := nova.NewRect(1, 1, nova.Vector2{})
	box.AddShape(rect)
	s.AddRigidBody(box)

	s.Step(1.0 / 60.0)

	if box.Position() != nova.Vec2(0, 10) || box.LinearVelocity() != (nova.Vector2{}) {
		t.Errorf("expected substeps=0 to be a no-op, got pos=%v vel=%v", box.Position(), box.LinearVelocity())
	}
}

func TestCollisionFilteringByGroup(t *testing.T) {
	s := nova.NewSpace()

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Position = nova.Vec2(0, 0)
	a := nova.NewRigidBody(init)
	ra, _ := nova.NewRect(1, 1, nova.Vector2{})
	a.AddShape(ra)
	a.SetCollisionGroup(5)

	init.Position = nova.Vec2(0.5, 0)
	b := nova.NewRigidBody(init)
	rb, _ := nova.NewRect(1, 1, nova.Vector2{})
	b.AddShape(rb)
	b.SetCollisionGroup(5)

	s.AddRigidBody(a)
	s.AddRigidBody(b)

	s.Step(1.0 / 60.0)

	if a.LinearVelocity().X != 0 || b.LinearVelocity().X != 0 {
		t.Error("bodies sharing a nonzero collision group must not generate contact impulses")
	}
}

func TestPyramidStackRemainsStable(t *testing.T) {
	s := nova.NewSpace()
	s.SetGravity(nova.Vec2(0, -10))

	material := nova.Material{Density: 1, Friction: 0.5, Restitution: 0}

	groundInit := nova.DefaultRigidBodyInit
	groundInit.Material = material
	ground := nova.NewRigidBody(groundInit)
	groundShape, _ := nova.NewRect(100, 1, nova.Vector2{})
	ground.AddShape(groundShape)
	if err := s.AddRigidBody(ground); err != nil {
		t.Fatalf("AddRigidBody(ground): %v", err)
	}

	const rows = 10
	for row := 0; row < rows; row++ {
		count := rows - row
		for i := 0; i < count; i++ {
			init := nova.DefaultRigidBodyInit
			init.Kind = nova.Dynamic
			init.Material = material
			x := float64(i) - float64(count-1)/2
			init.Position = nova.Vec2(x, 1.0+float64(row))
			box := nova.NewRigidBody(init)
			shape, _ := nova.NewRect(1, 1, nova.Vector2{})
			box.AddShape(shape)
			if err := s.AddRigidBody(box); err != nil {
				t.Fatalf("AddRigidBody(box): %v", err)
			}
		}
	}

	for i := 0; i < 600; i++ {
		s.Step(1.0 / 60.0)
	}

	maxVx := 0.0
	for _, b := range s.Bodies() {
		if vx := b.LinearVelocity().X; vx > maxVx {
			maxVx = vx
		} else if -vx > maxVx {
			maxVx = -vx
		}
	}
	if maxVx >= 0.5 {
		t.Errorf("pyramid destabilized: max |vx| = %v, want < 0.5", maxVx)
	}
}

func TestMomentumConservedInFrictionlessCollision(t *testing.T) {
	s := nova.NewSpace()
	s.Settings.LinearDamping = 0
	s.Settings.AngularDamping = 0

	material := nova.Material{Density: 1, Friction: 0, Restitution: 1}

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Material = material
	init.Position = nova.Vec2(-0.45, 0)
	init.LinearVelocity = nova.Vec2(2, 0)
	a := nova.NewRigidBody(init)
	ca, _ := nova.NewCircle(nova.Vector2{}, 0.5)
	a.AddShape(ca)

	init.Position = nova.Vec2(0.45, 0)
	init.LinearVelocity = nova.Vec2(-2, 0)
	b := nova.NewRigidBody(init)
	cb, _ := nova.NewCircle(nova.Vector2{}, 0.5)
	b.AddShape(cb)

	s.AddRigidBody(a)
	s.AddRigidBody(b)

	before := a.LinearVelocity().Scale(a.Mass()).Add(b.LinearVelocity().Scale(b.Mass()))
	s.Step(1.0 / 60.0)
	after := a.LinearVelocity().Scale(a.Mass()).Add(b.LinearVelocity().Scale(b.Mass()))

	if before.Sub(after).Len() > 1e-3 {
		t.Errorf("linear momentum not conserved: before=%v after=%v", before, after)
	}
}

func TestStaticBodyUnmovedByStep(t *testing.T) {
	s := nova.NewSpace()
	s.SetGravity(nova.Vec2(0, -nova.GravEarth))

	ground := nova.NewRigidBody(nova.DefaultRigidBodyInit)
	groundShape, _ := nova.NewRect(10, 1, nova.Vector2{})
	ground.AddShape(groundShape)

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Position = nova.Vec2(0, 0.9)
	box := nova.NewRigidBody(init)
	boxShape, _ := nova.NewRect(1, 1, nova.Vector2{})
	box.AddShape(boxShape)

	s.AddRigidBody(ground)
	s.AddRigidBody(box)

	for i := 0; i < 60; i++ {
		s.Step(1.0 / 60.0)
	}

	if ground.Position() != (nova.Vector2{}) || ground.LinearVelocity() != (nova.Vector2{}) || ground.Angle() != 0 {
		t.Errorf("static body moved: pos=%v vel=%v angle=%v", ground.Position(), ground.LinearVelocity(), ground.Angle())
	}
}

func TestAddRemoveRoundTrip(t *testing.T) {
	s := nova.NewSpace()

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	b := nova.NewRigidBody(init)
	shape, _ := nova.NewRect(1, 1, nova.Vector2{})
	b.AddShape(shape)

	if err := s.AddRigidBody(b); err != nil {
		t.Fatalf("AddRigidBody: %v", err)
	}
	firstID := b.ID()

	err := s.AddRigidBody(b)
	var nerr *nova.Error
	if !errors.As(err, &nerr) || nerr.Kind != nova.AlreadyAdded {
		t.Fatalf("expected AlreadyAdded on double add, got %v", err)
	}

	if err := s.RemoveRigidBody(b); err != nil {
		t.Fatalf("RemoveRigidBody: %v", err)
	}
	if b.Space() != nil {
		t.Fatal("removed body must not reference the space")
	}

	err = s.RemoveRigidBody(b)
	if !errors.As(err, &nerr) || nerr.Kind != nova.NotFound {
		t.Fatalf("expected NotFound on double remove, got %v", err)
	}

	if err := s.AddRigidBody(b); err != nil {
		t.Fatalf("re-adding a removed body: %v", err)
	}
	if b.ID() <= firstID {
		t.Errorf("re-added body must get a fresh, larger ID: first=%d second=%d", firstID, b.ID())
	}
}

func TestConstraintAddRemoveSemantics(t *testing.T) {
	s := nova.NewSpace()

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	a := nova.NewRigidBody(init)
	init.Position = nova.Vec2(2, 0)
	b := nova.NewRigidBody(init)
	s.AddRigidBody(a)
	s.AddRigidBody(b)

	joint := nova.NewDistanceJoint(a, b, nova.Vector2{}, nova.Vector2{}, 2)
	if err := s.AddConstraint(joint); err != nil {
		t.Fatalf("AddConstraint: %v", err)
	}

	var nerr *nova.Error
	err := s.AddConstraint(joint)
	if !errors.As(err, &nerr) || nerr.Kind != nova.AlreadyAdded {
		t.Fatalf("expected AlreadyAdded on double constraint add, got %v", err)
	}

	if err := s.RemoveConstraint(joint); err != nil {
		t.Fatalf("RemoveConstraint: %v", err)
	}
	err = s.RemoveConstraint(joint)
	if !errors.As(err, &nerr) || nerr.Kind != nova.NotFound {
		t.Fatalf("expected NotFound on double constraint remove, got %v", err)
	}
}

func TestClearEmptiesSpace(t *testing.T) {
	s := nova.NewSpace()

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	a := nova.NewRigidBody(init)
	shape, _ := nova.NewRect(1, 1, nova.Vector2{})
	a.AddShape(shape)
	s.AddRigidBody(a)

	b := nova.NewRigidBody(init)
	s.AddRigidBody(b)
	s.AddConstraint(nova.NewDistanceJoint(a, b, nova.Vector2{}, nova.Vector2{}, 1))

	s.Clear(true)

	if len(s.Bodies()) != 0 || len(s.Constraints()) != 0 {
		t.Errorf("expected empty space after Clear, got %d bodies %d constraints", len(s.Bodies()), len(s.Constraints()))
	}
	if a.Space() != nil {
		t.Error("Clear(true) must release the bodies it held")
	}

	if err := s.AddRigidBody(a); err != nil {
		t.Fatalf("re-adding after Clear: %v", err)
	}
}

func TestKillBoundsRemovesEscapedBody(t *testing.T) {
	s := nova.NewSpace()
	s.SetKillBounds(nova.AABB{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10})

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	init.Position = nova.Vec2(0, 50)
	b := nova.NewRigidBody(init)
	shape, _ := nova.NewRect(1, 1, nova.Vector2{})
	b.AddShape(shape)
	s.AddRigidBody(b)

	s.Step(1.0 / 60.0)

	if len(s.Bodies()) != 0 {
		t.Error("expected the out-of-bounds body to be removed after the step")
	}
	if b.Space() != nil {
		t.Error("removed body must not reference the space")
	}
}

type recordingListener struct {
	nova.NopContactListener
	began int
}

func (l *recordingListener) OnContactBegan(ev nova.ContactEvent, arg any) {
	l.began++
}

func TestContactListenerFiresOnBegan(t *testing.T) {
	s := nova.NewSpace()
	listener := &recordingListener{}
	s.SetContactListener(listener, nil)

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	a := nova.NewRigidBody(init)
	ra, _ := nova.NewRect(1, 1, nova.Vector2{})
	a.AddShape(ra)

	init.Position = nova.Vec2(0.5, 0)
	b := nova.NewRigidBody(init)
	rb, _ := nova.NewRect(1, 1, nova.Vector2{})
	b.AddShape(rb)

	s.AddRigidBody(a)
	s.AddRigidBody(b)

	s.Step(1.0 / 60.0)

	if listener.began == 0 {
		t.Error("expected OnContactBegan to fire for overlapping bodies")
	}
}

// removeOnBegan exercises §5's rule that listener callbacks may call the
// add/remove API mid-step, with the mutation deferred to the substep flush.
type removeOnBegan struct {
	nova.NopContactListener
	space  *nova.Space
	target *nova.RigidBody
}

func (l *removeOnBegan) OnContactBegan(ev nova.ContactEvent, arg any) {
	l.space.RemoveRigidBody(l.target)
}

func TestListenerMayRemoveBodyMidStep(t *testing.T) {
	s := nova.NewSpace()
	s.SetGravity(nova.Vec2(0, -nova.GravEarth))

	init := nova.DefaultRigidBodyInit
	init.Kind = nova.Dynamic
	a := nova.NewRigidBody(init)
	ra, _ := nova.NewRect(1, 1, nova.Vector2{})
	a.AddShape(ra)

	init.Position = nova.Vec2(0.5, 0)
	b := nova.NewRigidBody(init)
	rb, _ := nova.NewRect(1, 1, nova.Vector2{})
	b.AddShape(rb)

	s.AddRigidBody(a)
	s.AddRigidBody(b)
	s.SetContactListener(&removeOnBegan{space: s, target: b}, nil)

	s.Step(1.0 / 60.0)

	if b.Space() != nil {
		t.Error("expected the listener's deferred removal to take effect at the step flush")
	}
	if len(s.Bodies()) != 1 {
		t.Errorf("expected 1 remaining body, got %d", len(s.Bodies()))
	}
}
