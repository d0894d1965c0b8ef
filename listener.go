package nova

// ContactEvent carries the details of a single contact point, passed to a
// ContactListener's callbacks.
type ContactEvent struct {
	BodyA, BodyB   *RigidBody
	ShapeA, ShapeB *Shape
	Normal         Vector2
	Penetration    float64
	Position       Vector2
	NormalImpulse  float64
	FrictionImpulse float64
	ID             uint32
}

// ContactListener receives notifications as persistent contact pairs begin,
// persist across a step, and are removed. Implementations must not mutate
// the Space other than through its deferred add/remove API (§5); the core
// makes no guarantees about a callback that panics.
type ContactListener interface {
	OnContactBegan(event ContactEvent, userArg any)
	OnContactPersisted(event ContactEvent, userArg any)
	OnContactRemoved(event ContactEvent, userArg any)
}

// NopContactListener is a ContactListener whose callbacks do nothing; a
// convenient embed for listeners that only care about one event kind.
type NopContactListener struct{}

func (NopContactListener) OnContactBegan(ContactEvent, any)     {}
func (NopContactListener) OnContactPersisted(ContactEvent, any) {}
func (NopContactListener) OnContactRemoved(ContactEvent, any)   {}
