package nova

import "sort"

// SolverInfo holds the sequential-impulse solver's per-contact-point state
// that is preserved across steps for warm-starting.
type SolverInfo struct {
	NormalImpulse  float64
	TangentImpulse float64
	NormalMass     float64
	TangentMass    float64
	VelocityBias   float64
}

// Contact is a single point in a manifold, with its anchors expressed
// relative to each body's center of mass in world orientation.
type Contact struct {
	AnchorA, AnchorB Vector2
	Separation       float64
	// ID packs the reference/incident feature indices that produced this
	// point, used to match it to the same contact point across steps.
	ID uint32

	SolverInfo SolverInfo

	IsPersisted   bool
	RemoveInvoked bool
}

// featureID packs two edge/vertex indices and their feature types into a stable u32
// so that two narrow-phase passes over the same shape pair can recognize
// "the same contact point" even though the indices refer to whichever
// shape owns the reference/incident face that step.
func featureID(typeA, indexA, typeB, indexB uint8) uint32 {
	return uint32(typeA) | uint32(indexA)<<8 | uint32(typeB)<<16 | uint32(indexB)<<24
}

// MaxContactPoints is the maximum number of points a manifold can carry.
const MaxContactPoints = 2

// PersistentContactPair is the manifold between two shapes, plus the
// accumulated solver state that persists across steps. It is the value
// stored in Space's contact map, keyed by the ordered shape-ID pair.
type PersistentContactPair struct {
	ShapeA, ShapeB *Shape
	BodyA, BodyB   *RigidBody

	// Normal points from A to B.
	Normal Vector2

	ContactCount int
	Contacts     [MaxContactPoints]Contact

	Friction    float64
	Restitution float64
}

// Penetrating reports whether any contact point in the pair has negative
// separation, i.e. the shapes are actually overlapping rather than merely
// touching.
func (p *PersistentContactPair) Penetrating() bool {
	for i := 0; i < p.ContactCount; i++ {
		if p.Contacts[i].Separation < 0 {
			return true
		}
	}
	return false
}

// pairKey identifies a shape pair in the contact map. Construction always
// orders the smaller shape ID first, per §3's key invariant.
type pairKey struct {
	a, b uint32
}

func makePairKey(sa, sb *Shape) pairKey {
	if sa.ID < sb.ID {
		return pairKey{sa.ID, sb.ID}
	}
	return pairKey{sb.ID, sa.ID}
}

// contactStore is the Space's persistent contact map: one PCP per
// overlapping shape pair.
type contactStore struct {
	pairs map[pairKey]*PersistentContactPair
}

func newContactStore() *contactStore {
	return &contactStore{pairs: make(map[pairKey]*PersistentContactPair)}
}

func (cs *contactStore) get(sa, sb *Shape) (*PersistentContactPair, bool) {
	p, ok := cs.pairs[makePairKey(sa, sb)]
	return p, ok
}

func (cs *contactStore) set(sa, sb *Shape, pcp *PersistentContactPair) {
	cs.pairs[makePairKey(sa, sb)] = pcp
}

func (cs *contactStore) remove(sa, sb *Shape) {
	delete(cs.pairs, makePairKey(sa, sb))
}

func (cs *contactStore) len() int { return len(cs.pairs) }

// ordered returns the store's pairs sorted by their shape-ID keys. Map
// iteration order changes per range statement, so every solver phase of a
// step traverses this slice instead, keeping one stable contact order for
// the whole step.
func (cs *contactStore) ordered() []*PersistentContactPair {
	keys := make([]pairKey, 0, len(cs.pairs))
	for k := range cs.pairs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].a != keys[j].a {
			return keys[i].a < keys[j].a
		}
		return keys[i].b < keys[j].b
	})
	out := make([]*PersistentContactPair, len(keys))
	for i, k := range keys {
		out[i] = cs.pairs[k]
	}
	return out
}
