package nova

// featureType distinguishes a vertex feature from a face feature when
// packing contact feature IDs.
const (
	featVertex uint8 = 0
	featFace   uint8 = 1
)

// collide dispatches on the two shapes' kinds and returns a manifold with
// world-space normal (A to B) and anchors, plus feature IDs for persistence
// matching. It does not know about bodies; Space.narrowPhase fills those in.
func collide(sa *Shape, xfA Transform, sb *Shape, xfB Transform) PersistentContactPair {
	switch {
	case sa.Kind == ShapeCircle && sb.Kind == ShapeCircle:
		return collideCircles(sa, xfA, sb, xfB)
	case sa.Kind == ShapeCircle && sb.Kind == ShapePolygon:
		pcp := collidePolygonCircle(sb, xfB, sa, xfA)
		return pcp.flip()
	case sa.Kind == ShapePolygon && sb.Kind == ShapeCircle:
		return collidePolygonCircle(sa, xfA, sb, xfB)
	default:
		return collidePolygons(sa, xfA, sb, xfB)
	}
}

// flip swaps the roles of A and B in a manifold (used when the dispatcher
// had to reduce circle x polygon to polygon x circle).
func (p PersistentContactPair) flip() PersistentContactPair {
	p.Normal = p.Normal.Neg()
	for i := 0; i < p.ContactCount; i++ {
		p.Contacts[i].AnchorA, p.Contacts[i].AnchorB = p.Contacts[i].AnchorB, p.Contacts[i].AnchorA
	}
	return p
}

// collideCircles implements §4.5's circle x circle rule: normal points from
// A to B (defaulting to +Y if centers coincide), the contact point sits on
// A's surface, and separation is the gap between the surfaces.
func collideCircles(a *Shape, xfA Transform, b *Shape, xfB Transform) PersistentContactPair {
	pa := xfA.Apply(a.Center)
	pb := xfB.Apply(b.Center)

	d := pb.Sub(pa)
	normal := d.Normalized()
	if d.LenSqr() == 0 {
		normal = Vec2(0, 1)
	}

	separation := d.Len() - (a.Radius + b.Radius)
	contactPoint := pa.Add(normal.Scale(a.Radius))

	return PersistentContactPair{
		Normal:       normal,
		ContactCount: 1,
		Contacts: [MaxContactPoints]Contact{
			{AnchorA: contactPoint, AnchorB: contactPoint, Separation: separation, ID: featureID(featVertex, 0, featVertex, 0)},
		},
	}
}

// collidePolygonCircle implements §4.5's circle x polygon rule: find the
// polygon face whose outward normal maximizes the support of the circle
// center; if the circle center's projection lands outside that face's
// segment, the nearest feature is a vertex instead.
func collidePolygonCircle(poly *Shape, xfPoly Transform, circ *Shape, xfCirc Transform) PersistentContactPair {
	c := xfCirc.Apply(circ.Center)
	// Circle center in the polygon's local frame.
	inv := Transform{Position: Vector2{}, Angle: -xfPoly.Angle}
	cLocal := inv.Apply(c.Sub(xfPoly.Position))

	n := poly.Count
	normalIndex := 0
	separation := -Inf
	for i := 0; i < n; i++ {
		s := poly.Normals[i].Dot(cLocal.Sub(poly.Vertices[i]))
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	v1 := poly.Vertices[normalIndex]
	v2 := poly.Vertices[(normalIndex+1)%n]

	var localNormal Vector2
	var localPoint Vector2
	var sep float64
	var featA uint8
	var idxA int

	if separation < 1e-9 {
		// Circle center is inside the polygon: the face itself is nearest.
		localNormal = poly.Normals[normalIndex]
		localPoint = cLocal.Sub(localNormal.Scale(separation + circ.Radius))
		sep = separation - circ.Radius
		featA, idxA = featFace, normalIndex
	} else {
		u1 := cLocal.Sub(v1).Dot(v2.Sub(v1))
		u2 := cLocal.Sub(v2).Dot(v1.Sub(v2))

		switch {
		case u1 <= 0:
			d := cLocal.Dist(v1)
			localNormal = cLocal.Sub(v1).Normalized()
			localPoint = v1
			sep = d - circ.Radius
			featA, idxA = featVertex, normalIndex
		case u2 <= 0:
			d := cLocal.Dist(v2)
			localNormal = cLocal.Sub(v2).Normalized()
			localPoint = v2
			sep = d - circ.Radius
			featA, idxA = featVertex, (normalIndex+1)%n
		default:
			localNormal = poly.Normals[normalIndex]
			proj := cLocal.Sub(v1).Dot(localNormal)
			localPoint = cLocal.Sub(localNormal.Scale(proj))
			sep = proj - circ.Radius
			featA, idxA = featFace, normalIndex
		}
	}

	worldNormal := localNormal.Rotated(xfPoly.Angle)
	worldPoint := xfPoly.Apply(localPoint)
	contactPoint := worldPoint

	return PersistentContactPair{
		Normal:       worldNormal,
		ContactCount: 1,
		Contacts: [MaxContactPoints]Contact{
			{AnchorA: contactPoint, AnchorB: contactPoint, Separation: sep, ID: featureID(featA, uint8(idxA), featVertex, 0)},
		},
	}
}

// findMaxSeparation returns, for every edge normal of poly1, the minimum
// support of poly2's vertices along that normal (in poly1's frame), and the
// index of the edge achieving the maximum (least negative / most positive)
// of those minima -- the candidate separating axis owned by poly1.
func findMaxSeparation(poly1 *Shape, xf1 Transform, poly2 *Shape, xf2 Transform) (float64, int) {
	bestIndex := 0
	maxSeparation := -Inf

	for i := 0; i < poly1.Count; i++ {
		n := poly1.Normals[i].Rotated(xf1.Angle)
		v1 := xf1.Apply(poly1.Vertices[i])

		si := Inf
		for j := 0; j < poly2.Count; j++ {
			vb := xf2.Apply(poly2.Vertices[j])
			sij := n.Dot(vb.Sub(v1))
			if sij < si {
				si = sij
			}
		}

		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}

	return maxSeparation, bestIndex
}

type clipVertex struct {
	v  Vector2
	id uint32
}

// findIncidentEdge returns, for a chosen reference edge on poly1, the two
// world-space vertices of poly2's most anti-parallel edge, tagged with
// feature IDs that identify which vertex of poly2 produced each point.
func findIncidentEdge(edge1 int, poly1 *Shape, xf1 Transform, poly2 *Shape, xf2 Transform) [2]clipVertex {
	normal1 := poly1.Normals[edge1].Rotated(xf1.Angle)

	index := 0
	minDot := Inf
	for i := 0; i < poly2.Count; i++ {
		n := poly2.Normals[i].Rotated(xf2.Angle)
		dot := normal1.Dot(n)
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	i1 := index
	i2 := (i1 + 1) % poly2.Count

	return [2]clipVertex{
		{v: xf2.Apply(poly2.Vertices[i1]), id: featureID(featFace, uint8(edge1), featVertex, uint8(i1))},
		{v: xf2.Apply(poly2.Vertices[i2]), id: featureID(featFace, uint8(edge1), featVertex, uint8(i2))},
	}
}

// clipSegmentToLine clips the 2-point segment vIn against the half-plane
// normal . x <= offset, reassigning feature IDs for clipped points to
// reflect that refEdge (on the reference polygon) produced them.
func clipSegmentToLine(vIn [2]clipVertex, normal Vector2, offset float64, refEdge int) ([2]clipVertex, int) {
	var out [2]clipVertex
	numOut := 0

	d0 := normal.Dot(vIn[0].v) - offset
	d1 := normal.Dot(vIn[1].v) - offset

	if d0 <= 0 {
		out[numOut] = vIn[0]
		numOut++
	}
	if d1 <= 0 {
		out[numOut] = vIn[1]
		numOut++
	}

	if d0*d1 < 0 {
		interp := d0 / (d0 - d1)
		out[numOut] = clipVertex{
			v:  vIn[0].v.Add(vIn[1].v.Sub(vIn[0].v).Scale(interp)),
			id: featureID(featVertex, uint8(refEdge), featFace, uint8(refEdge)),
		}
		numOut++
	}

	return out, numOut
}

// collidePolygons implements §4.5's SAT + incident-face-clipping rule: find
// the axis of least positive overlap (or least negative separation) across
// both polygons' edge normals, clip the other polygon's incident edge
// against the reference edge's side planes, and keep up to two points with
// non-positive separation from the reference face.
func collidePolygons(polyA *Shape, xfA Transform, polyB *Shape, xfB Transform) PersistentContactPair {
	sepA, edgeA := findMaxSeparation(polyA, xfA, polyB, xfB)
	sepB, edgeB := findMaxSeparation(polyB, xfB, polyA, xfA)

	var refPoly, incPoly *Shape
	var refXf, incXf Transform
	var refEdge int
	flip := false

	if sepB > sepA+1e-6 {
		refPoly, refXf, refEdge = polyB, xfB, edgeB
		incPoly, incXf = polyA, xfA
		flip = true
	} else {
		refPoly, refXf, refEdge = polyA, xfA, edgeA
		incPoly, incXf = polyB, xfB
	}

	refNormal := refPoly.Normals[refEdge].Rotated(refXf.Angle)
	i1 := refEdge
	i2 := (refEdge + 1) % refPoly.Count
	v1 := refXf.Apply(refPoly.Vertices[i1])
	v2 := refXf.Apply(refPoly.Vertices[i2])

	incident := findIncidentEdge(refEdge, refPoly, refXf, incPoly, incXf)

	tangent := v2.Sub(v1).Normalized()
	sideOffset1 := -tangent.Dot(v1)
	sideOffset2 := tangent.Dot(v2)

	clipped1, n1 := clipSegmentToLine(incident, tangent.Neg(), sideOffset1, refEdge)
	if n1 < 2 {
		return PersistentContactPair{Normal: orient(refNormal, flip)}
	}
	clipped2, n2 := clipSegmentToLine(clipped1, tangent, sideOffset2, refEdge)
	if n2 < 2 {
		return PersistentContactPair{Normal: orient(refNormal, flip)}
	}

	pcp := PersistentContactPair{Normal: orient(refNormal, flip)}
	for i := 0; i < 2; i++ {
		sep := refNormal.Dot(clipped2[i].v.Sub(v1))
		if sep > 1e-6 {
			continue
		}
		point := clipped2[i].v.Sub(refNormal.Scale(sep))

		c := Contact{
			AnchorA:    point,
			AnchorB:    point,
			Separation: sep,
			ID:         combineFeatureID(refEdge, clipped2[i].id, flip),
		}
		pcp.Contacts[pcp.ContactCount] = c
		pcp.ContactCount++
	}

	return pcp
}

func orient(n Vector2, flip bool) Vector2 {
	if flip {
		return n.Neg()
	}
	return n
}

// combineFeatureID folds which polygon owned the reference edge into the
// clip feature ID so that swapping reference/incident roles between two
// narrow-phase calls on the same pair still produces distinguishable IDs.
func combineFeatureID(refEdge int, clipID uint32, flip bool) uint32 {
	id := clipID ^ (uint32(refEdge) << 28)
	if flip {
		id |= 1 << 31
	}
	return id
}
