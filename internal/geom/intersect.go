package geom

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Distance from p to the segment ab.
func SegmentDistance2(p, a, b r2.Vec) float64 {
	ab := r2.Sub(b, a)
	lenSq := r2.Dot(ab, ab)
	if lenSq == 0 {
		return r2.Norm(r2.Sub(p, a))
	}
	t := math.Max(0, math.Min(1, r2.Dot(r2.Sub(p, a), ab)/lenSq))
	return r2.Norm(r2.Sub(p, r2.Add(a, r2.Scale(t, ab))))
}

// ProjectOntoSegment returns the parameter of the point on segment ab closest
// to p (clamped to [0,1]), and the distance to it.
func ProjectOntoSegment(p, a, b r3.Vec) (t, dist float64) {
	ab := r3.Sub(b, a)
	lenSq := r3.Norm2(ab)
	if lenSq == 0 {
		return 0, r3.Norm(r3.Sub(p, a))
	}
	t = math.Max(0, math.Min(1, r3.Dot(r3.Sub(p, a), ab)/lenSq))
	return t, r3.Norm(r3.Sub(p, r3.Add(a, r3.Scale(t, ab))))
}

// PointOnSegmentInterior reports whether p lies on ab within tol, but farther
// than tol from both endpoints.
func PointOnSegmentInterior(p, a, b r3.Vec, tol float64) (float64, bool) {
	t, dist := ProjectOntoSegment(p, a, b)
	if dist > tol {
		return t, false
	}
	if VecEqual(p, a, tol) || VecEqual(p, b, tol) {
		return t, false
	}
	return t, true
}

// RayIntersection2D intersects the lines o1 + t1*d1 and o2 + t2*d2. It fails
// when the directions are parallel within dotTol.
func RayIntersection2D(o1, d1, o2, d2 r2.Vec, dotTol float64) (t1, t2 float64, ok bool) {
	denom := r2.Cross(d1, d2)
	if math.Abs(denom) <= dotTol*r2.Norm(d1)*r2.Norm(d2) {
		return 0, 0, false
	}
	w := r2.Sub(o2, o1)
	t1 = r2.Cross(w, d2) / denom
	t2 = r2.Cross(w, d1) / denom
	return t1, t2, true
}

// SegmentIntersection3D finds where two segments cross, treating them as
// crossing when their closest points are within tol. Parallel segments never
// cross; collinear overlaps are handled by callers.
func SegmentIntersection3D(a0, a1, b0, b1 r3.Vec, tol, dotTol float64) (p r3.Vec, ta, tb float64, ok bool) {
	d1 := r3.Sub(a1, a0)
	d2 := r3.Sub(b1, b0)
	a := r3.Dot(d1, d1)
	e := r3.Dot(d2, d2)
	if a == 0 || e == 0 {
		return r3.Vec{}, 0, 0, false
	}
	r := r3.Sub(a0, b0)
	b := r3.Dot(d1, d2)
	c := r3.Dot(d1, r)
	f := r3.Dot(d2, r)
	denom := a*e - b*b
	if denom <= dotTol*a*e {
		return r3.Vec{}, 0, 0, false
	}
	ta = (b*f - c*e) / denom
	tb = (a*f - b*c) / denom
	tolA := tol / math.Sqrt(a)
	tolB := tol / math.Sqrt(e)
	if ta < -tolA || ta > 1+tolA || tb < -tolB || tb > 1+tolB {
		return r3.Vec{}, 0, 0, false
	}
	pa := r3.Add(a0, r3.Scale(ta, d1))
	pb := r3.Add(b0, r3.Scale(tb, d2))
	if r3.Norm(r3.Sub(pa, pb)) > tol {
		return r3.Vec{}, 0, 0, false
	}
	return pa, ta, tb, true
}

// ClipLine intersects the infinite line origin + t*dir with the polygon and
// returns the parameter intervals lying inside or on its boundary, sorted
// and merged. dir must be unit length.
func (poly Polygon) ClipLine(origin, dir r2.Vec, tol float64) [][2]float64 {
	var ts []float64
	for i, a := range poly.Points {
		b := poly.Points[CircularIndex(i+1, len(poly.Points))]
		edge := r2.Sub(b, a)
		edgeLen := r2.Norm(edge)
		if edgeLen == 0 {
			continue
		}
		w := r2.Sub(a, origin)
		denom := r2.Cross(dir, edge)
		if math.Abs(denom) <= Tolerance*edgeLen {
			// Parallel; collinear edges contribute both endpoints
			if math.Abs(r2.Cross(dir, w)) <= tol {
				ts = append(ts, r2.Dot(w, dir), r2.Dot(r2.Sub(b, origin), dir))
			}
			continue
		}
		s := r2.Cross(w, dir) / denom
		sTol := tol / edgeLen
		if s < -sTol || s > 1+sTol {
			continue
		}
		ts = append(ts, r2.Cross(w, edge)/denom)
	}
	slices.Sort(ts)
	ts = slices.CompactFunc(ts, func(a, b float64) bool { return math.Abs(a-b) <= tol })

	var intervals [][2]float64
	for i := 0; i+1 < len(ts); i++ {
		mid := r2.Add(origin, r2.Scale((ts[i]+ts[i+1])/2, dir))
		if poly.Locate(mid, tol) == Outside {
			continue
		}
		if n := len(intervals); n > 0 && math.Abs(intervals[n-1][1]-ts[i]) <= tol {
			intervals[n-1][1] = ts[i+1]
			continue
		}
		intervals = append(intervals, [2]float64{ts[i], ts[i+1]})
	}
	return intervals
}

// IntersectIntervals returns the overlap of two sorted interval lists,
// dropping overlaps shorter than tol.
func IntersectIntervals(a, b [][2]float64, tol float64) [][2]float64 {
	var result [][2]float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := math.Max(a[i][0], b[j][0])
		hi := math.Min(a[i][1], b[j][1])
		if hi-lo > tol {
			result = append(result, [2]float64{lo, hi})
		}
		if a[i][1] < b[j][1] {
			i++
		} else {
			j++
		}
	}
	return result
}
