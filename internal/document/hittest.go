package document

import "github.com/inamate/vecdraw/internal/geom"

// HitTest returns the topmost visible shape whose node, stroke or fill lies
// within tolerance of p, or nil. Later layers and later shapes are on top.
func (d *Document) HitTest(p geom.Point, tolerance float64) Shape {
	for li := len(d.Layers) - 1; li >= 0; li-- {
		l := d.Layers[li]
		if !l.Visible {
			continue
		}
		for si := len(l.Shapes) - 1; si >= 0; si-- {
			if HitShape(l.Shapes[si], p, tolerance) {
				return l.Shapes[si]
			}
		}
	}
	return nil
}

// HitShape tests a single shape.
func HitShape(s Shape, p geom.Point, tolerance float64) bool {
	path := s.Base()
	reach := tolerance + path.Style.StrokeWidth/2
	if !path.Bounds().Inset(reach).Contains(p) {
		return false
	}

	for _, seg := range path.Segments {
		if seg.Point.Dist(p) <= tolerance {
			return true
		}
	}

	outline := path.Flatten()
	for i := 1; i < len(outline); i++ {
		if geom.SegmentDist(p, outline[i-1], outline[i]) <= reach {
			return true
		}
	}

	if path.Closed && path.Style.Fill != "" {
		return insidePolygon(p, outline)
	}
	return false
}

// insidePolygon uses the even-odd rule.
func insidePolygon(p geom.Point, poly []geom.Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}
