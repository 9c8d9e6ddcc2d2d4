package document

import "github.com/inamate/vecdraw/internal/geom"

// NewSampleDocument returns a small two-layer drawing used by the demo
// bridge and tests.
func NewSampleDocument() *Document {
	d := New()
	d.Layers[0].Name = "Background"

	ground := NewRectangle(geom.Pt(0, 500), geom.Pt(1280, 720))
	ground.Label = "Ground"
	ground.Style = Style{Stroke: "#2d6a4f", Fill: "#40916c", StrokeWidth: 2}
	d.AddShape(ground)

	sun := NewCircle(geom.Pt(1100, 140), 70)
	sun.Label = "Sun"
	sun.Style = Style{Stroke: "#f4a261", Fill: "#e9c46a", StrokeWidth: 3}
	d.AddShape(sun)

	d.AddLayer("Foreground")

	hill := NewCurve(geom.Pt(100, 500), geom.Pt(350, 380), geom.Pt(600, 500))
	hill.Label = "Hill"
	hill.Style.Stroke = "#1b4332"
	d.AddShape(hill)

	post := NewLine(geom.Pt(800, 500), geom.Pt(800, 380))
	post.Label = "Post"
	post.Style = Style{Stroke: "#6c584c", StrokeWidth: 6}
	d.AddShape(post)

	return d
}
