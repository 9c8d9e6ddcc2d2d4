package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/geom"
)

func TestPhaserSample(t *testing.T) {
	doc := document.NewSampleDocument()
	before, err := document.Export(doc)
	require.NoError(t, err)

	code := Phaser(doc, 1280, 720)

	assert.Contains(t, code, "width: 1280,")
	assert.Contains(t, code, "height: 720,")
	assert.Contains(t, code, "// Layer 1: Background\n")
	assert.Contains(t, code, "// Layer 2: Foreground\n")
	assert.Contains(t, code, "const backgroundGround = this.add.rectangle(640.00, 610.00, 1280.00, 220.00, 0x40916c, 1);")
	assert.Contains(t, code, "backgroundGround.setStrokeStyle(2.00, 0x2d6a4f, 1);")
	assert.Contains(t, code, "const backgroundSun = this.add.circle(1100.00, 140.00, 70.00, 0xe9c46a, 1);")
	assert.Contains(t, code, "const foregroundHillPath = new Phaser.Curves.Path(100.00, 500.00);")
	assert.Contains(t, code, "foregroundHillPath.cubicBezierTo(")
	assert.Contains(t, code, "foregroundHillPath.draw(foregroundHill);")
	assert.Contains(t, code, "foregroundPost.lineStyle(6.00, 0x6c584c, 1);")
	assert.Contains(t, code, "foregroundPost.moveTo(800.00, 500.00);")
	assert.Contains(t, code, "foregroundPost.lineTo(800.00, 380.00);")
	assert.True(t, strings.HasSuffix(code, "}\n"))

	after, err := document.Export(doc)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPhaserFallsBackToPaths(t *testing.T) {
	doc := document.New()
	r := document.NewRectangle(geom.Pt(0, 0), geom.Pt(10, 10))
	r.SetRotation(45)
	doc.AddShape(r)
	p := document.NewFreePath(geom.Pt(0, 0), geom.Pt(5, 5), geom.Pt(10, 0))
	p.Closed = true
	p.Style.Fill = "#abc"
	doc.AddShape(p)

	code := Phaser(doc, 100, 100)
	assert.Contains(t, code, "const layer1Rectangle = this.add.graphics();")
	assert.Contains(t, code, "layer1Rectangle.beginPath();")
	assert.NotContains(t, code, "this.add.rectangle")
	assert.Contains(t, code, "layer1Path.closePath();")
	assert.Contains(t, code, "layer1Path.fillStyle(0xaabbcc, 1);")
	assert.Contains(t, code, "layer1Path.fillPath();")
}

func TestPhaserHiddenLayerAndEllipse(t *testing.T) {
	doc := document.New()
	c := document.NewCircle(geom.Pt(50, 50), 10)
	require.NoError(t, c.Resize(40, 20))
	doc.AddShape(c)
	doc.AddLayer("Secret")
	doc.AddShape(document.NewLine(geom.Pt(0, 0), geom.Pt(1, 1)))
	doc.Layers[1].Visible = false

	code := Phaser(doc, 100, 100)
	assert.Contains(t, code, "const layer1Circle = this.add.ellipse(")
	assert.Contains(t, code, "// Layer 2: Secret (hidden)")
	assert.NotContains(t, code, "secretLine")
}

func TestVarNamesAreUniqueIdentifiers(t *testing.T) {
	used := map[string]int{}
	assert.Equal(t, "layer1Line", varName(used, "Layer 1", "Line"))
	assert.Equal(t, "layer1Line2", varName(used, "Layer 1", "Line"))
	assert.Equal(t, "myLayerBigDoor", varName(used, "my-layer", "Big \"Door\"!"))
	assert.True(t, strings.HasPrefix(varName(used, "", "2nd"), "shape"))
}

func TestHex(t *testing.T) {
	for in, want := range map[string]string{
		"black":   "0x000000",
		"Tomato":  "0xff6347",
		"#abc":    "0xaabbcc",
		"#12AB9f": "0x12ab9f",
		"#xyz":    "0x000000",
		"bogus":   "0x000000",
	} {
		assert.Equal(t, want, Hex(in), in)
	}
}
