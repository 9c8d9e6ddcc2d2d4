// Package codegen emits game-engine drawing code for a document.
package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
	"golang.org/x/image/colornames"

	"github.com/inamate/vecdraw/internal/document"
)

const header = `const config = {
    type: Phaser.AUTO,
    width: %d,
    height: %d,
    scene: {
        preload: preload,
        create: create
    }
};

const game = new Phaser.Game(config);

function preload() {
    // Preload assets if any
}

function create() {
`

// Phaser returns a Phaser 3 program that draws doc on a width x height
// canvas. It only reads the document.
func Phaser(doc *document.Document, width, height int) string {
	var b strings.Builder
	fmt.Fprintf(&b, header, width, height)

	names := map[string]int{}
	for li, l := range doc.Layers {
		if !l.Visible {
			fmt.Fprintf(&b, "    // Layer %d: %s (hidden)\n\n", li+1, l.Name)
			continue
		}
		fmt.Fprintf(&b, "    // Layer %d: %s\n", li+1, l.Name)
		for _, s := range l.Shapes {
			v := varName(names, l.Name, s.Name())
			p := s.Base()
			switch {
			case s.Kind() == document.KindRectangle && axisAligned(p):
				emitRectangle(&b, v, s)
			case s.Kind() == document.KindCircle && p.Angle == 0 && len(p.Segments) == 4:
				emitEllipse(&b, v, s)
			default:
				emitPath(&b, v, s)
			}
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func emitRectangle(b *strings.Builder, v string, s document.Shape) {
	r := s.Bounds()
	c := r.Center()
	fmt.Fprintf(b, "    // Rectangle: %s\n", s.Name())
	fmt.Fprintf(b, "    const %s = this.add.rectangle(%s, %s, %s, %s%s);\n",
		v, num(c.X), num(c.Y), num(r.Width), num(r.Height), fillArgs(s))
	fmt.Fprintf(b, "    %s.setStrokeStyle(%s);\n\n", v, strokeArgs(s))
}

func emitEllipse(b *strings.Builder, v string, s document.Shape) {
	r := s.Bounds()
	c := r.Center()
	if r.Width == r.Height {
		fmt.Fprintf(b, "    // Circle: %s\n", s.Name())
		fmt.Fprintf(b, "    const %s = this.add.circle(%s, %s, %s%s);\n",
			v, num(c.X), num(c.Y), num(r.Width/2), fillArgs(s))
	} else {
		fmt.Fprintf(b, "    // Ellipse: %s\n", s.Name())
		fmt.Fprintf(b, "    const %s = this.add.ellipse(%s, %s, %s, %s%s);\n",
			v, num(c.X), num(c.Y), num(r.Width), num(r.Height), fillArgs(s))
	}
	fmt.Fprintf(b, "    %s.setStrokeStyle(%s);\n\n", v, strokeArgs(s))
}

// emitPath draws straight outlines with the graphics path API and curved
// ones through a Phaser.Curves.Path.
func emitPath(b *strings.Builder, v string, s document.Shape) {
	p := s.Base()
	fmt.Fprintf(b, "    // %s: %s\n", s.Kind(), s.Name())
	fmt.Fprintf(b, "    const %s = this.add.graphics();\n", v)
	fmt.Fprintf(b, "    %s.lineStyle(%s);\n", v, strokeArgs(s))
	if len(p.Segments) == 0 {
		b.WriteString("\n")
		return
	}
	start := p.Segments[0].Point
	curves := p.Curves()

	straight := true
	for _, c := range curves {
		straight = straight && c.Straight
	}

	if straight {
		fmt.Fprintf(b, "    %s.beginPath();\n", v)
		fmt.Fprintf(b, "    %s.moveTo(%s, %s);\n", v, num(start.X), num(start.Y))
		for _, c := range curves {
			fmt.Fprintf(b, "    %s.lineTo(%s, %s);\n", v, num(c.To.X), num(c.To.Y))
		}
		if p.Closed {
			fmt.Fprintf(b, "    %s.closePath();\n", v)
		}
		if p.Style.Fill != "" {
			fmt.Fprintf(b, "    %s.fillStyle(%s, 1);\n", v, Hex(p.Style.Fill))
			fmt.Fprintf(b, "    %s.fillPath();\n", v)
		}
		fmt.Fprintf(b, "    %s.strokePath();\n\n", v)
		return
	}

	path := v + "Path"
	fmt.Fprintf(b, "    const %s = new Phaser.Curves.Path(%s, %s);\n", path, num(start.X), num(start.Y))
	for _, c := range curves {
		if c.Straight {
			fmt.Fprintf(b, "    %s.lineTo(%s, %s);\n", path, num(c.To.X), num(c.To.Y))
			continue
		}
		fmt.Fprintf(b, "    %s.cubicBezierTo(%s, %s, %s, %s, %s, %s);\n", path,
			num(c.To.X), num(c.To.Y), num(c.C1.X), num(c.C1.Y), num(c.C2.X), num(c.C2.Y))
	}
	if p.Closed {
		fmt.Fprintf(b, "    %s.closePath();\n", path)
	}
	if p.Style.Fill != "" {
		fmt.Fprintf(b, "    %s.fillStyle(%s, 1);\n", v, Hex(p.Style.Fill))
		fmt.Fprintf(b, "    %s.fillPoints(%s.getPoints(), true);\n", v, path)
	}
	fmt.Fprintf(b, "    %s.draw(%s);\n\n", path, v)
}

// axisAligned reports whether p is still a plain box: four straight
// horizontal and vertical edges.
func axisAligned(p *document.Path) bool {
	if len(p.Segments) != 4 || !p.Closed {
		return false
	}
	for i, s := range p.Segments {
		if s.HandleIn != nil || s.HandleOut != nil {
			return false
		}
		next := p.Segments[(i+1)%4].Point
		if s.Point.X != next.X && s.Point.Y != next.Y {
			return false
		}
	}
	return true
}

func strokeArgs(s document.Shape) string {
	st := s.Base().Style
	w := st.StrokeWidth
	if w == 0 {
		w = document.DefaultStyle().StrokeWidth
	}
	return fmt.Sprintf("%s, %s, 1", num(w), Hex(st.Stroke))
}

func fillArgs(s document.Shape) string {
	fill := s.Base().Style.Fill
	if fill == "" {
		return ""
	}
	return ", " + Hex(fill) + ", 1"
}

// Hex converts a CSS colour to a Phaser 0xRRGGBB literal. Unknown colours
// become black.
func Hex(color string) string {
	c := strings.ToLower(strings.TrimSpace(color))
	if strings.HasPrefix(c, "#") {
		h := c[1:]
		if len(h) == 3 {
			h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
		}
		if len(h) == 6 {
			if _, err := strconv.ParseUint(h, 16, 32); err == nil {
				return "0x" + h
			}
		}
		return "0x000000"
	}
	if rgba, ok := colornames.Map[c]; ok {
		return fmt.Sprintf("0x%02x%02x%02x", rgba.R, rgba.G, rgba.B)
	}
	return "0x000000"
}

// varName builds a unique lowerCamelCase identifier from the layer and
// shape names.
func varName(used map[string]int, layer, shape string) string {
	base := strcase.ToLowerCamel(identWords(layer + " " + shape))
	if base == "" || unicode.IsDigit(rune(base[0])) {
		base = "shape" + strcase.ToCamel(base)
	}
	used[base]++
	if n := used[base]; n > 1 {
		return base + strconv.Itoa(n)
	}
	return base
}

func identWords(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return ' '
	}, s)
}

func num(v float64) string {
	if v == 0 || math.IsNaN(v) {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
