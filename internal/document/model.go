package document

import (
	"errors"
	"fmt"

	"github.com/inamate/vecdraw/internal/typeid"
)

var ErrLayerNotFound = errors.New("layer not found")

type Layer struct {
	ID      string
	Name    string
	Visible bool
	Shapes  []Shape
}

// Document is the scene graph: ordered layers of ordered shapes.
type Document struct {
	Layers []*Layer
	// Active is the index of the layer new shapes are added to.
	Active int
}

// New creates a document with a single empty layer.
func New() *Document {
	d := &Document{}
	d.AddLayer("")
	return d
}

// AddLayer appends a layer and makes it active. An empty name becomes
// "Layer N".
func (d *Document) AddLayer(name string) *Layer {
	if name == "" {
		name = fmt.Sprintf("Layer %d", len(d.Layers)+1)
	}
	l := &Layer{ID: typeid.NewLayerID(), Name: name, Visible: true}
	d.Layers = append(d.Layers, l)
	d.Active = len(d.Layers) - 1
	return l
}

// RemoveLayer deletes a layer and every shape on it.
func (d *Document) RemoveLayer(id string) (*Layer, error) {
	idx := d.layerIndex(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	l := d.Layers[idx]
	d.Layers = append(d.Layers[:idx], d.Layers[idx+1:]...)
	switch {
	case len(d.Layers) == 0:
		d.Active = 0
	case d.Active > idx || d.Active >= len(d.Layers):
		d.Active--
	}
	return l, nil
}

func (d *Document) ActivateLayer(id string) error {
	idx := d.layerIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	d.Active = idx
	return nil
}

// ActiveLayer returns the active layer, or nil when there are none.
func (d *Document) ActiveLayer() *Layer {
	if len(d.Layers) == 0 {
		return nil
	}
	return d.Layers[d.Active]
}

// AddShape appends s to the active layer, creating a layer if the
// document has none.
func (d *Document) AddShape(s Shape) *Layer {
	l := d.ActiveLayer()
	if l == nil {
		l = d.AddLayer("")
	}
	l.Shapes = append(l.Shapes, s)
	return l
}

// RemoveShape deletes the shape with the given id and reports whether it
// existed.
func (d *Document) RemoveShape(id string) bool {
	for _, l := range d.Layers {
		for i, s := range l.Shapes {
			if s.ID() == id {
				l.Shapes = append(l.Shapes[:i], l.Shapes[i+1:]...)
				return true
			}
		}
	}
	return false
}

func (d *Document) FindShape(id string) Shape {
	for _, l := range d.Layers {
		for _, s := range l.Shapes {
			if s.ID() == id {
				return s
			}
		}
	}
	return nil
}

// LayerOf returns the layer owning the shape with the given id.
func (d *Document) LayerOf(id string) *Layer {
	for _, l := range d.Layers {
		for _, s := range l.Shapes {
			if s.ID() == id {
				return l
			}
		}
	}
	return nil
}

func (d *Document) ShapeCount() int {
	n := 0
	for _, l := range d.Layers {
		n += len(l.Shapes)
	}
	return n
}

// Clear removes every layer.
func (d *Document) Clear() {
	d.Layers = nil
	d.Active = 0
}

func (d *Document) layerIndex(id string) int {
	for i, l := range d.Layers {
		if l.ID == id {
			return i
		}
	}
	return -1
}
