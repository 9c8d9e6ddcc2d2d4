package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// SnapshotVersion is written into every snapshot and required on import.
const SnapshotVersion = 1

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the serialized text of a whole document. It is never
// modified after creation.
type Snapshot string

type snapshotDoc struct {
	Version int             `json:"version"`
	Active  int             `json:"activeLayer"`
	Layers  []snapshotLayer `json:"layers"`
}

type snapshotLayer struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Visible bool            `json:"visible"`
	Shapes  []snapshotShape `json:"shapes"`
}

type snapshotShape struct {
	Kind Kind `json:"kind"`
	Path
}

// Export serializes the document.
func Export(d *Document) (Snapshot, error) {
	out := snapshotDoc{
		Version: SnapshotVersion,
		Active:  d.Active,
		Layers:  make([]snapshotLayer, 0, len(d.Layers)),
	}
	for _, l := range d.Layers {
		sl := snapshotLayer{
			ID:      l.ID,
			Name:    l.Name,
			Visible: l.Visible,
			Shapes:  make([]snapshotShape, 0, len(l.Shapes)),
		}
		for _, s := range l.Shapes {
			sl.Shapes = append(sl.Shapes, snapshotShape{Kind: s.Kind(), Path: *s.Base()})
		}
		out.Layers = append(out.Layers, sl)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return Snapshot(data), nil
}

// Import parses and validates a snapshot into a new document. Errors wrap
// ErrInvalidSnapshot.
func Import(s Snapshot) (*Document, error) {
	var in snapshotDoc
	if err := json.Unmarshal([]byte(s), &in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if in.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, in.Version)
	}
	if len(in.Layers) == 0 && in.Active != 0 || len(in.Layers) > 0 && (in.Active < 0 || in.Active >= len(in.Layers)) {
		return nil, fmt.Errorf("%w: active layer %d out of range", ErrInvalidSnapshot, in.Active)
	}

	d := &Document{Active: in.Active, Layers: make([]*Layer, 0, len(in.Layers))}
	seen := make(map[string]bool)
	for li, sl := range in.Layers {
		if sl.ID == "" || seen[sl.ID] {
			return nil, fmt.Errorf("%w: layer %d: missing or duplicate id", ErrInvalidSnapshot, li)
		}
		seen[sl.ID] = true

		l := &Layer{ID: sl.ID, Name: sl.Name, Visible: sl.Visible, Shapes: make([]Shape, 0, len(sl.Shapes))}
		for si, ss := range sl.Shapes {
			if err := validatePath(&ss.Path); err != nil {
				return nil, fmt.Errorf("%w: layer %d shape %d: %v", ErrInvalidSnapshot, li, si, err)
			}
			if seen[ss.ShapeID] {
				return nil, fmt.Errorf("%w: layer %d shape %d: duplicate id %s", ErrInvalidSnapshot, li, si, ss.ShapeID)
			}
			seen[ss.ShapeID] = true

			shape, err := newShape(ss.Kind, ss.Path)
			if err != nil {
				return nil, fmt.Errorf("%w: layer %d shape %d: %v", ErrInvalidSnapshot, li, si, err)
			}
			l.Shapes = append(l.Shapes, shape)
		}
		d.Layers = append(d.Layers, l)
	}
	return d, nil
}

func validatePath(p *Path) error {
	if p.ShapeID == "" {
		return errors.New("missing id")
	}
	if len(p.Segments) == 0 {
		return errors.New("no segments")
	}
	if p.Style.StrokeWidth < 0 || !finite(p.Style.StrokeWidth) || !finite(p.Angle) {
		return errors.New("invalid style or rotation")
	}
	for i, s := range p.Segments {
		if s == nil {
			return fmt.Errorf("segment %d is null", i)
		}
		if !s.Point.IsFinite() ||
			s.HandleIn != nil && !s.HandleIn.IsFinite() ||
			s.HandleOut != nil && !s.HandleOut.IsFinite() {
			return fmt.Errorf("segment %d has non-finite coordinates", i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
