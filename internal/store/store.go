// Package store persists saved designs.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/inamate/vecdraw/internal/document"
	"github.com/inamate/vecdraw/internal/typeid"
)

var (
	ErrNotFound  = errors.New("design not found")
	ErrInvalidID = errors.New("invalid design id")
)

// Design is a named, saved document.
type Design struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Snapshot  document.Snapshot `json:"snapshot"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Summary is a design without its snapshot, for listings.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store interface {
	Save(ctx context.Context, d Design) error
	Load(ctx context.Context, id string) (Design, error)
	// List returns summaries, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
}

// Prepare fills in a missing id, name and timestamp and checks that the
// snapshot opens.
func Prepare(d Design, now time.Time) (Design, error) {
	if d.ID == "" {
		d.ID = typeid.NewDesignID()
	} else if err := typeid.Validate(d.ID, typeid.PrefixDesign); err != nil {
		return d, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		d.Name = "Untitled"
	}
	if _, err := document.Import(d.Snapshot); err != nil {
		return d, err
	}
	d.UpdatedAt = now.UTC()
	return d, nil
}

func checkID(id string) error {
	if err := typeid.Validate(id, typeid.PrefixDesign); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	return nil
}
