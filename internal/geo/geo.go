// Package geo resolves free-form place text to coordinates.
package geo

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a place cannot be resolved to coordinates.
var ErrNotFound = errors.New("place not found")

// Location is a resolved geographic coordinate pair.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Resolver resolves place text to a location.
type Resolver interface {
	Resolve(ctx context.Context, place string) (*Location, error)
}
