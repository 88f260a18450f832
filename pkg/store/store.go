// Package store persists finalized heatmap sets.
//
// Aggregation produces an immutable heat.Set; this package is the opaque
// sink the engine hands it to, so a later process can load prior results
// without re-aggregating. Two backends are provided:
//
//   - file: JSON documents in a directory, for CLI and single-host use
//   - mongo: a MongoDB collection, for the hosted prediction service
//
// Writes are all-or-nothing: a set is either fully persisted and loadable,
// or absent. No backend ever exposes a partially written set.
package store

import (
	"context"
	"errors"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when no set with the requested ID exists.
	ErrNotFound = errors.New("heatmap set not found")

	// ErrEmpty is returned by Latest when the store holds no sets at all.
	ErrEmpty = errors.New("store is empty")
)

// SetInfo summarizes one stored set without its grid payload.
type SetInfo struct {
	ID          string `json:"id" bson:"_id"`
	Rows        int    `json:"rows" bson:"rows"`
	Cols        int    `json:"cols" bson:"cols"`
	Categories  int    `json:"categories" bson:"categories"`
	SampleCount int    `json:"sample_count" bson:"sample_count"`
	LayoutCount int    `json:"layout_count" bson:"layout_count"`
	BuiltAt     string `json:"built_at" bson:"built_at"`
}

// Store persists and retrieves finalized heatmap sets.
type Store interface {
	// Save persists a finalized set under its run ID.
	Save(ctx context.Context, set *heat.Set) error

	// Load retrieves a set by run ID, or ErrNotFound.
	Load(ctx context.Context, id string) (*heat.Set, error)

	// Latest retrieves the most recently built set, or ErrEmpty.
	Latest(ctx context.Context) (*heat.Set, error)

	// List summarizes all stored sets, newest first.
	List(ctx context.Context) ([]SetInfo, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// info builds the summary row for a set.
func info(s *heat.Set) SetInfo {
	return SetInfo{
		ID:          s.ID,
		Rows:        s.Rows,
		Cols:        s.Cols,
		Categories:  len(s.Categories),
		SampleCount: s.SampleCount,
		LayoutCount: s.LayoutCount,
		BuiltAt:     s.BuiltAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
