package heat

import "fmt"

// Category identifies one class of poster element (e.g. "Title", "Location").
// The set of categories is configuration, not a fixed constant; the engine
// treats values opaquely.
type Category string

// BoxRecord is one annotated bounding box: the element's category, its
// corner coordinates in source-canvas units, and the source canvas size.
// Records are constructed once per annotation, validated, and consumed by
// the mapper; they are never mutated afterwards.
type BoxRecord struct {
	// Category is the element class this box was annotated with.
	Category Category `json:"category"`

	// LayoutID identifies the source layout (poster) the box came from.
	// Distinct IDs are counted during aggregation; an empty ID is allowed
	// and contributes to no layout count.
	LayoutID string `json:"layout_id,omitempty"`

	// Corner coordinates in source-canvas units. X grows right, Y grows
	// down (origin upper-left, matching annotation exports).
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`

	// Source canvas dimensions, in the same units as the coordinates.
	CanvasW float64 `json:"canvas_w"`
	CanvasH float64 `json:"canvas_h"`
}

// Validate checks the geometric invariants: x0 < x1, y0 < y1, positive
// canvas dimensions, and at least partial overlap with the canvas. It
// returns an error wrapping [ErrInvalidBox] describing the first violation.
func (b BoxRecord) Validate() error {
	if b.CanvasW <= 0 || b.CanvasH <= 0 {
		return fmt.Errorf("%w: canvas %gx%g must be positive", ErrInvalidBox, b.CanvasW, b.CanvasH)
	}
	if b.X0 >= b.X1 {
		return fmt.Errorf("%w: x0 %g must be less than x1 %g", ErrInvalidBox, b.X0, b.X1)
	}
	if b.Y0 >= b.Y1 {
		return fmt.Errorf("%w: y0 %g must be less than y1 %g", ErrInvalidBox, b.Y0, b.Y1)
	}
	if b.X1 <= 0 || b.X0 >= b.CanvasW || b.Y1 <= 0 || b.Y0 >= b.CanvasH {
		return fmt.Errorf("%w: box (%g,%g)-(%g,%g) lies outside canvas %gx%g",
			ErrInvalidBox, b.X0, b.Y0, b.X1, b.Y1, b.CanvasW, b.CanvasH)
	}
	return nil
}
