package heat

import "errors"

// Sentinel errors for aggregation and scoring operations.
var (
	// ErrInvalidBox is returned for malformed or out-of-bounds box geometry:
	// inverted coordinates, non-positive canvas dimensions, or a box that
	// lies entirely outside its source canvas.
	ErrInvalidBox = errors.New("invalid box")

	// ErrResolutionMismatch is returned when a query expects a grid
	// resolution different from the one a finalized set was built with.
	// Grids of different resolutions must never be combined.
	ErrResolutionMismatch = errors.New("resolution mismatch")

	// ErrEmptyCorpus is returned when an aggregation run ends with no
	// declared categories and no absorbed records, so the shape of the
	// result cannot be inferred. A run with declared categories and zero
	// records is not an error: it finalizes to all-zero grids.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrUnknownCategory is returned by lookups for a category that is not
	// present in a finalized set. Scoring treats this condition as a neutral
	// signal rather than a failure; only direct lookups surface it.
	ErrUnknownCategory = errors.New("unknown category")
)
