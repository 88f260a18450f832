package annotations

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/posterlab/heatgrid/pkg/heat"
)

// percentCanvas is the canvas size of percentage-based rectangle exports.
const percentCanvas = 100.0

// =============================================================================
// Export Structures
// =============================================================================

// task is one Label Studio task. Export flavours differ in where the result
// list lives: flat ("result"), per-file ("annotation.result"), or bulk
// nested ("annotations[0].result").
type task struct {
	ID          json.Number  `json:"id"`
	Result      []rectResult `json:"result"`
	Annotation  *annotation  `json:"annotation"`
	Annotations []annotation `json:"annotations"`
}

type annotation struct {
	Result []rectResult `json:"result"`
}

// rectResult is one annotated rectangle inside a task result list.
type rectResult struct {
	Type  string    `json:"type"`
	Value rectValue `json:"value"`
}

type rectValue struct {
	X               float64  `json:"x"`
	Y               float64  `json:"y"`
	Width           float64  `json:"width"`
	Height          float64  `json:"height"`
	RectangleLabels []string `json:"rectanglelabels"`
}

// results returns the task's rectangle list regardless of export flavour.
func (t *task) results() []rectResult {
	switch {
	case len(t.Result) > 0:
		return t.Result
	case t.Annotation != nil:
		return t.Annotation.Result
	case len(t.Annotations) > 0:
		return t.Annotations[0].Result
	}
	return nil
}

// boxes flattens a task into BoxRecords. Rectangles whose label is not in
// the allowed set are dropped; allowed == nil admits everything. Geometric
// validity is deliberately not checked here: the aggregation policy decides
// what happens to malformed boxes.
func (t *task) boxes(layoutID string, allowed map[heat.Category]struct{}) []heat.BoxRecord {
	var out []heat.BoxRecord
	for _, r := range t.results() {
		if r.Type != "" && r.Type != "rectanglelabels" {
			continue
		}
		if len(r.Value.RectangleLabels) == 0 {
			continue
		}
		cat := heat.Category(r.Value.RectangleLabels[0])
		if allowed != nil {
			if _, ok := allowed[cat]; !ok {
				continue
			}
		}
		out = append(out, heat.BoxRecord{
			Category: cat,
			LayoutID: layoutID,
			X0:       r.Value.X,
			Y0:       r.Value.Y,
			X1:       r.Value.X + r.Value.Width,
			Y1:       r.Value.Y + r.Value.Height,
			CanvasW:  percentCanvas,
			CanvasH:  percentCanvas,
		})
	}
	return out
}

func allowedSet(categories []heat.Category) map[heat.Category]struct{} {
	if len(categories) == 0 {
		return nil
	}
	m := make(map[heat.Category]struct{}, len(categories))
	for _, c := range categories {
		m[c] = struct{}{}
	}
	return m
}

// =============================================================================
// BulkSource - Single Bulk-Export JSON
// =============================================================================

// BulkSource streams BoxRecords from a bulk export: one JSON array of tasks.
// Tasks are decoded one at a time off the reader; only the current task's
// boxes are buffered.
type BulkSource struct {
	dec     *json.Decoder
	allowed map[heat.Category]struct{}
	pending []heat.BoxRecord
	started bool
	seq     int
}

// NewBulkSource creates a source over a bulk export stream. Pass the
// configured category set to drop rectangles with unconfigured labels, or
// nil to admit every label.
func NewBulkSource(r io.Reader, categories []heat.Category) *BulkSource {
	return &BulkSource{
		dec:     json.NewDecoder(r),
		allowed: allowedSet(categories),
	}
}

// Next returns the next record, or io.EOF after the last task's last box.
func (s *BulkSource) Next() (heat.BoxRecord, error) {
	for len(s.pending) == 0 {
		if !s.started {
			tok, err := s.dec.Token()
			if err != nil {
				return heat.BoxRecord{}, fmt.Errorf("read export: %w", err)
			}
			if d, ok := tok.(json.Delim); !ok || d != '[' {
				return heat.BoxRecord{}, fmt.Errorf("bulk export must be a JSON array, got %v", tok)
			}
			s.started = true
		}
		if !s.dec.More() {
			return heat.BoxRecord{}, io.EOF
		}

		var t task
		if err := s.dec.Decode(&t); err != nil {
			return heat.BoxRecord{}, fmt.Errorf("decode task: %w", err)
		}
		s.seq++
		s.pending = t.boxes(taskLayoutID(t, s.seq), s.allowed)
	}

	rec := s.pending[0]
	s.pending = s.pending[1:]
	return rec, nil
}

// taskLayoutID derives a stable layout identifier from the task ID, falling
// back to the task's position in the export.
func taskLayoutID(t task, seq int) string {
	if t.ID.String() != "" {
		return "task-" + t.ID.String()
	}
	return "task-#" + strconv.Itoa(seq)
}

// =============================================================================
// DirSource - Directory of Per-Task Files
// =============================================================================

// DirSource streams BoxRecords from a directory of per-task JSON files.
// Files are visited in lexical order so aggregation output is deterministic.
type DirSource struct {
	files   []string
	allowed map[heat.Category]struct{}
	pending []heat.BoxRecord
}

// NewDirSource creates a source over all .json files directly inside dir.
func NewDirSource(dir string, categories []heat.Category) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read annotation dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return &DirSource{files: files, allowed: allowedSet(categories)}, nil
}

// Next returns the next record, or io.EOF after the final file.
func (s *DirSource) Next() (heat.BoxRecord, error) {
	for len(s.pending) == 0 {
		if len(s.files) == 0 {
			return heat.BoxRecord{}, io.EOF
		}
		path := s.files[0]
		s.files = s.files[1:]

		data, err := os.ReadFile(path)
		if err != nil {
			return heat.BoxRecord{}, fmt.Errorf("read task file: %w", err)
		}
		var t task
		if err := json.Unmarshal(data, &t); err != nil {
			return heat.BoxRecord{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
		}

		id := filepath.Base(path)
		id = id[:len(id)-len(".json")]
		s.pending = t.boxes(id, s.allowed)
	}

	rec := s.pending[0]
	s.pending = s.pending[1:]
	return rec, nil
}

// Ensure both sources implement heat.Source.
var (
	_ heat.Source = (*BulkSource)(nil)
	_ heat.Source = (*DirSource)(nil)
)
