// Package annotations decodes bounding-box annotation exports into streams
// of heat.BoxRecord values.
//
// The engine in pkg/heat never parses files itself; it consumes any producer
// of BoxRecords. This package supplies producers for the Label Studio
// rectangle-annotation export formats the poster corpus is annotated in:
//
//   - Bulk export: a single JSON file holding an array of tasks
//   - Per-task export: a directory of JSON files, one task each
//
// Label Studio rectangles carry x, y, width, height as percentages of the
// source image, so every decoded record uses a 100×100 canvas. Decoding is
// streaming: tasks are decoded one at a time off the underlying reader, so a
// large export never has to be resident in memory.
package annotations
