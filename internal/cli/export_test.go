package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/posterlab/heatgrid/pkg/config"
	"github.com/posterlab/heatgrid/pkg/heat"
)

func TestHeatTag(t *testing.T) {
	tests := []struct {
		category heat.Category
		want     string
	}{
		{"Title", "title_heat"},
		{"Host/organization", "host_organization_heat"},
		{"Call-To-Action/Purpose", "call-to-action_purpose_heat"},
		{"Text descriptions/details", "text_descriptions_details_heat"},
	}

	for _, tt := range tests {
		if got := heatTag(tt.category); got != tt.want {
			t.Errorf("heatTag(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestWritePromptRows(t *testing.T) {
	cfg := config.Default()
	cfg.Categories = []string{"Title", "Time"}
	cfg.Grid.Rows = 2
	cfg.Grid.Cols = 2
	cfg.Grid.Sigma = 0

	// Two layouts: the first with a Title box over the left half, the
	// second with a Time box over the bottom half.
	records := []heat.BoxRecord{
		{Category: "Title", LayoutID: "task-1", X0: 0, Y0: 0, X1: 50, Y1: 100, CanvasW: 100, CanvasH: 100},
		{Category: "Time", LayoutID: "task-2", X0: 0, Y0: 50, X1: 100, Y1: 100, CanvasW: 100, CanvasH: 100},
	}

	var buf bytes.Buffer
	count, err := writePromptRows(&buf, heat.NewSliceSource(records), cfg)
	if err != nil {
		t.Fatalf("writePromptRows error: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	scanner := bufio.NewScanner(&buf)
	var rows []promptRow
	for scanner.Scan() {
		var row promptRow
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			t.Fatalf("decode row: %v", err)
		}
		rows = append(rows, row)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	for i, row := range rows {
		if len(row.Messages) != 3 {
			t.Fatalf("row %d: messages = %d, want 3", i, len(row.Messages))
		}
		user := row.Messages[1].Content
		lines := strings.Split(user, "\n")
		// Frame line plus one heat line per declared category.
		if len(lines) != 3 {
			t.Fatalf("row %d: lines = %d, want 3:\n%s", i, len(lines), user)
		}
		if lines[0] != "FRAME_PCT 100 100" {
			t.Errorf("row %d: frame line = %q", i, lines[0])
		}
		if !strings.HasPrefix(lines[1], "title_heat ") {
			t.Errorf("row %d: line 1 = %q, want title_heat prefix", i, lines[1])
		}
		if !strings.HasPrefix(lines[2], "time_heat ") {
			t.Errorf("row %d: line 2 = %q, want time_heat prefix", i, lines[2])
		}
		// 2x2 grid: four values per heat line.
		if fields := strings.Fields(lines[1]); len(fields) != 5 {
			t.Errorf("row %d: title fields = %d, want 5", i, len(fields))
		}
	}

	// First layout: Title covers the left column, normalizing both left
	// cells to 1.0; Time has no boxes and stays zero.
	if got := rows[0].Messages[1].Content; !strings.Contains(got, "title_heat 1.0 0.0 1.0 0.0") {
		t.Errorf("first layout title line unexpected:\n%s", got)
	}
	if got := rows[0].Messages[1].Content; !strings.Contains(got, "time_heat 0.0 0.0 0.0 0.0") {
		t.Errorf("first layout time line unexpected:\n%s", got)
	}
}
