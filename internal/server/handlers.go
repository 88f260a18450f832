package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/posterlab/heatgrid/pkg/errors"
	"github.com/posterlab/heatgrid/pkg/heat"
	"github.com/posterlab/heatgrid/pkg/observability"
)

// scoreRequest is the POST /v1/score payload. Elements carry coordinates in
// their own canvas units (percent or pixel, the canvas dims disambiguate).
type scoreRequest struct {
	Elements []heat.BoxRecord `json:"elements"`
}

// scoreResponse wraps a layout score with the set it was computed against.
type scoreResponse struct {
	SetID string `json:"set_id"`
	heat.LayoutScore
}

// setMetadata is the GET /v1/heatmaps payload: everything about the set
// except the grid cells themselves.
type setMetadata struct {
	ID           string          `json:"id"`
	Rows         int             `json:"rows"`
	Cols         int             `json:"cols"`
	Categories   []heat.Category `json:"categories"`
	SampleCount  int             `json:"sample_count"`
	LayoutCount  int             `json:"layout_count"`
	SkippedCount int             `json:"skipped_count,omitempty"`
	Sigma        float64         `json:"sigma,omitempty"`
	BuiltAt      time.Time       `json:"built_at"`
}

// errorBody is the uniform error response shape.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	var body errorBody
	body.Error.Code = string(code)
	body.Error.Message = apperrors.UserMessage(err)
	writeJSON(w, apperrors.HTTPStatus(code), body)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "set_id": s.set.ID})
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "read request body: %v", err))
		return
	}

	var req scoreRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "decode request: %v", err))
		return
	}

	// The raw body hashes into the cache key, so identical queries share an
	// entry and any change to elements or options misses.
	if data, ok := s.cachedScore(r, body); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	start := time.Now()
	observability.Score().OnScoreStart(r.Context(), len(req.Elements))
	result, err := s.scorer.Score(req.Elements)
	observability.Score().OnScoreComplete(r.Context(), len(req.Elements), result.Overall, time.Since(start), err)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := scoreResponse{SetID: s.set.ID, LayoutScore: result}
	s.storeScore(r, body, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHeatmaps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, setMetadata{
		ID:           s.set.ID,
		Rows:         s.set.Rows,
		Cols:         s.set.Cols,
		Categories:   s.set.Categories,
		SampleCount:  s.set.SampleCount,
		LayoutCount:  s.set.LayoutCount,
		SkippedCount: s.set.SkippedCount,
		Sigma:        s.set.Sigma,
		BuiltAt:      s.set.BuiltAt,
	})
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	category, err := pathCategory(r)
	if err != nil {
		writeError(w, err)
		return
	}

	grid, ok := s.set.Grid(category)
	if !ok {
		writeError(w, apperrors.New(apperrors.ErrCodeUnknownCategory, "category %q not in set", category))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"set_id":   s.set.ID,
		"category": category,
		"grid":     grid,
	})
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	category, err := pathCategory(r)
	if err != nil {
		writeError(w, err)
		return
	}

	k := 5
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "k must be a positive integer, got %q", raw))
			return
		}
		k = parsed
	}

	if data, ok := s.cachedRegions(r, category, k); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	regions, err := s.set.TopRegions(category, k)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{
		"set_id":   s.set.ID,
		"category": category,
		"regions":  regions,
	}
	s.storeRegions(r, category, k, resp)
	writeJSON(w, http.StatusOK, resp)
}

// pathCategory extracts and validates the {category} path parameter.
// Chi keeps path parameters URL-encoded, so slashes in category names
// ("Host/organization") arrive as %2F and decode here.
func pathCategory(r *http.Request) (heat.Category, error) {
	raw := chi.URLParam(r, "category")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	if err := apperrors.ValidateCategoryName(raw); err != nil {
		return "", err
	}
	return heat.Category(raw), nil
}
