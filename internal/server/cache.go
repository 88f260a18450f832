package server

import (
	"encoding/json"
	"net/http"

	"github.com/posterlab/heatgrid/pkg/cache"
	"github.com/posterlab/heatgrid/pkg/heat"
	"github.com/posterlab/heatgrid/pkg/observability"
)

// Response caching is best-effort: a cache failure is logged and the request
// proceeds as a miss. The set run ID is part of every key, so entries can
// never be served against a different set than they were computed from.

func (s *Server) scoreKey(body []byte) string {
	return s.keyer.ScoreKey(s.set.ID, cache.Hash(body), s.scoreKeyOpts)
}

func (s *Server) cachedScore(r *http.Request, body []byte) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, hit, err := s.cache.Get(r.Context(), s.scoreKey(body))
	if err != nil {
		s.logger.Warn("cache get failed", "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(r.Context(), "score")
		return nil, false
	}
	observability.Cache().OnCacheHit(r.Context(), "score")
	return data, true
}

func (s *Server) storeScore(r *http.Request, body []byte, resp scoreResponse) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := s.cache.Set(r.Context(), s.scoreKey(body), data, s.ttl); err != nil {
		s.logger.Warn("cache set failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(r.Context(), "score", len(data))
}

func (s *Server) cachedRegions(r *http.Request, category heat.Category, k int) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	key := s.keyer.RegionsKey(s.set.ID, string(category), k)
	data, hit, err := s.cache.Get(r.Context(), key)
	if err != nil {
		s.logger.Warn("cache get failed", "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(r.Context(), "regions")
		return nil, false
	}
	observability.Cache().OnCacheHit(r.Context(), "regions")
	return data, true
}

func (s *Server) storeRegions(r *http.Request, category heat.Category, k int, resp any) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	key := s.keyer.RegionsKey(s.set.ID, string(category), k)
	if err := s.cache.Set(r.Context(), key, data, s.ttl); err != nil {
		s.logger.Warn("cache set failed", "error", err)
		return
	}
	observability.Cache().OnCacheSet(r.Context(), "regions", len(data))
}
