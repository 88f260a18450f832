// Package server implements the heatgrid HTTP prediction service.
//
// The service answers layout-scoring and placement queries against one
// finalized heatmap set loaded at startup. The set is immutable, so every
// handler shares it read-only without locking; re-aggregation means a new
// process (or a new deployment) with a new set.
//
// # Endpoints
//
//   - POST /v1/score                          — score a candidate layout
//   - GET  /v1/heatmaps                       — set metadata
//   - GET  /v1/heatmaps/{category}            — one category's grid
//   - GET  /v1/heatmaps/{category}/regions    — top-k placement cells
//   - GET  /healthz                           — liveness probe
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/posterlab/heatgrid/pkg/cache"
	"github.com/posterlab/heatgrid/pkg/heat"
)

// Options configures the prediction service.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// ScoreOptions configure the layout scorer built over the set.
	ScoreOptions heat.ScoreOptions

	// Cache, when non-nil, stores score and regions responses. Keyer derives
	// the keys; a nil Keyer selects the default. TTL bounds entry lifetime,
	// zero means no expiration.
	Cache cache.Cache
	Keyer cache.Keyer
	TTL   time.Duration

	// Logger receives request logs. Nil selects log.Default().
	Logger *log.Logger
}

// Server is the prediction service: one finalized set, one scorer, and the
// HTTP surface over them.
type Server struct {
	set          *heat.Set
	scorer       *heat.Scorer
	cache        cache.Cache
	keyer        cache.Keyer
	scoreKeyOpts cache.ScoreKeyOpts
	ttl          time.Duration
	logger       *log.Logger
	addr         string
}

// New creates a prediction service over a finalized set. The set's shape is
// validated (and pinned against opts.ScoreOptions.Rows/Cols when set) before
// any request is served.
func New(set *heat.Set, opts Options) (*Server, error) {
	scorer, err := heat.NewScorer(set, opts.ScoreOptions)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	keyer := opts.Keyer
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}

	keyOpts := cache.ScoreKeyOpts{Combination: string(opts.ScoreOptions.Combination)}
	if len(opts.ScoreOptions.Weights) > 0 {
		keyOpts.Weights = make(map[string]float64, len(opts.ScoreOptions.Weights))
		for c, w := range opts.ScoreOptions.Weights {
			keyOpts.Weights[string(c)] = w
		}
	}

	return &Server{
		set:          set,
		scorer:       scorer,
		cache:        opts.Cache,
		keyer:        keyer,
		scoreKeyOpts: keyOpts,
		ttl:          opts.TTL,
		logger:       logger,
		addr:         addr,
	}, nil
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/score", s.handleScore)
		r.Get("/heatmaps", s.handleHeatmaps)
		r.Get("/heatmaps/{category}", s.handleHeatmap)
		r.Get("/heatmaps/{category}/regions", s.handleRegions)
	})
	return r
}

// Run serves requests until ctx is canceled, then shuts down gracefully,
// draining in-flight requests for up to 10 seconds.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("prediction service listening", "addr", s.addr, "set", s.set.ID)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
