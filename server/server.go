// Package server exposes the spne solver and a store of editable game
// trees over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/go-spne"
)

var errBadRequest = errors.New("bad request")

// SolutionCache caches solutions by snapshot digest.
type SolutionCache interface {
	Get(ctx context.Context, digest string) (*spne.Solution, bool, error)
	Set(ctx context.Context, digest string, sol *spne.Solution) error
}

type Params struct {
	Solver       spne.Params
	MaxBodyBytes int64 // Zero means unlimited.
}

// Server handles solve requests and edits to stored trees.
type Server struct {
	params Params
	solver *spne.Solver
	store  spne.SnapshotStore
	cache  SolutionCache

	// Serializes every load-mutate-save and load-solve sequence on
	// stored trees.
	mu sync.Mutex
}

// New returns a Server. The cache may be nil.
func New(params Params, store spne.SnapshotStore, cache SolutionCache) *Server {
	return &Server{
		params: params,
		solver: spne.NewSolver(params.Solver),
		store:  store,
		cache:  cache,
	}
}

// Router returns the HTTP handler for all endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)

	r.Post("/api/solve", s.handleSolve)
	r.Route("/api/trees", func(r chi.Router) {
		r.Get("/", s.handleListTrees)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetTree)
			r.Put("/", s.handlePutTree)
			r.Delete("/", s.handleDeleteTree)
			r.Post("/solve", s.handleSolveTree)
			r.Put("/players", s.handleSetPlayers)
			r.Post("/nodes", s.handleAddNode)
			r.Patch("/nodes/{id}", s.handleUpdateNode)
			r.Delete("/nodes/{id}", s.handleDeleteNode)
		})
	})

	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		glog.V(1).Infof("[%s] %s %s -> %d (%d bytes) in %v",
			middleware.GetReqID(r.Context()), r.Method, r.URL.Path,
			ww.Status(), ww.BytesWritten(), time.Since(start))
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	var body io.Reader = r.Body
	if s.params.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, s.params.MaxBodyBytes)
	}

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return errors.Wrapf(errBadRequest, "decoding request: %v", err)
	}

	return nil
}

func (s *Server) decodeSnapshot(w http.ResponseWriter, r *http.Request) (*spne.Snapshot, error) {
	var snap spne.Snapshot
	if err := s.decode(w, r, &snap); err != nil {
		return nil, errors.Wrap(spne.ErrDeserialization, err.Error())
	}

	if max := s.params.Solver.MaxNodes; max > 0 && len(snap.Nodes) > max {
		return nil, errors.Wrapf(spne.ErrLimitExceeded, "%d nodes, limit is %d", len(snap.Nodes), max)
	}

	return &snap, nil
}

// handleSolve solves a tree sent in the request body.
func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	snap, err := s.decodeSnapshot(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	digest, err := snap.Digest()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if sol, ok := s.cached(r.Context(), digest); ok {
		writeJSON(w, http.StatusOK, solveResponse{Success: true, Solution: sol, Cached: true})
		return
	}

	t, err := spne.Restore(snap)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sol, err := s.solver.Solve(t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.remember(r.Context(), digest, sol)
	writeJSON(w, http.StatusOK, solveResponse{Success: true, Solution: sol})
}

func (s *Server) cached(ctx context.Context, digest string) (*spne.Solution, bool) {
	if s.cache == nil {
		return nil, false
	}

	sol, ok, err := s.cache.Get(ctx, digest)
	if err != nil {
		glog.Warningf("Solution cache lookup failed: %v", err)
		return nil, false
	}

	return sol, ok
}

func (s *Server) remember(ctx context.Context, digest string, sol *spne.Solution) {
	if s.cache == nil || sol == nil {
		return
	}

	if err := s.cache.Set(ctx, digest, sol); err != nil {
		glog.Warningf("Failed to cache solution %s: %v", digest, err)
	}
}
