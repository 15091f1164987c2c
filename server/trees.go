package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"github.com/timpalpant/go-spne"
)

type addNodeRequest struct {
	Type   spne.NodeKind `json:"type"`
	Parent int           `json:"parent"`
	Action string        `json:"action"`
}

type updateNodeRequest struct {
	Action   *string   `json:"action"`
	Player   *int      `json:"player"`
	Strategy *string   `json:"strategy"`
	Payoffs  []float64 `json:"payoffs"`
	X        *float64  `json:"x"`
	Y        *float64  `json:"y"`
	Radius   *float64  `json:"radius"`
}

type playersRequest struct {
	Count *int     `json:"count"`
	Names []string `json:"names"`
}

// mutate applies fn to the named tree and saves the result. Tree
// mutations either apply fully or fail, so nothing is saved on error.
func (s *Server) mutate(name string, fn func(t *spne.Tree) error) (*spne.Tree, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Get(name)
	if err != nil {
		return nil, err
	}

	if err := fn(t); err != nil {
		return nil, err
	}

	if err := s.store.Put(name, t); err != nil {
		return nil, err
	}

	return t, nil
}

func nodeID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, errors.Wrapf(errBadRequest, "invalid node id %q", chi.URLParam(r, "id"))
	}

	return id, nil
}

func snapshotNode(t *spne.Tree, id int) spne.SnapshotNode {
	for _, sn := range t.Snapshot().Nodes {
		if sn.ID == id {
			return sn
		}
	}

	return spne.SnapshotNode{}
}

func (s *Server) handleListTrees(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	keys, err := s.store.Keys()
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if keys == nil {
		keys = []string{}
	}

	writeJSON(w, http.StatusOK, keysResponse{Success: true, Keys: keys})
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	t, err := s.store.Get(chi.URLParam(r, "name"))
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, treeResponse{Success: true, Tree: t.Snapshot()})
}

func (s *Server) handlePutTree(w http.ResponseWriter, r *http.Request) {
	snap, err := s.decodeSnapshot(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := spne.Restore(snap)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	err = s.store.Put(chi.URLParam(r, "name"), t)
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, treeResponse{Success: true, Tree: t.Snapshot()})
}

func (s *Server) handleDeleteTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	err := s.store.Delete(chi.URLParam(r, "name"))
	s.mu.Unlock()
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{Success: true})
}

func (s *Server) handleSolveTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Get(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	sol, err := s.solver.Solve(t)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, solveResponse{Success: true, Solution: sol})
}

func (s *Server) handleSetPlayers(w http.ResponseWriter, r *http.Request) {
	var req playersRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.mutate(chi.URLParam(r, "name"), func(t *spne.Tree) error {
		if req.Count != nil {
			if err := t.SetPlayerCount(*req.Count); err != nil {
				return err
			}
		}

		if req.Names != nil {
			t.SetPlayerNames(req.Names)
		}

		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, treeResponse{Success: true, Tree: t.Snapshot()})
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var id int
	t, err := s.mutate(chi.URLParam(r, "name"), func(t *spne.Tree) error {
		if max := s.params.Solver.MaxNodes; max > 0 && t.Len() >= max {
			return errors.Wrapf(spne.ErrLimitExceeded, "tree already has %d nodes", t.Len())
		}

		node, err := t.AddNode(req.Type, req.Parent, req.Action)
		if err != nil {
			return err
		}

		id = node.ID
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, nodeResponse{Success: true, Node: snapshotNode(t, id)})
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateNodeRequest
	if err := s.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.mutate(chi.URLParam(r, "name"), func(t *spne.Tree) error {
		ok := t.UpdateNode(id, spne.NodeUpdate{
			Action:   req.Action,
			Player:   req.Player,
			Strategy: req.Strategy,
			Payoffs:  req.Payoffs,
			X:        req.X,
			Y:        req.Y,
			Radius:   req.Radius,
		})
		if !ok {
			return errors.Wrapf(spne.ErrNotFound, "node %d", id)
		}

		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, nodeResponse{Success: true, Node: snapshotNode(t, id)})
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id, err := nodeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var removed int
	_, err = s.mutate(chi.URLParam(r, "name"), func(t *spne.Tree) error {
		removed = t.DeleteNode(id)
		if removed == 0 {
			return errors.Wrapf(spne.ErrNotFound, "node %d", id)
		}

		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{Success: true, Removed: removed})
}
