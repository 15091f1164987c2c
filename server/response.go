package server

import (
	"encoding/json"
	"net/http"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/go-spne"
)

type solveResponse struct {
	Success  bool           `json:"success"`
	Solution *spne.Solution `json:"solution"`
	Cached   bool           `json:"cached,omitempty"`
}

type treeResponse struct {
	Success bool           `json:"success"`
	Tree    *spne.Snapshot `json:"tree"`
}

type nodeResponse struct {
	Success bool              `json:"success"`
	Node    spne.SnapshotNode `json:"node"`
}

type keysResponse struct {
	Success bool     `json:"success"`
	Keys    []string `json:"keys"`
}

type deleteResponse struct {
	Success bool `json:"success"`
	Removed int  `json:"removed"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		glog.Warningf("Failed to write response: %v", err)
	}
}

// writeError reports structurally invalid input as a client error
// and anything else as a server fault.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case spne.IsClientError(err), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, spne.ErrNotFound):
		status = http.StatusNotFound
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		glog.Errorf("%s %s: %+v", r.Method, r.URL.Path, err)
		msg = "internal server error"
	} else {
		glog.V(1).Infof("%s %s: %v", r.Method, r.URL.Path, err)
	}

	writeJSON(w, status, errorResponse{Error: msg})
}
