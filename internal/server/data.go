package server

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mapboard/mapboard/pkg/mapstore"
)

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// handleGetData serves the whole persisted MapSet.
func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	set, err := s.store.Get(r.Context())
	if err != nil {
		s.log.Error("failed to read map set", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// handleSetData accepts a candidate MapSet, validates and persists it.
// The store publishes the update to every subscribed stream on success.
func (s *Server) handleSetData(w http.ResponseWriter, r *http.Request) {
	var candidate mapstore.MapSet
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: mapstore.ReasonInvalidData})
		return
	}

	if err := s.store.Set(r.Context(), candidate); err != nil {
		if verr, ok := mapstore.IsValidationError(err); ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Reason})
			return
		}
		s.log.Error("failed to write map set", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
