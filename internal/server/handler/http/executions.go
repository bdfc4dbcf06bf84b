// Copyright 2025 The Canopy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/canopy-run/canopy/api"
	"github.com/canopy-run/canopy/internal/server/projection"
)

// ExecutionsHandler serves the read-only executions listing backed by the
// journal projection.
type ExecutionsHandler struct {
	executions *projection.Executions
}

func NewExecutionsHandler(executions *projection.Executions) *ExecutionsHandler {
	return &ExecutionsHandler{executions: executions}
}

type executionListResponse struct {
	Executions []projection.ExecutionSummary `json:"executions"`
	Count      int                           `json:"count"`
}

// List returns all executions the daemon has observed, newest first.
func (h *ExecutionsHandler) List(w http.ResponseWriter, r *http.Request) {
	rows := h.executions.List()
	writeJSON(w, http.StatusOK, executionListResponse{
		Executions: rows,
		Count:      len(rows),
	})
}

// Get returns the summary of a single execution.
func (h *ExecutionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	row, ok := h.executions.Get(api.ExecutionID(id))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "execution not found",
			"id":    id,
		})
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
