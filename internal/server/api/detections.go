// Package api provides the HTTP handlers for the detection history
// resources.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mikoslaf/handsense/internal/store"
)

// DetectionHandler handles HTTP requests for stored detection results.
type DetectionHandler struct {
	store *store.Store
}

// NewDetectionHandler creates a new DetectionHandler with the given store.
func NewDetectionHandler(s *store.Store) *DetectionHandler {
	return &DetectionHandler{store: s}
}

// ServeHTTP routes collection and item requests.
// Expected paths: /api/detections or /api/detections/{id}.
func (h *DetectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/detections")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodDelete:
			h.purge(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type detectionResponse struct {
	ID                  string   `json:"id"`
	Gesture             string   `json:"gesture"`
	Confidence          float64  `json:"confidence"`
	DominantFingerCount int      `json:"dominant_finger_count"`
	IsDominantFist      bool     `json:"is_dominant_fist"`
	ActiveFingers       []string `json:"active_fingers"`
	SampleCount         int      `json:"sample_count"`
	StabilityScore      float64  `json:"stability_score"`
	CreatedAt           string   `json:"created_at"`
}

type listDetectionsResponse struct {
	Detections []detectionResponse `json:"detections"`
}

type purgeDetectionsResponse struct {
	Purged int64 `json:"purged"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Detection to a detectionResponse.
func toResponse(d *store.Detection) detectionResponse {
	fingers := d.ActiveFingers
	if fingers == nil {
		fingers = []string{}
	}
	return detectionResponse{
		ID:                  d.ID,
		Gesture:             d.Gesture,
		Confidence:          d.Confidence,
		DominantFingerCount: d.DominantFingerCount,
		IsDominantFist:      d.IsDominantFist,
		ActiveFingers:       fingers,
		SampleCount:         d.SampleCount,
		StabilityScore:      d.StabilityScore,
		CreatedAt:           d.CreatedAt.Format(time.RFC3339),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/detections. An optional "limit" query parameter
// bounds the number of returned rows, newest first.
func (h *DetectionHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	detections, err := h.store.Detections().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list detections")
		return
	}

	response := listDetectionsResponse{
		Detections: make([]detectionResponse, 0, len(detections)),
	}
	for _, d := range detections {
		response.Detections = append(response.Detections, toResponse(d))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/detections/{id}.
func (h *DetectionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	detection, err := h.store.Detections().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Detection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get detection")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(detection))
}

// delete handles DELETE /api/detections/{id}.
func (h *DetectionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Detections().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Detection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete detection")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// purge handles DELETE /api/detections with a required "before" RFC 3339
// timestamp and removes all older rows.
func (h *DetectionHandler) purge(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("before")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "Missing before timestamp")
		return
	}

	cutoff, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid before timestamp")
		return
	}

	purged, err := h.store.Detections().DeleteOlderThan(cutoff)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to purge detections")
		return
	}

	writeJSON(w, http.StatusOK, purgeDetectionsResponse{Purged: purged})
}
