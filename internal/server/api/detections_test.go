package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikoslaf/handsense/internal/gesture"
	"github.com/mikoslaf/handsense/internal/store"
)

// newTestHandler creates a DetectionHandler backed by a temp database.
func newTestHandler(t *testing.T) (*DetectionHandler, *store.Store) {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return NewDetectionHandler(s), s
}

func seedDetection(t *testing.T, s *store.Store, id, gestureName string) {
	t.Helper()

	d := &store.Detection{
		ID:             id,
		Gesture:        gestureName,
		Confidence:     0.9,
		ActiveFingers:  []string{"index"},
		SampleCount:    8,
		StabilityScore: 0.9,
	}
	if err := s.Detections().Create(d); err != nil {
		t.Fatalf("failed to seed detection: %v", err)
	}
}

func TestDetectionHandler_ListEmpty(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/detections", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp listDetectionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Detections) != 0 {
		t.Errorf("listed %d detections, want 0", len(resp.Detections))
	}
}

func TestDetectionHandler_ListWithLimit(t *testing.T) {
	handler, s := newTestHandler(t)

	seedDetection(t, s, "det-1", gesture.GestureFist)
	seedDetection(t, s, "det-2", gesture.GestureOpenHand)
	seedDetection(t, s, "det-3", gesture.GestureOneFinger)

	req := httptest.NewRequest(http.MethodGet, "/api/detections?limit=2", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp listDetectionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Detections) != 2 {
		t.Errorf("listed %d detections, want 2", len(resp.Detections))
	}
}

func TestDetectionHandler_ListInvalidLimit(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/detections?limit=abc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDetectionHandler_Get(t *testing.T) {
	handler, s := newTestHandler(t)
	seedDetection(t, s, "det-1", gesture.GestureTwoFingers)

	req := httptest.NewRequest(http.MethodGet, "/api/detections/det-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp detectionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Gesture != gesture.GestureTwoFingers {
		t.Errorf("gesture = %q, want %q", resp.Gesture, gesture.GestureTwoFingers)
	}
	if _, err := time.Parse(time.RFC3339, resp.CreatedAt); err != nil {
		t.Errorf("created_at %q is not RFC 3339: %v", resp.CreatedAt, err)
	}
}

func TestDetectionHandler_GetNotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/detections/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDetectionHandler_Delete(t *testing.T) {
	handler, s := newTestHandler(t)
	seedDetection(t, s, "det-1", gesture.GestureFist)

	req := httptest.NewRequest(http.MethodDelete, "/api/detections/det-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	// Deleting again reports not found.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/detections/det-1", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestDetectionHandler_Purge(t *testing.T) {
	handler, s := newTestHandler(t)
	seedDetection(t, s, "det-1", gesture.GestureFist)

	cutoff := time.Now().Add(time.Hour).Format(time.RFC3339)
	req := httptest.NewRequest(http.MethodDelete, "/api/detections?before="+cutoff, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp purgeDetectionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Purged != 1 {
		t.Errorf("purged = %d, want 1", resp.Purged)
	}
}

func TestDetectionHandler_PurgeMissingCutoff(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/detections", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDetectionHandler_MethodNotAllowed(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/detections", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
