package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mikoslaf/handsense/internal/gesture"
)

// newTestStore creates a new Store backed by a temp-file database.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "handsense-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(tmpDir)
	})

	dbPath := filepath.Join(tmpDir, "test.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestDetectionRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Detections()

	d := &Detection{
		ID:                  "det-1",
		Gesture:             gesture.GestureTwoFingers,
		Confidence:          0.85,
		DominantFingerCount: 2,
		IsDominantFist:      false,
		ActiveFingers:       []string{"index", "middle"},
		SampleCount:         10,
		StabilityScore:      0.85,
	}

	if err := repo.Create(d); err != nil {
		t.Fatalf("failed to create detection: %v", err)
	}
	if d.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}

	retrieved, err := repo.GetByID("det-1")
	if err != nil {
		t.Fatalf("failed to get detection: %v", err)
	}

	if retrieved.Gesture != d.Gesture {
		t.Errorf("Gesture mismatch: got %q, want %q", retrieved.Gesture, d.Gesture)
	}
	if retrieved.Confidence != d.Confidence {
		t.Errorf("Confidence mismatch: got %f, want %f", retrieved.Confidence, d.Confidence)
	}
	if retrieved.DominantFingerCount != 2 {
		t.Errorf("DominantFingerCount = %d, want 2", retrieved.DominantFingerCount)
	}
	if !reflect.DeepEqual(retrieved.ActiveFingers, d.ActiveFingers) {
		t.Errorf("ActiveFingers mismatch: got %v, want %v", retrieved.ActiveFingers, d.ActiveFingers)
	}
	if retrieved.SampleCount != 10 {
		t.Errorf("SampleCount = %d, want 10", retrieved.SampleCount)
	}
}

func TestDetectionRepository_CreateFromResult(t *testing.T) {
	s := newTestStore(t)
	repo := s.Detections()

	result := gesture.Result{
		Gesture:             gesture.GestureFist,
		Confidence:          1.0,
		DominantFingerCount: 0,
		IsDominantFist:      true,
		ActiveFingers:       []string{},
		SampleCount:         12,
		StabilityScore:      1.0,
	}

	d, err := repo.CreateFromResult(result)
	if err != nil {
		t.Fatalf("CreateFromResult() error = %v", err)
	}
	if d.ID == "" {
		t.Error("expected a generated ID")
	}

	retrieved, err := repo.GetByID(d.ID)
	if err != nil {
		t.Fatalf("failed to get detection: %v", err)
	}
	if retrieved.Gesture != gesture.GestureFist || !retrieved.IsDominantFist {
		t.Errorf("stored detection = %+v, want fist", retrieved)
	}
}

func TestDetectionRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Detections().GetByID("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDetectionRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Detections()

	for i, g := range []string{gesture.GestureFist, gesture.GestureOpenHand, gesture.GestureOneFinger} {
		d := &Detection{
			ID:          "det-" + string(rune('a'+i)),
			Gesture:     g,
			SampleCount: i + 1,
		}
		if err := repo.Create(d); err != nil {
			t.Fatalf("failed to create detection %d: %v", i, err)
		}
	}

	all, err := repo.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("listed %d detections, want 3", len(all))
	}

	limited, err := repo.List(2)
	if err != nil {
		t.Fatalf("List(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("listed %d detections, want 2", len(limited))
	}
}

func TestDetectionRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Detections()

	d := &Detection{ID: "det-1", Gesture: gesture.GestureNone}
	if err := repo.Create(d); err != nil {
		t.Fatalf("failed to create detection: %v", err)
	}

	if err := repo.Delete("det-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete("det-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleting twice should return ErrNotFound, got %v", err)
	}
}

func TestDetectionRepository_DeleteOlderThan(t *testing.T) {
	s := newTestStore(t)
	repo := s.Detections()

	if err := repo.Create(&Detection{ID: "old", Gesture: gesture.GestureNone}); err != nil {
		t.Fatalf("failed to create detection: %v", err)
	}

	purged, err := repo.DeleteOlderThan(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("purged %d rows, want 1", purged)
	}

	purged, err = repo.DeleteOlderThan(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error = %v", err)
	}
	if purged != 0 {
		t.Errorf("purged %d rows, want 0", purged)
	}
}

func TestSettingRepository_SetGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if err := repo.Set(SettingWindowDurationMs, "800"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, err := repo.Get(SettingWindowDurationMs)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if value != "800" {
		t.Errorf("value = %q, want 800", value)
	}

	// Overwrite
	if err := repo.Set(SettingWindowDurationMs, "1200"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if value, _ := repo.Get(SettingWindowDurationMs); value != "1200" {
		t.Errorf("value after overwrite = %q, want 1200", value)
	}
}

func TestSettingRepository_GetFloat(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if got := repo.GetFloat(SettingMinConfidenceRatio, 0.7); got != 0.7 {
		t.Errorf("missing key fallback = %f, want 0.7", got)
	}

	repo.Set(SettingMinConfidenceRatio, "0.9")
	if got := repo.GetFloat(SettingMinConfidenceRatio, 0.7); got != 0.9 {
		t.Errorf("GetFloat = %f, want 0.9", got)
	}

	repo.Set(SettingMinConfidenceRatio, "not-a-number")
	if got := repo.GetFloat(SettingMinConfidenceRatio, 0.7); got != 0.7 {
		t.Errorf("unparseable fallback = %f, want 0.7", got)
	}
}

func TestSettingRepository_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Settings().Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
