package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mikoslaf/handsense/internal/gesture"
)

// Detection is a stabilized gesture result persisted for history queries.
type Detection struct {
	ID                  string
	Gesture             string
	Confidence          float64
	DominantFingerCount int
	IsDominantFist      bool
	ActiveFingers       []string
	SampleCount         int
	StabilityScore      float64
	CreatedAt           time.Time
}

// DetectionRepository provides CRUD operations for detections.
type DetectionRepository struct {
	db *sql.DB
}

// Detections returns the detection repository for this store.
func (s *Store) Detections() *DetectionRepository {
	return &DetectionRepository{db: s.db}
}

// CreateFromResult persists a stabilized result under a fresh ID and
// returns the stored record.
func (r *DetectionRepository) CreateFromResult(res gesture.Result) (*Detection, error) {
	d := &Detection{
		ID:                  uuid.New().String(),
		Gesture:             res.Gesture,
		Confidence:          res.Confidence,
		DominantFingerCount: res.DominantFingerCount,
		IsDominantFist:      res.IsDominantFist,
		ActiveFingers:       res.ActiveFingers,
		SampleCount:         res.SampleCount,
		StabilityScore:      res.StabilityScore,
	}

	if err := r.Create(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Create inserts a new detection into the database.
func (r *DetectionRepository) Create(d *Detection) error {
	d.CreatedAt = time.Now()

	fingers := d.ActiveFingers
	if fingers == nil {
		fingers = []string{}
	}
	fingersJSON, err := json.Marshal(fingers)
	if err != nil {
		return fmt.Errorf("encode active fingers: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO detections (id, gesture, confidence, dominant_finger_count,
		 is_dominant_fist, active_fingers, sample_count, stability_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Gesture, d.Confidence, d.DominantFingerCount,
		d.IsDominantFist, string(fingersJSON), d.SampleCount, d.StabilityScore, d.CreatedAt,
	)
	return err
}

// GetByID retrieves a detection by its ID.
func (r *DetectionRepository) GetByID(id string) (*Detection, error) {
	row := r.db.QueryRow(
		`SELECT id, gesture, confidence, dominant_finger_count, is_dominant_fist,
		 active_fingers, sample_count, stability_score, created_at
		 FROM detections WHERE id = ?`,
		id,
	)

	d, err := scanDetection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// List retrieves the most recent detections, newest first. A non-positive
// limit returns everything.
func (r *DetectionRepository) List(limit int) ([]*Detection, error) {
	query := `SELECT id, gesture, confidence, dominant_finger_count, is_dominant_fist,
		 active_fingers, sample_count, stability_score, created_at
		 FROM detections ORDER BY created_at DESC`

	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = r.db.Query(query+" LIMIT ?", limit)
	} else {
		rows, err = r.db.Query(query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var detections []*Detection
	for rows.Next() {
		d, err := scanDetection(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return detections, nil
}

// Delete removes a detection from the database by its ID.
func (r *DetectionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM detections WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteOlderThan removes detections created before the cutoff and returns
// how many rows were purged.
func (r *DetectionRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM detections WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDetection(row scanner) (*Detection, error) {
	d := &Detection{}
	var fist int
	var fingers string

	err := row.Scan(&d.ID, &d.Gesture, &d.Confidence, &d.DominantFingerCount,
		&fist, &fingers, &d.SampleCount, &d.StabilityScore, &d.CreatedAt)
	if err != nil {
		return nil, err
	}

	d.IsDominantFist = fist != 0
	if err := json.Unmarshal([]byte(fingers), &d.ActiveFingers); err != nil {
		return nil, fmt.Errorf("decode active fingers: %w", err)
	}

	return d, nil
}
