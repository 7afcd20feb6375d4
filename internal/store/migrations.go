package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Detections table - one row per stabilized gesture result
		`CREATE TABLE IF NOT EXISTS detections (
			id TEXT PRIMARY KEY,
			gesture TEXT NOT NULL,
			confidence REAL NOT NULL,
			dominant_finger_count INTEGER NOT NULL,
			is_dominant_fist INTEGER NOT NULL DEFAULT 0,
			active_fingers TEXT NOT NULL DEFAULT '[]',
			sample_count INTEGER NOT NULL,
			stability_score REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Index for history queries ordered by recency
		`CREATE INDEX IF NOT EXISTS idx_detections_created_at ON detections(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
