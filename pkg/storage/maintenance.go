package storage

import (
	"database/sql"
	"fmt"
)

// Stats summarizes the contents of one offer database.
type Stats struct {
	TotalOffers   int    `json:"total_offers"`
	HiddenOffers  int    `json:"hidden_offers"`
	CurrentOffers int    `json:"current_offers"`
	OldestPublish string `json:"oldest_publish,omitempty"`
	NewestPublish string `json:"newest_publish,omitempty"`
}

// GetStats computes aggregate counts over the offers table. now is the
// reference instant for the "current" count, pre-encoded with FormatTime.
func (s *Store) GetStats(now string) (*Stats, error) {
	stats := &Stats{}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM offers").Scan(&stats.TotalOffers); err != nil {
		return nil, fmt.Errorf("counting offers: %w", err)
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM offers WHERE is_hidden = 1").Scan(&stats.HiddenOffers); err != nil {
		return nil, fmt.Errorf("counting hidden offers: %w", err)
	}
	if err := s.db.QueryRow(`
		SELECT COUNT(*) FROM offers
		WHERE is_hidden = 0 AND publish_date <= ? AND publish_end_date > ?
	`, now, now).Scan(&stats.CurrentOffers); err != nil {
		return nil, fmt.Errorf("counting current offers: %w", err)
	}

	var oldest, newest sql.NullString
	err := s.db.QueryRow("SELECT MIN(publish_date), MAX(publish_date) FROM offers").Scan(&oldest, &newest)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("getting publish date range: %w", err)
	}
	stats.OldestPublish = oldest.String
	stats.NewestPublish = newest.String

	return stats, nil
}

// Optimize runs SQLite's query-planner optimization pass.
func (s *Store) Optimize() error {
	_, err := s.db.Exec("PRAGMA optimize")
	return err
}

// Analyze refreshes SQLite's table statistics.
func (s *Store) Analyze() error {
	_, err := s.db.Exec("ANALYZE")
	return err
}

// Vacuum rebuilds the database file, reclaiming free space.
func (s *Store) Vacuum() error {
	_, err := s.db.Exec("VACUUM")
	return err
}

// WALCheckpoint truncates the write-ahead log.
func (s *Store) WALCheckpoint() error {
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// IntegrityCheck runs SQLite's integrity check and returns an error if the
// database reports corruption.
func (s *Store) IntegrityCheck() error {
	var result string
	if err := s.db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("running integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// FTSIntegrityCheck verifies the internal consistency of the full-text index.
func (s *Store) FTSIntegrityCheck() error {
	if _, err := s.db.Exec("INSERT INTO offers_fts(offers_fts) VALUES('integrity-check')"); err != nil {
		return fmt.Errorf("FTS integrity check failed: %w", err)
	}
	return nil
}

// FTSRebuild drops and repopulates the full-text index from the offers table.
// Used to recover from index corruption or after changing tokenizer settings.
func (s *Store) FTSRebuild() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil {
				logger.Warnf("failed to rollback transaction: %v", err)
			}
		}
	}()

	if _, err := tx.Exec("DELETE FROM offers_fts"); err != nil {
		return fmt.Errorf("clearing FTS index: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO offers_fts (rowid, title, owner_name, job_type, fields, technologies, location)
		SELECT rowid, title, owner_name, job_type,
			(SELECT COALESCE(group_concat(value, ' '), '') FROM json_each(offers.fields)),
			(SELECT COALESCE(group_concat(value, ' '), '') FROM json_each(offers.technologies)),
			location
		FROM offers
	`); err != nil {
		return fmt.Errorf("repopulating FTS index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
