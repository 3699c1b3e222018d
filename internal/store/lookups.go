package store

import (
	"database/sql"
	"time"

	"github.com/lox/weatherwidget/internal/models"
)

// StartLookup creates a lookup record and returns it.
func (s *Store) StartLookup(session string, seq int64, kind, query string) (*models.Lookup, error) {
	l := &models.Lookup{
		Session:   session,
		Seq:       seq,
		Kind:      kind,
		Query:     query,
		StartedAt: time.Now().UTC(),
	}

	result, err := s.db.Exec(`
		INSERT INTO lookups (session, seq, kind, query, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, l.Session, l.Seq, l.Kind, l.Query, l.StartedAt)
	if err != nil {
		return nil, err
	}

	l.ID, err = result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return l, nil
}

// CompleteLookup stores the outcome of a lookup.
func (s *Store) CompleteLookup(l *models.Lookup) error {
	if l == nil {
		return nil
	}

	l.FinishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	_, err := s.db.Exec(`
		UPDATE lookups SET
			finished_at = ?,
			http_status = ?,
			outcome = ?,
			condition = ?,
			error_message = ?
		WHERE id = ?
	`, l.FinishedAt, l.HTTPStatus, l.Outcome, l.Condition, l.ErrorMessage, l.ID)
	return err
}

// RecentLookups returns the most recent lookups, newest first.
func (s *Store) RecentLookups(limit int) ([]models.Lookup, error) {
	rows, err := s.db.Query(`
		SELECT id, session, seq, kind, query, started_at, finished_at,
		       http_status, COALESCE(outcome, ''), condition, error_message
		FROM lookups
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.Lookup
	for rows.Next() {
		var l models.Lookup
		if err := rows.Scan(&l.ID, &l.Session, &l.Seq, &l.Kind, &l.Query, &l.StartedAt,
			&l.FinishedAt, &l.HTTPStatus, &l.Outcome, &l.Condition, &l.ErrorMessage); err != nil {
			return nil, err
		}
		results = append(results, l)
	}
	return results, rows.Err()
}

// LookupSummary is the number of lookups per outcome for one day.
type LookupSummary struct {
	Date    string `json:"date"`
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

// GetLookupSummary returns per-day outcome counts for the last N days.
func (s *Store) GetLookupSummary(days int) ([]LookupSummary, error) {
	rows, err := s.db.Query(`
		SELECT
			DATE(SUBSTR(started_at, 1, 19)) as date,
			COALESCE(outcome, 'pending') as outcome,
			COUNT(*) as total
		FROM lookups
		WHERE SUBSTR(started_at, 1, 19) > datetime('now', '-' || ? || ' days')
		GROUP BY date, outcome
		ORDER BY date DESC, outcome
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []LookupSummary
	for rows.Next() {
		var h LookupSummary
		if err := rows.Scan(&h.Date, &h.Outcome, &h.Count); err != nil {
			return nil, err
		}
		results = append(results, h)
	}
	return results, rows.Err()
}
