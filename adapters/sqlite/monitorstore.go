package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rankgate/rankgate/domain/rank"
	"github.com/rankgate/rankgate/ports"
)

// MonitorStore implements ports.MonitorStore using SQLite.
type MonitorStore struct {
	db *DB
}

// NewMonitorStore creates a new SQLite monitor store.
func NewMonitorStore(db *DB) *MonitorStore {
	return &MonitorStore{db: db}
}

// Put stores a monitor. Keyword and location lists are stored as JSON.
func (s *MonitorStore) Put(ctx context.Context, m rank.Monitor) error {
	keywords, err := json.Marshal(m.Keywords)
	if err != nil {
		return err
	}
	locations, err := json.Marshal(m.Locations)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO monitors (id, domain, keywords, locations, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.Domain, string(keywords), string(locations), m.Status, m.CreatedAt.UTC())
	return err
}

// Get retrieves a monitor by ID.
func (s *MonitorStore) Get(ctx context.Context, id string) (rank.Monitor, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, domain, keywords, locations, status, created_at
		FROM monitors
		WHERE id = ?
	`, id)

	var m rank.Monitor
	var keywords, locations string
	err := row.Scan(&m.ID, &m.Domain, &keywords, &locations, &m.Status, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rank.Monitor{}, ports.ErrNotFound
	}
	if err != nil {
		return rank.Monitor{}, err
	}

	if err := json.Unmarshal([]byte(keywords), &m.Keywords); err != nil {
		return rank.Monitor{}, err
	}
	if err := json.Unmarshal([]byte(locations), &m.Locations); err != nil {
		return rank.Monitor{}, err
	}
	return m, nil
}

// Ensure interface compliance.
var _ ports.MonitorStore = (*MonitorStore)(nil)
