package pgjournal

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS pickup_changes (
  id BIGSERIAL PRIMARY KEY,
  pickup_id BIGINT NOT NULL,
  kind TEXT NOT NULL,
  status TEXT NULL,
  carrier TEXT NULL,
  requested_at TIMESTAMPTZ NOT NULL,
  recorded_at TIMESTAMPTZ NOT NULL,
  UNIQUE (pickup_id, kind, requested_at)
)`,
		`CREATE INDEX IF NOT EXISTS idx_pickup_changes_pickup_id_requested_at ON pickup_changes(pickup_id, requested_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS pickup_snapshots (
  pickup_id BIGINT PRIMARY KEY,
  status TEXT NULL,
  carrier TEXT NULL,
  carrier_known BOOLEAN NOT NULL DEFAULT FALSE,
  updated_at TIMESTAMPTZ NOT NULL
)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
