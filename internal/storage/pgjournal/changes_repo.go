package pgjournal

import (
	"context"
	"time"

	"github.com/BearBump/PickupDesk/internal/broker/messages"
	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// RecordChange stores msg and folds it into the pickup snapshot. Redelivered
// messages are recognised by (pickup_id, kind, requested_at) and ignored; the
// returned bool reports whether msg was new.
func (s *Storage) RecordChange(ctx context.Context, msg messages.PickupChanged) (bool, error) {
	kind, err := models.ParseChangeKind(msg.Kind)
	if err != nil {
		return false, errors.Wrap(err, "record change")
	}

	var status *string
	carrierKnown := false
	switch kind {
	case models.ChangeStatus:
		st := msg.Status
		status = &st
	case models.ChangeCarrier:
		carrierKnown = true
	}
	requestedAt := msg.RequestedAt.UTC()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
INSERT INTO pickup_changes (pickup_id, kind, status, carrier, requested_at, recorded_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (pickup_id, kind, requested_at) DO NOTHING
`, msg.PickupID, string(kind), status, msg.Carrier, requestedAt)
	if err != nil {
		return false, errors.Wrap(err, "insert pickup change")
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	// Older events arriving late never overwrite a newer snapshot.
	_, err = tx.Exec(ctx, `
INSERT INTO pickup_snapshots (pickup_id, status, carrier, carrier_known, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (pickup_id) DO UPDATE SET
  status = COALESCE(EXCLUDED.status, pickup_snapshots.status),
  carrier = CASE WHEN EXCLUDED.carrier_known THEN EXCLUDED.carrier ELSE pickup_snapshots.carrier END,
  carrier_known = pickup_snapshots.carrier_known OR EXCLUDED.carrier_known,
  updated_at = EXCLUDED.updated_at
WHERE pickup_snapshots.updated_at <= EXCLUDED.updated_at
`, msg.PickupID, status, msg.Carrier, carrierKnown, requestedAt)
	if err != nil {
		return false, errors.Wrap(err, "upsert pickup snapshot")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, errors.Wrap(err, "commit tx")
	}
	return true, nil
}

func (s *Storage) ListChanges(ctx context.Context, pickupID int64, limit, offset int) ([]*models.ChangeRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(ctx, `
SELECT id, pickup_id, kind, status, carrier, requested_at, recorded_at
FROM pickup_changes
WHERE pickup_id = $1
ORDER BY requested_at DESC, id DESC
LIMIT $2 OFFSET $3
`, pickupID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select changes")
	}
	defer rows.Close()

	var out []*models.ChangeRecord
	for rows.Next() {
		var r models.ChangeRecord
		var kind string
		if err := rows.Scan(&r.ID, &r.PickupID, &kind, &r.Status, &r.Carrier, &r.RequestedAt, &r.RecordedAt); err != nil {
			return nil, errors.Wrap(err, "scan change")
		}
		r.Kind = models.ChangeKind(kind)
		out = append(out, &r)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

var ErrNoSnapshot = errors.New("no snapshot for pickup")

func (s *Storage) GetSnapshot(ctx context.Context, pickupID int64) (*models.PickupSnapshot, error) {
	var snap models.PickupSnapshot
	var updatedAt time.Time
	err := s.db.QueryRow(ctx, `
SELECT pickup_id, status, carrier, carrier_known, updated_at
FROM pickup_snapshots
WHERE pickup_id = $1
`, pickupID).Scan(&snap.PickupID, &snap.Status, &snap.Carrier, &snap.CarrierKnown, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, errors.Wrap(err, "select snapshot")
	}
	snap.UpdatedAt = updatedAt.UTC()
	return &snap, nil
}
