package pickups

import (
	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/pkg/errors"
)

var ErrUnknownKind = errors.New("unknown change kind")

// Precondition is checked against the stored pickup inside the same critical
// section as the write.
type Precondition func(p models.Pickup) error

// Apply commits ch to the matching store entry and returns the new snapshot.
// Only the field named by ch.Kind changes.
func Apply(store *Store, ch models.PendingChange, pre Precondition) (models.Pickup, error) {
	return store.ApplyMutation(ch.PickupID, func(p models.Pickup) (models.Pickup, error) {
		if pre != nil {
			if err := pre(p); err != nil {
				return p, err
			}
		}
		switch ch.Kind {
		case models.ChangeStatus:
			p.Status = ch.TargetStatus
		case models.ChangeCarrier:
			p.Carrier = ch.Carrier
		default:
			return p, errors.Wrapf(ErrUnknownKind, "apply %q", ch.Kind)
		}
		return p, nil
	})
}
