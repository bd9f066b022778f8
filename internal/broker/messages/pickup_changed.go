package messages

import (
	"time"

	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/pkg/errors"
)

// PickupChanged is published once per committed pickup change.
// Carrier is nil when the change removed the carrier.
type PickupChanged struct {
	PickupID    int64     `json:"pickup_id"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status,omitempty"`
	Carrier     *string   `json:"carrier,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// Validate reports why m can never be recorded.
func (m PickupChanged) Validate() error {
	if m.PickupID == 0 {
		return errors.New("missing pickup_id")
	}
	kind, err := models.ParseChangeKind(m.Kind)
	if err != nil {
		return err
	}
	if kind == models.ChangeStatus {
		if _, err := models.ParseStatus(m.Status); err != nil {
			return err
		}
	}
	return nil
}
