package models

import "github.com/pkg/errors"

// ChangeKind names which pickup field a pending change touches.
type ChangeKind string

const (
	ChangeStatus  ChangeKind = "status"
	ChangeCarrier ChangeKind = "carrier"
)

func ParseChangeKind(raw string) (ChangeKind, error) {
	switch k := ChangeKind(raw); k {
	case ChangeStatus, ChangeCarrier:
		return k, nil
	}
	return "", errors.Errorf("unknown change kind %q", raw)
}

// PendingChange is a proposed, not yet confirmed, mutation of one pickup.
// Only the field matching Kind is meaningful.
type PendingChange struct {
	PickupID     int64      `json:"pickupId"`
	Kind         ChangeKind `json:"kind"`
	TargetStatus Status     `json:"targetStatus,omitempty"`
	Carrier      Carrier    `json:"carrier"`
}

func StatusChange(pickupID int64, target Status) PendingChange {
	return PendingChange{PickupID: pickupID, Kind: ChangeStatus, TargetStatus: target}
}

func CarrierChange(pickupID int64, c Carrier) PendingChange {
	return PendingChange{PickupID: pickupID, Kind: ChangeCarrier, Carrier: c}
}

// Target renders the value the change would set.
func (c PendingChange) Target() string {
	if c.Kind == ChangeStatus {
		return c.TargetStatus.String()
	}
	return c.Carrier.String()
}

// Current renders the field the change would overwrite, as it is on p.
func (c PendingChange) Current(p Pickup) string {
	if c.Kind == ChangeStatus {
		return p.Status.String()
	}
	return p.Carrier.String()
}
