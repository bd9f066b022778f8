package models

import "time"

// ChangeRecord is one committed pickup change as kept by the journal.
type ChangeRecord struct {
	ID          int64      `json:"id"`
	PickupID    int64      `json:"pickupId"`
	Kind        ChangeKind `json:"kind"`
	Status      *string    `json:"status,omitempty"`
	Carrier     *string    `json:"carrier,omitempty"`
	RequestedAt time.Time  `json:"requestedAt"`
	RecordedAt  time.Time  `json:"recordedAt"`
}

// PickupSnapshot is the latest state the journal has seen for a pickup.
// Fields stay nil until a change of that kind was recorded; CarrierKnown
// tells an unassigned carrier apart from one never recorded.
type PickupSnapshot struct {
	PickupID     int64     `json:"pickupId"`
	Status       *string   `json:"status,omitempty"`
	Carrier      *string   `json:"carrier"`
	CarrierKnown bool      `json:"carrierKnown"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
