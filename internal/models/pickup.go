package models

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Status is the lifecycle state of a pickup order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusPickedUp  Status = "picked_up"
	StatusReceived  Status = "received"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusScheduled, StatusPickedUp, StatusReceived}

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusScheduled, StatusPickedUp, StatusReceived:
		return true
	}
	return false
}

// IsTerminal reports whether no further mutation is accepted.
func (s Status) IsTerminal() bool {
	return s == StatusReceived
}

// ParseStatus accepts the canonical names case-insensitively; "picked up" and
// "picked-up" are read as picked_up.
func ParseStatus(raw string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	s := Status(v)
	if !s.Valid() {
		return "", errors.Errorf("unknown pickup status %q", raw)
	}
	return s, nil
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	v, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UnassignedLabel is what an unassigned carrier renders as.
const UnassignedLabel = "unassigned"

// legacy backend placeholders that mean "nobody assigned"
var unassignedAliases = map[string]struct{}{
	"":            {},
	"unassigned":  {},
	"sin asignar": {},
}

// Carrier is either Unassigned (the zero value) or a named courier.
type Carrier struct {
	name string
}

// Unassigned is the single sentinel for "no carrier".
var Unassigned = Carrier{}

// AssignedTo returns a carrier for name. Blank names and legacy placeholders
// collapse to Unassigned.
func AssignedTo(name string) Carrier {
	n := strings.TrimSpace(name)
	if _, ok := unassignedAliases[strings.ToLower(n)]; ok {
		return Unassigned
	}
	return Carrier{name: n}
}

func (c Carrier) IsAssigned() bool {
	return c.name != ""
}

// Name is the courier name, empty when unassigned.
func (c Carrier) Name() string {
	return c.name
}

func (c Carrier) String() string {
	if !c.IsAssigned() {
		return UnassignedLabel
	}
	return c.name
}

func (c Carrier) MarshalJSON() ([]byte, error) {
	if !c.IsAssigned() {
		return []byte("null"), nil
	}
	return json.Marshal(c.name)
}

func (c *Carrier) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*c = Unassigned
		return nil
	}
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	*c = AssignedTo(name)
	return nil
}

// InvalidDate marks a pickup date the backend sent in an unreadable form.
const InvalidDate = "invalid date"

type Pickup struct {
	ID           int64   `json:"id"`
	Status       Status  `json:"status"`
	Carrier      Carrier `json:"carrier"`
	PickupDate   string  `json:"pickupDate"`
	Address      string  `json:"address"`
	District     string  `json:"district"`
	Seller       string  `json:"seller"`
	Phone        string  `json:"phone,omitempty"`
	PackageCount int     `json:"packageCount"`
	Observation  *string `json:"observation,omitempty"`
}

// Clone returns a copy that shares no pointers with p.
func (p Pickup) Clone() Pickup {
	cp := p
	if p.Observation != nil {
		o := *p.Observation
		cp.Observation = &o
	}
	return cp
}
