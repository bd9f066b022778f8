package pickups

import (
	"fmt"

	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/pkg/errors"
)

// DenialCode classifies why a guard refused a change.
type DenialCode string

const (
	DenialReceivedTerminal DenialCode = "received_terminal"
	DenialCarrierRequired  DenialCode = "carrier_required"
	DenialNotPickedUp      DenialCode = "not_picked_up"
	DenialUnknownKind      DenialCode = "unknown_kind"
)

const (
	ReasonReceivedTerminal  = "cannot modify a received pickup"
	ReasonCarrierFirst      = "carrier assignment required first"
	ReasonNotPickedUp       = "must be picked up before being received"
	ReasonCarrierWhileSched = "carrier is mandatory while scheduled"
)

// Title is the warning headline shown for the denial.
func (c DenialCode) Title() string {
	switch c {
	case DenialReceivedTerminal:
		return "Pickup already received"
	case DenialCarrierRequired:
		return "Carrier required"
	case DenialNotPickedUp:
		return "Pickup not collected yet"
	}
	return "Change not allowed"
}

// Verdict is the outcome of a guard evaluation. Noop marks an allowed change
// that would not alter anything.
type Verdict struct {
	Allowed bool
	Noop    bool
	Code    DenialCode
	Reason  string
}

// Err converts a denial into a *DeniedError, nil when allowed.
func (v Verdict) Err() error {
	if v.Allowed {
		return nil
	}
	return &DeniedError{Verdict: v}
}

func allow() Verdict { return Verdict{Allowed: true} }

func deny(code DenialCode, reason string) Verdict {
	return Verdict{Code: code, Reason: reason}
}

// DeniedError is a business-rule denial. It is expected and user facing.
type DeniedError struct {
	Verdict Verdict
}

func (e *DeniedError) Error() string {
	return e.Verdict.Reason
}

// IsDenied reports whether err is a guard denial.
func IsDenied(err error) bool {
	var de *DeniedError
	return errors.As(err, &de)
}

// EvaluateStatus decides whether p may move to target.
// Rules are ordered; the first match wins.
func EvaluateStatus(p models.Pickup, target models.Status) Verdict {
	if p.Status.IsTerminal() {
		return deny(DenialReceivedTerminal, ReasonReceivedTerminal)
	}
	if (target == models.StatusScheduled || target == models.StatusReceived) && !p.Carrier.IsAssigned() {
		return deny(DenialCarrierRequired, ReasonCarrierFirst)
	}
	if target == models.StatusReceived && p.Status != models.StatusPickedUp {
		return deny(DenialNotPickedUp, ReasonNotPickedUp)
	}
	return allow()
}

// EvaluateCarrier decides whether p may get carrier c. Re-selecting the current
// carrier is allowed as a no-op.
func EvaluateCarrier(p models.Pickup, c models.Carrier) Verdict {
	if p.Status.IsTerminal() {
		return deny(DenialReceivedTerminal, ReasonReceivedTerminal)
	}
	if !c.IsAssigned() && p.Status == models.StatusScheduled {
		return deny(DenialCarrierRequired, ReasonCarrierWhileSched)
	}
	if c == p.Carrier {
		return Verdict{Allowed: true, Noop: true}
	}
	return allow()
}

// Evaluate dispatches a pending change to its guard.
// Unknown kinds are denied.
func Evaluate(p models.Pickup, ch models.PendingChange) Verdict {
	switch ch.Kind {
	case models.ChangeStatus:
		return EvaluateStatus(p, ch.TargetStatus)
	case models.ChangeCarrier:
		return EvaluateCarrier(p, ch.Carrier)
	}
	return deny(DenialUnknownKind, fmt.Sprintf("unknown change kind %q", ch.Kind))
}
