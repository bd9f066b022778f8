package pickups

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/pkg/errors"
)

var (
	ErrApplying        = errors.New("change is already being applied")
	ErrNothingProposed = errors.New("no change proposed")
)

const commitFailedTitle = "Change not applied"

// Notifier receives exactly one outcome per finished confirmation.
type Notifier interface {
	Success(message string)
	Warning(title, message string)
}

type GateState string

const (
	StateIdle     GateState = "idle"
	StateProposed GateState = "proposed"
	StateApplying GateState = "applying"
)

// Prompt is the confirmation question for a proposed change.
type Prompt struct {
	PickupID int64             `json:"pickupId"`
	Kind     models.ChangeKind `json:"kind"`
	From     string            `json:"from"`
	To       string            `json:"to"`
	Message  string            `json:"message"`
}

// GateView is a read-only snapshot of one gate slot.
type GateView struct {
	State  GateState             `json:"state"`
	Change *models.PendingChange `json:"change,omitempty"`
	Prompt *Prompt               `json:"prompt,omitempty"`
}

type slot struct {
	state  GateState
	change models.PendingChange
	prompt Prompt
}

// Gate mediates between a proposed change and its commit for one change kind.
// Slots are keyed by pickup id, so each (pickup, kind) pair has its own
// Idle -> Proposed -> Applying -> Idle cycle and at most one change applying.
type Gate struct {
	kind     models.ChangeKind
	store    *Store
	exec     Executor
	notifier Notifier

	mu    sync.Mutex
	slots map[int64]*slot

	proposed  atomic.Int64
	cancelled atomic.Int64
	confirmed atomic.Int64
	applied   atomic.Int64
	denied    atomic.Int64
	failed    atomic.Int64
	inFlight  atomic.Int64
}

func NewGate(kind models.ChangeKind, store *Store, exec Executor, notifier Notifier) *Gate {
	return &Gate{
		kind:     kind,
		store:    store,
		exec:     exec,
		notifier: notifier,
		slots:    make(map[int64]*slot),
	}
}

func (g *Gate) Kind() models.ChangeKind {
	return g.kind
}

// Propose parks ch awaiting confirmation. A newer proposal for the same pickup
// replaces an unconfirmed one; nothing can be proposed while applying.
func (g *Gate) Propose(ch models.PendingChange) (Prompt, error) {
	if ch.Kind != g.kind {
		return Prompt{}, errors.Wrapf(ErrUnknownKind, "%s gate got %q", g.kind, ch.Kind)
	}
	p, ok := g.store.Get(ch.PickupID)
	if !ok {
		return Prompt{}, ErrNotFound
	}
	prompt := newPrompt(p, ch)

	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.slots[ch.PickupID]; ok && s.state == StateApplying {
		return Prompt{}, ErrApplying
	}
	g.slots[ch.PickupID] = &slot{state: StateProposed, change: ch, prompt: prompt}
	g.proposed.Add(1)
	return prompt, nil
}

// Cancel drops an unconfirmed proposal without side effects.
func (g *Gate) Cancel(pickupID int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.slots[pickupID]
	if !ok {
		return ErrNothingProposed
	}
	if s.state == StateApplying {
		return ErrApplying
	}
	delete(g.slots, pickupID)
	g.cancelled.Add(1)
	return nil
}

func (g *Gate) View(pickupID int64) GateView {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.slots[pickupID]
	if !ok {
		return GateView{State: StateIdle}
	}
	ch := s.change
	prompt := s.prompt
	return GateView{State: s.state, Change: &ch, Prompt: &prompt}
}

// Confirm commits the proposed change for pickupID. It blocks for the
// executor round trip; a concurrent Confirm for the same pickup, from either
// gate, gets ErrApplying and changes nothing. A proposal refused that way
// stays proposed.
func (g *Gate) Confirm(ctx context.Context, pickupID int64) (models.Pickup, error) {
	g.mu.Lock()
	s, ok := g.slots[pickupID]
	if !ok {
		g.mu.Unlock()
		return models.Pickup{}, ErrNothingProposed
	}
	if s.state == StateApplying {
		g.mu.Unlock()
		return models.Pickup{}, ErrApplying
	}
	s.state = StateApplying
	ch := s.change
	g.mu.Unlock()

	// Held for both kinds from the guard check through the store write.
	release, err := g.store.Reserve(pickupID)
	if errors.Is(err, ErrApplying) {
		g.mu.Lock()
		s.state = StateProposed
		g.mu.Unlock()
		return models.Pickup{}, ErrApplying
	}

	g.confirmed.Add(1)
	g.inFlight.Add(1)
	defer g.inFlight.Add(-1)

	if err != nil {
		g.finish(pickupID)
		g.failed.Add(1)
		g.notifier.Warning(commitFailedTitle, fmt.Sprintf("pickup #%d no longer exists", pickupID))
		return models.Pickup{}, ErrNotFound
	}
	defer release()

	// The other gate may have moved the pickup since the proposal.
	cur, ok := g.store.Get(pickupID)
	if !ok {
		g.finish(pickupID)
		g.failed.Add(1)
		g.notifier.Warning(commitFailedTitle, fmt.Sprintf("pickup #%d no longer exists", pickupID))
		return models.Pickup{}, ErrNotFound
	}
	if v := Evaluate(cur, ch); !v.Allowed {
		g.finish(pickupID)
		g.denied.Add(1)
		g.notifier.Warning(v.Code.Title(), v.Reason)
		return models.Pickup{}, v.Err()
	}

	if err := g.exec.Execute(ctx, ch); err != nil {
		g.finish(pickupID)
		g.failed.Add(1)
		slog.Error("execute pickup change", "pickup_id", pickupID, "kind", string(ch.Kind), "error", err.Error())
		g.notifier.Warning(commitFailedTitle, err.Error())
		return models.Pickup{}, errors.Wrap(err, "execute change")
	}

	updated, err := Apply(g.store, ch, func(p models.Pickup) error {
		return Evaluate(p, ch).Err()
	})
	g.finish(pickupID)
	if err != nil {
		var de *DeniedError
		if errors.As(err, &de) {
			g.denied.Add(1)
			g.notifier.Warning(de.Verdict.Code.Title(), de.Verdict.Reason)
			return models.Pickup{}, err
		}
		g.failed.Add(1)
		g.notifier.Warning(commitFailedTitle, err.Error())
		return models.Pickup{}, err
	}

	g.applied.Add(1)
	slog.Info("pickup change applied", "pickup_id", pickupID, "kind", string(ch.Kind), "to", ch.Target())
	g.notifier.Success(successMessage(ch, updated))
	return updated, nil
}

func (g *Gate) finish(pickupID int64) {
	g.mu.Lock()
	delete(g.slots, pickupID)
	g.mu.Unlock()
}

type GateStats struct {
	Kind      models.ChangeKind `json:"kind"`
	Proposed  int64             `json:"proposed"`
	Cancelled int64             `json:"cancelled"`
	Confirmed int64             `json:"confirmed"`
	Applied   int64             `json:"applied"`
	Denied    int64             `json:"denied"`
	Failed    int64             `json:"failed"`
	InFlight  int64             `json:"inFlight"`
}

func (g *Gate) Stats() GateStats {
	return GateStats{
		Kind:      g.kind,
		Proposed:  g.proposed.Load(),
		Cancelled: g.cancelled.Load(),
		Confirmed: g.confirmed.Load(),
		Applied:   g.applied.Load(),
		Denied:    g.denied.Load(),
		Failed:    g.failed.Load(),
		InFlight:  g.inFlight.Load(),
	}
}

func newPrompt(p models.Pickup, ch models.PendingChange) Prompt {
	from, to := ch.Current(p), ch.Target()
	var msg string
	switch {
	case ch.Kind == models.ChangeStatus:
		msg = fmt.Sprintf("Change status of pickup #%d from %q to %q?", p.ID, from, to)
	case !ch.Carrier.IsAssigned():
		msg = fmt.Sprintf("Remove carrier %q from pickup #%d?", from, p.ID)
	default:
		msg = fmt.Sprintf("Assign carrier %q to pickup #%d (currently %q)?", to, p.ID, from)
	}
	return Prompt{PickupID: p.ID, Kind: ch.Kind, From: from, To: to, Message: msg}
}

func successMessage(ch models.PendingChange, p models.Pickup) string {
	if ch.Kind == models.ChangeStatus {
		return fmt.Sprintf("Pickup #%d status changed to %s", p.ID, p.Status)
	}
	if !p.Carrier.IsAssigned() {
		return fmt.Sprintf("Carrier removed from pickup #%d", p.ID)
	}
	return fmt.Sprintf("Carrier %s assigned to pickup #%d", p.Carrier.Name(), p.ID)
}
