package pickups

import (
	"context"
	"log/slog"

	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/pkg/errors"
)

var ErrInvalidTarget = errors.New("invalid target status")

// Source loads the pickups of the session, already mapped to domain values.
type Source interface {
	FetchPickups(ctx context.Context) ([]models.Pickup, error)
}

type Service struct {
	store    *Store
	source   Source
	notifier Notifier
	gates    map[models.ChangeKind]*Gate
}

func New(source Source, exec Executor, notifier Notifier) *Service {
	store := NewStore()
	return &Service{
		store:    store,
		source:   source,
		notifier: notifier,
		gates: map[models.ChangeKind]*Gate{
			models.ChangeStatus:  NewGate(models.ChangeStatus, store, exec, notifier),
			models.ChangeCarrier: NewGate(models.ChangeCarrier, store, exec, notifier),
		},
	}
}

// Load fills the store from the source. On failure the store is left empty
// and the error is returned for the caller to log; there is no retry.
func (s *Service) Load(ctx context.Context) error {
	items, err := s.source.FetchPickups(ctx)
	if err != nil {
		s.store.Load(nil)
		return errors.Wrap(err, "load pickups")
	}
	s.store.Load(items)
	slog.Info("pickups loaded", "count", len(items))
	return nil
}

func (s *Service) List() []models.Pickup {
	return s.store.List()
}

func (s *Service) Get(id int64) (models.Pickup, error) {
	p, ok := s.store.Get(id)
	if !ok {
		return models.Pickup{}, ErrNotFound
	}
	return p, nil
}

// Proposal is the result of asking for a change. Noop proposals never reach
// the gate.
type Proposal struct {
	Noop   bool          `json:"noop"`
	Prompt *Prompt       `json:"prompt,omitempty"`
	Pickup models.Pickup `json:"pickup"`
}

func (s *Service) ProposeStatus(id int64, target models.Status) (Proposal, error) {
	if !target.Valid() {
		return Proposal{}, errors.Wrapf(ErrInvalidTarget, "%q", target)
	}
	return s.propose(models.StatusChange(id, target))
}

func (s *Service) ProposeCarrier(id int64, c models.Carrier) (Proposal, error) {
	return s.propose(models.CarrierChange(id, c))
}

func (s *Service) propose(ch models.PendingChange) (Proposal, error) {
	p, ok := s.store.Get(ch.PickupID)
	if !ok {
		return Proposal{}, ErrNotFound
	}
	v := Evaluate(p, ch)
	if !v.Allowed {
		s.notifier.Warning(v.Code.Title(), v.Reason)
		return Proposal{}, v.Err()
	}
	if v.Noop {
		return Proposal{Noop: true, Pickup: p}, nil
	}
	prompt, err := s.gates[ch.Kind].Propose(ch)
	if err != nil {
		return Proposal{}, err
	}
	return Proposal{Prompt: &prompt, Pickup: p}, nil
}

func (s *Service) Confirm(ctx context.Context, kind models.ChangeKind, id int64) (models.Pickup, error) {
	g, err := s.gate(kind)
	if err != nil {
		return models.Pickup{}, err
	}
	return g.Confirm(ctx, id)
}

func (s *Service) Cancel(kind models.ChangeKind, id int64) error {
	g, err := s.gate(kind)
	if err != nil {
		return err
	}
	return g.Cancel(id)
}

func (s *Service) GateView(kind models.ChangeKind, id int64) (GateView, error) {
	g, err := s.gate(kind)
	if err != nil {
		return GateView{}, err
	}
	if _, ok := s.store.Get(id); !ok {
		return GateView{}, ErrNotFound
	}
	return g.View(id), nil
}

func (s *Service) Stats() []GateStats {
	return []GateStats{
		s.gates[models.ChangeStatus].Stats(),
		s.gates[models.ChangeCarrier].Stats(),
	}
}

func (s *Service) gate(kind models.ChangeKind) (*Gate, error) {
	g, ok := s.gates[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
	}
	return g, nil
}
