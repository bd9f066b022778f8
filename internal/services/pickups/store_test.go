package pickups

import (
	"errors"
	"testing"

	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/stretchr/testify/require"
)

func TestStore_GetReturnsCopy(t *testing.T) {
	obs := "call before 10am"
	p := pickup(1, models.StatusPending, araya)
	p.Observation = &obs

	s := NewStore()
	s.Load([]models.Pickup{p})

	got, ok := s.Get(1)
	require.True(t, ok)
	*got.Observation = "changed"
	got.Status = models.StatusReceived

	again, _ := s.Get(1)
	require.Equal(t, "call before 10am", *again.Observation)
	require.Equal(t, models.StatusPending, again.Status)

	_, ok = s.Get(99)
	require.False(t, ok)
}

func TestStore_ListSortedByID(t *testing.T) {
	s := NewStore()
	s.Load([]models.Pickup{
		pickup(30, models.StatusPending, models.Unassigned),
		pickup(10, models.StatusPending, models.Unassigned),
		pickup(20, models.StatusPending, models.Unassigned),
	})
	list := s.List()
	require.Len(t, list, 3)
	require.Equal(t, []int64{10, 20, 30}, []int64{list[0].ID, list[1].ID, list[2].ID})

	s.Load(nil)
	require.Empty(t, s.List())
}

func TestStore_ApplyMutation(t *testing.T) {
	s := NewStore()
	s.Load([]models.Pickup{pickup(1, models.StatusPending, araya)})

	_, err := s.ApplyMutation(2, func(p models.Pickup) (models.Pickup, error) { return p, nil })
	require.ErrorIs(t, err, ErrNotFound)

	boom := errors.New("boom")
	_, err = s.ApplyMutation(1, func(p models.Pickup) (models.Pickup, error) {
		p.Status = models.StatusScheduled
		return p, boom
	})
	require.ErrorIs(t, err, boom)
	cur, _ := s.Get(1)
	require.Equal(t, models.StatusPending, cur.Status)

	out, err := s.ApplyMutation(1, func(p models.Pickup) (models.Pickup, error) {
		p.ID = 42
		p.Status = models.StatusScheduled
		return p, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), out.ID)
	cur, _ = s.Get(1)
	require.Equal(t, models.StatusScheduled, cur.Status)
}

func TestApply_TouchesOnlyChangedField(t *testing.T) {
	s := NewStore()
	s.Load([]models.Pickup{pickup(1, models.StatusPending, araya)})

	out, err := Apply(s, models.StatusChange(1, models.StatusScheduled), nil)
	require.NoError(t, err)
	require.Equal(t, models.StatusScheduled, out.Status)
	require.Equal(t, araya, out.Carrier)

	out, err = Apply(s, models.CarrierChange(1, flores), nil)
	require.NoError(t, err)
	require.Equal(t, models.StatusScheduled, out.Status)
	require.Equal(t, flores, out.Carrier)
	require.Equal(t, "Av. Siempre Viva 742", out.Address)
}

func TestApply_PreconditionBlocksWrite(t *testing.T) {
	s := NewStore()
	s.Load([]models.Pickup{pickup(1, models.StatusScheduled, araya)})

	ch := models.CarrierChange(1, models.Unassigned)
	_, err := Apply(s, ch, func(p models.Pickup) error { return Evaluate(p, ch).Err() })
	require.True(t, IsDenied(err))

	cur, _ := s.Get(1)
	require.Equal(t, araya, cur.Carrier)
}

func TestApply_UnknownKind(t *testing.T) {
	s := NewStore()
	s.Load([]models.Pickup{pickup(1, models.StatusPending, araya)})

	_, err := Apply(s, models.PendingChange{PickupID: 1, Kind: "eta"}, nil)
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestStore_ReserveIsExclusivePerPickup(t *testing.T) {
	s := seededStore(pickup(1, models.StatusPending, araya), pickup(2, models.StatusPending, flores))

	release, err := s.Reserve(1)
	require.NoError(t, err)

	_, err = s.Reserve(1)
	require.ErrorIs(t, err, ErrApplying)

	other, err := s.Reserve(2)
	require.NoError(t, err)
	other()

	_, err = s.Reserve(9)
	require.ErrorIs(t, err, ErrNotFound)

	release()
	again, err := s.Reserve(1)
	require.NoError(t, err)
	again()
}
