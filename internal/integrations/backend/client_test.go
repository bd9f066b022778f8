package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchPickups_Array(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/shipping/pickup", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
  {"id": 12, "status": "pending", "pickup_date": "2024-05-01T10:00:00Z", "company_name": "ACME",
   "address": "Calle 1", "district_name": "Centro",
   "items": [{"product_name": "a", "quantity": 2}, {"product_name": "b", "quantity": "3"}],
   "driver_name": "J. Araya"}
]`))
	}))
	defer srv.Close()

	ps, err := New(srv.URL, "tok").FetchPickups(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 1)
	require.Equal(t, int64(12), ps[0].ID)
	require.Equal(t, 5, ps[0].PackageCount)
	require.Equal(t, "2024-05-01", ps[0].PickupDate)
	require.Equal(t, models.AssignedTo("J. Araya"), ps[0].Carrier)
	require.Equal(t, "ACME", ps[0].Seller)
}

func TestClient_FetchPickups_DataWrapper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data": [{"id": 1, "status": "scheduled", "driver_name": "M. Flores"}]}`))
	}))
	defer srv.Close()

	ps, err := New(srv.URL, "").FetchPickups(context.Background())
	require.NoError(t, err)
	require.Len(t, ps, 1)
	require.Equal(t, models.StatusScheduled, ps[0].Status)
}

func TestClient_FetchPickups_UnexpectedPayload(t *testing.T) {
	for _, body := range []string{`{"message": "ok"}`, `{"data": {"id": 1}}`, `"nope"`, ``} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		_, err := New(srv.URL, "").FetchPickups(context.Background())
		srv.Close()
		require.ErrorIs(t, err, ErrUnexpectedPayload, "body %q", body)
	}
}

func TestClient_FetchPickups_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").FetchPickups(context.Background())
	require.ErrorContains(t, err, "http 502")
}

func TestClient_FetchCouriers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/user", r.URL.Path)
		require.Equal(t, "couriers", r.URL.Query().Get("type"))
		_, _ = w.Write([]byte(`[{"id": 7, "email": "m@x.io", "first_name": "M.", "last_name": "Flores", "plate_number": "ZX-11"}]`))
	}))
	defer srv.Close()

	cs, err := New(srv.URL, "").FetchCouriers(context.Background())
	require.NoError(t, err)
	require.Len(t, cs, 1)
	require.Equal(t, "M. Flores", cs[0].Name)
	require.Equal(t, "ZX-11", cs[0].PlateNumber)
	require.Equal(t, models.AssignedTo("M. Flores"), cs[0].Carrier())
}
