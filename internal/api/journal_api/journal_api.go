package journal_api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/BearBump/PickupDesk/internal/storage/pgjournal"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

type Repository interface {
	ListChanges(ctx context.Context, pickupID int64, limit, offset int) ([]*models.ChangeRecord, error)
	GetSnapshot(ctx context.Context, pickupID int64) (*models.PickupSnapshot, error)
}

type JournalAPI struct {
	repo Repository
}

func New(repo Repository) *JournalAPI {
	return &JournalAPI{repo: repo}
}

func (a *JournalAPI) Register(r chi.Router) {
	r.Get("/journal/{pickupID}", a.listChanges)
	r.Get("/journal/{pickupID}/latest", a.latest)
}

func (a *JournalAPI) listChanges(w http.ResponseWriter, r *http.Request) {
	id, ok := pickupID(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 100)
	offset := queryInt(r, "offset", 0)

	changes, err := a.repo.ListChanges(r.Context(), id, limit, offset)
	if err != nil {
		slog.Error("list pickup changes", "pickup_id", id, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "journal unavailable"})
		return
	}
	if changes == nil {
		changes = []*models.ChangeRecord{}
	}
	writeJSON(w, http.StatusOK, changes)
}

func (a *JournalAPI) latest(w http.ResponseWriter, r *http.Request) {
	id, ok := pickupID(w, r)
	if !ok {
		return
	}
	snap, err := a.repo.GetSnapshot(r.Context(), id)
	if errors.Is(err, pgjournal.ErrNoSnapshot) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		slog.Error("get pickup snapshot", "pickup_id", id, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "journal unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func pickupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pickupID"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid pickup id"})
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
