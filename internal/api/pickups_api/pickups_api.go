package pickups_api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/BearBump/PickupDesk/internal/models"
	"github.com/BearBump/PickupDesk/internal/notify"
	"github.com/BearBump/PickupDesk/internal/services/couriers"
	"github.com/BearBump/PickupDesk/internal/services/pickups"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

// Limiter throttles mutating requests per client.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type PickupsAPI struct {
	svc      *pickups.Service
	couriers *couriers.Directory
	board    *notify.Board

	limiter   Limiter
	perMinute int64
}

func New(svc *pickups.Service, dir *couriers.Directory, board *notify.Board) *PickupsAPI {
	return &PickupsAPI{svc: svc, couriers: dir, board: board}
}

// WithRateLimit caps POST requests at perMinute per remote host.
func (a *PickupsAPI) WithRateLimit(l Limiter, perMinute int) *PickupsAPI {
	a.limiter = l
	a.perMinute = int64(perMinute)
	return a
}

func (a *PickupsAPI) Register(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/stats", a.stats)

	r.Get("/pickups", a.listPickups)
	r.Get("/couriers", a.listCouriers)
	r.Get("/notification", a.currentNotification)
	r.Delete("/notification/{id}", a.dismissNotification)

	r.Route("/pickups/{id}", func(r chi.Router) {
		r.Get("/", a.getPickup)
		r.Get("/{kind}", a.gateView)
		r.Group(func(r chi.Router) {
			r.Use(a.rateLimit)
			r.Post("/status", a.proposeStatus)
			r.Post("/carrier", a.proposeCarrier)
			r.Post("/{kind}/confirm", a.confirm)
			r.Post("/{kind}/cancel", a.cancel)
		})
	})
}

func (a *PickupsAPI) listPickups(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.svc.List())
}

func (a *PickupsAPI) getPickup(w http.ResponseWriter, r *http.Request) {
	id, ok := pickupID(w, r)
	if !ok {
		return
	}
	p, err := a.svc.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (a *PickupsAPI) proposeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pickupID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	target, err := models.ParseStatus(req.Status)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	prop, err := a.svc.ProposeStatus(id, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

// proposeCarrier expects {"carrier": "<name>"} or {"carrier": null}.
func (a *PickupsAPI) proposeCarrier(w http.ResponseWriter, r *http.Request) {
	id, ok := pickupID(w, r)
	if !ok {
		return
	}
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid body")
		return
	}
	raw, present := body["carrier"]
	if !present {
		writeMessage(w, http.StatusBadRequest, "carrier is required")
		return
	}
	var c models.Carrier
	if err := json.Unmarshal(raw, &c); err != nil {
		writeMessage(w, http.StatusBadRequest, "carrier must be a string or null")
		return
	}
	prop, err := a.svc.ProposeCarrier(id, c)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

func (a *PickupsAPI) gateView(w http.ResponseWriter, r *http.Request) {
	id, kind, ok := pickupAndKind(w, r)
	if !ok {
		return
	}
	v, err := a.svc.GateView(kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *PickupsAPI) confirm(w http.ResponseWriter, r *http.Request) {
	id, kind, ok := pickupAndKind(w, r)
	if !ok {
		return
	}
	p, err := a.svc.Confirm(r.Context(), kind, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *PickupsAPI) cancel(w http.ResponseWriter, r *http.Request) {
	id, kind, ok := pickupAndKind(w, r)
	if !ok {
		return
	}
	if err := a.svc.Cancel(kind, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *PickupsAPI) listCouriers(w http.ResponseWriter, r *http.Request) {
	cs, err := a.couriers.List(r.Context())
	if err != nil {
		slog.Error("list couriers", "error", err.Error())
		writeMessage(w, http.StatusBadGateway, "couriers unavailable")
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (a *PickupsAPI) currentNotification(w http.ResponseWriter, _ *http.Request) {
	n, ok := a.board.Current()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (a *PickupsAPI) dismissNotification(w http.ResponseWriter, r *http.Request) {
	if !a.board.Dismiss(chi.URLParam(r, "id")) {
		writeMessage(w, http.StatusNotFound, "notification is not current")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type statsResponse struct {
	Pickups        int                 `json:"pickups"`
	CourierFetches int64               `json:"courierFetches"`
	Gates          []pickups.GateStats `json:"gates"`
}

func (a *PickupsAPI) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Pickups:        len(a.svc.List()),
		CourierFetches: a.couriers.Fetches(),
		Gates:          a.svc.Stats(),
	})
}

func (a *PickupsAPI) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.limiter == nil || a.perMinute <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		allowed, _, err := a.limiter.Allow(r.Context(), "mutate:"+host, a.perMinute, time.Minute)
		if err != nil {
			slog.Warn("rate limiter unavailable", "error", err.Error())
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			writeMessage(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func pickupID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "invalid pickup id")
		return 0, false
	}
	return id, true
}

func pickupAndKind(w http.ResponseWriter, r *http.Request) (int64, models.ChangeKind, bool) {
	id, ok := pickupID(w, r)
	if !ok {
		return 0, "", false
	}
	kind, err := models.ParseChangeKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, err.Error())
		return 0, "", false
	}
	return id, kind, true
}

type warningResponse struct {
	Code    pickups.DenialCode `json:"code"`
	Title   string             `json:"title"`
	Message string             `json:"message"`
}

type messageResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	var de *pickups.DeniedError
	switch {
	case errors.As(err, &de):
		writeJSON(w, http.StatusConflict, warningResponse{
			Code:    de.Verdict.Code,
			Title:   de.Verdict.Code.Title(),
			Message: de.Verdict.Reason,
		})
	case errors.Is(err, pickups.ErrApplying):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, pickups.ErrNotFound), errors.Is(err, pickups.ErrNothingProposed):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, pickups.ErrInvalidTarget), errors.Is(err, pickups.ErrUnknownKind):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("pickup request failed", "error", err.Error())
		writeMessage(w, http.StatusBadGateway, err.Error())
	}
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, messageResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
