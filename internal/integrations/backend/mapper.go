package backend

import (
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/PickupDesk/internal/models"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// MapPickup converts a backend record into a domain pickup. It never fails:
// unreadable dates become models.InvalidDate, a missing driver becomes
// models.Unassigned and an unknown status becomes pending.
func MapPickup(r PickupRecord) models.Pickup {
	status, err := models.ParseStatus(r.Status)
	if err != nil {
		slog.Warn("unknown pickup status, using pending", "pickup_id", r.ID, "status", r.Status)
		status = models.StatusPending
	}

	carrier := models.Unassigned
	if r.DriverName != nil {
		carrier = models.AssignedTo(*r.DriverName)
	}

	total := 0
	for _, it := range r.Items {
		total += int(it.Quantity)
	}

	p := models.Pickup{
		ID:           r.ID,
		Status:       status,
		Carrier:      carrier,
		PickupDate:   formatDate(r.PickupDate),
		Address:      r.Address,
		District:     r.DistrictName,
		Seller:       r.CompanyName,
		Phone:        r.Phone,
		PackageCount: total,
	}
	if r.Observation != nil && strings.TrimSpace(*r.Observation) != "" {
		o := *r.Observation
		p.Observation = &o
	}
	return p
}

func MapPickups(rs []PickupRecord) []models.Pickup {
	out := make([]models.Pickup, 0, len(rs))
	for _, r := range rs {
		out = append(out, MapPickup(r))
	}
	return out
}

func formatDate(raw string) string {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return models.InvalidDate
}

func MapCourier(r CourierRecord) models.Courier {
	return models.Courier{
		ID:             r.ID,
		Name:           strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName)),
		Email:          r.Email,
		DocumentType:   r.DocumentType,
		DocumentNumber: r.DocumentNumber,
		VehicleType:    r.VehicleType,
		License:        r.License,
		PlateNumber:    r.PlateNumber,
		Brand:          r.Brand,
	}
}

func MapCouriers(rs []CourierRecord) []models.Courier {
	out := make([]models.Courier, 0, len(rs))
	for _, r := range rs {
		out = append(out, MapCourier(r))
	}
	return out
}
