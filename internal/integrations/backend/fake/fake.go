package fake

import (
	"context"

	"github.com/BearBump/PickupDesk/internal/integrations/backend"
	"github.com/BearBump/PickupDesk/internal/models"
)

// Backend is an in-process stand-in for the shipping backend, for local runs
// without one. It serves a fixed payload through the same decoder and mapper
// as the HTTP client, including the awkward shapes the real backend sends.
type Backend struct{}

func New() *Backend { return &Backend{} }

func (b *Backend) FetchPickups(ctx context.Context) ([]models.Pickup, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rs, err := backend.DecodePickups([]byte(pickupsJSON))
	if err != nil {
		return nil, err
	}
	return backend.MapPickups(rs), nil
}

func (b *Backend) FetchCouriers(ctx context.Context) ([]models.Courier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rs, err := backend.DecodeCouriers([]byte(couriersJSON))
	if err != nil {
		return nil, err
	}
	return backend.MapCouriers(rs), nil
}

const pickupsJSON = `{"data": [
  {"id": 101, "status": "pending", "pickup_date": "2024-05-02T09:30:00Z", "company_name": "Tienda Sol",
   "phone": "+56 9 1111 2222", "address": "Av. Providencia 1234", "district_name": "Providencia",
   "items": [{"product_name": "Caja M", "quantity": 2}, {"product_name": "Sobre", "quantity": 1}],
   "driver_name": null},
  {"id": 102, "status": "pending", "pickup_date": "2024-05-02", "company_name": "Libros Sur",
   "phone": "+56 9 3333 4444", "address": "Los Leones 55", "district_name": "Ñuñoa",
   "products": [{"product_name": "Caja S", "quantity": "3"}],
   "driver_name": "J. Araya"},
  {"id": 103, "status": "scheduled", "pickup_date": "2024-05-03 14:00:00", "company_name": "Moda Norte",
   "address": "Huérfanos 900", "district_name": "Santiago",
   "pickup_items": [{"product_name": "Bolsa", "quantity": 4}],
   "driver_name": "M. Flores", "observation": "Tocar timbre 2B"},
  {"id": 104, "status": "picked_up", "pickup_date": "2024-05-01T08:00:00", "company_name": "Ferretería Lira",
   "address": "Lira 321", "district_name": "Santiago",
   "detail": [{"product_name": "Caja L", "quantity": 1}],
   "driver_name": "J. Araya"},
  {"id": 105, "status": "received", "pickup_date": "pronto", "company_name": "Café Puerto",
   "address": "Blanco 12", "district_name": "Valparaíso",
   "items": [], "driver_name": "sin asignar"}
]}`

const couriersJSON = `[
  {"id": 7, "email": "jaraya@example.com", "first_name": "J.", "last_name": "Araya",
   "document_type": "RUT", "document_number": "12.345.678-9", "vehicle_type": "van",
   "license": "A2", "plate_number": "KJ-PL-12", "brand": "Peugeot"},
  {"id": 8, "email": "mflores@example.com", "first_name": "M.", "last_name": "Flores",
   "document_type": "RUT", "document_number": "9.876.543-2", "vehicle_type": "motorbike",
   "license": "C", "plate_number": "ZX-11", "brand": "Honda"}
]`
