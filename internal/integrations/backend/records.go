package backend

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrUnexpectedPayload = errors.New("unexpected backend payload")

// itemFields are tried in order; the backend has used all of them for the
// pickup item list.
var itemFields = []string{"items", "products", "pickup_items", "detail"}

type ItemRecord struct {
	ProductName string   `json:"product_name"`
	Quantity    Quantity `json:"quantity"`
}

// Quantity accepts a JSON number or a numeric string. Anything else reads as 0.
type Quantity int

func (q *Quantity) UnmarshalJSON(b []byte) error {
	*q = 0
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if n, err := strconv.Atoi(s); err == nil {
		*q = Quantity(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*q = Quantity(int(f))
	}
	return nil
}

// PickupRecord is a pickup as GET /shipping/pickup returns it.
type PickupRecord struct {
	ID           int64        `json:"id"`
	Status       string       `json:"status"`
	PickupDate   string       `json:"pickup_date"`
	CompanyName  string       `json:"company_name"`
	Phone        string       `json:"phone"`
	Address      string       `json:"address"`
	DistrictName string       `json:"district_name"`
	DriverName   *string      `json:"driver_name"`
	Observation  *string      `json:"observation"`
	Items        []ItemRecord `json:"-"`
}

func (r *PickupRecord) UnmarshalJSON(b []byte) error {
	type plain PickupRecord
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Items = nil
	for _, f := range itemFields {
		v, ok := raw[f]
		if !ok {
			continue
		}
		var items []ItemRecord
		if err := json.Unmarshal(v, &items); err == nil && items != nil {
			p.Items = items
			break
		}
	}
	*r = PickupRecord(p)
	return nil
}

// CourierRecord is a courier as GET /user?type=couriers returns it.
type CourierRecord struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	VehicleType    string `json:"vehicle_type"`
	License        string `json:"license"`
	PlateNumber    string `json:"plate_number"`
	Brand          string `json:"brand"`
}

func DecodePickups(body []byte) ([]PickupRecord, error) {
	var out []PickupRecord
	if err := decodeList(body, &out); err != nil {
		return nil, errors.Wrap(err, "decode pickups")
	}
	return out, nil
}

func DecodeCouriers(body []byte) ([]CourierRecord, error) {
	var out []CourierRecord
	if err := decodeList(body, &out); err != nil {
		return nil, errors.Wrap(err, "decode couriers")
	}
	return out, nil
}

// decodeList reads either a bare JSON array or an object whose "data" field
// is an array.
func decodeList(body []byte, v any) error {
	b := bytes.TrimSpace(body)
	if len(b) > 0 && b[0] == '{' {
		var wrapper struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(b, &wrapper); err != nil {
			return err
		}
		b = bytes.TrimSpace(wrapper.Data)
	}
	if len(b) == 0 || b[0] != '[' {
		return ErrUnexpectedPayload
	}
	return json.Unmarshal(b, v)
}
