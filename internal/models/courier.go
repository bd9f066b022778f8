package models

type Courier struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email,omitempty"`
	DocumentType   string `json:"documentType,omitempty"`
	DocumentNumber string `json:"documentNumber,omitempty"`
	VehicleType    string `json:"vehicleType,omitempty"`
	License        string `json:"license,omitempty"`
	PlateNumber    string `json:"plateNumber,omitempty"`
	Brand          string `json:"brand,omitempty"`
}

// Carrier returns the courier as an assignable carrier value.
func (c Courier) Carrier() Carrier {
	return AssignedTo(c.Name)
}
