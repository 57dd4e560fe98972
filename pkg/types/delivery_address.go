package types

import "fmt"

// AddressMethod discriminates the two ways a delivery address is captured.
type AddressMethod string

const (
	// AddressMethodLocated means the address is a device geolocation fix.
	AddressMethodLocated AddressMethod = "located"
	// AddressMethodManual means the address was typed as structured fields.
	AddressMethodManual AddressMethod = "manual"
)

// DeliveryAddress is a tagged union: exactly one variant is populated,
// selected by Method. Located carries coordinates, Manual carries the
// structured street address.
type DeliveryAddress struct {
	Method AddressMethod `json:"method"`

	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	DoorNo  string `json:"door_no,omitempty"`
	Street  string `json:"street,omitempty"`
	Area    string `json:"area,omitempty"`
	City    string `json:"city,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// Label renders the address the way delivery slips print it.
func (a DeliveryAddress) Label() string {
	if a.Method == AddressMethodLocated && a.Latitude != nil && a.Longitude != nil {
		return fmt.Sprintf("GPS location (%.6f, %.6f)", *a.Latitude, *a.Longitude)
	}
	return fmt.Sprintf("%s, %s, %s, %s - %s", a.DoorNo, a.Street, a.Area, a.City, a.Pincode)
}
