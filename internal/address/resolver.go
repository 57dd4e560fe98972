package address

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/frostcrinkle/bakery-backend/pkg/config"
	pkgerrors "github.com/frostcrinkle/bakery-backend/pkg/errors"
	"github.com/frostcrinkle/bakery-backend/pkg/types"
)

var (
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	// Serviceable pincodes are six digits inside the configured prefix.
	pincodeDigits = regexp.MustCompile(`^\d{6}$`)
)

// FieldError pins a validation failure to the field that caused it.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DeviceInput is a geolocation fix captured from the customer's device.
type DeviceInput struct {
	RecipientName string
	Phone         string
	Latitude      *float64
	Longitude     *float64
	DeliveryNotes string
}

// ManualInput is a typed street address.
type ManualInput struct {
	RecipientName string
	Phone         string
	DoorNo        string
	Street        string
	Area          string
	City          string
	Pincode       string
	DeliveryNotes string
}

// Resolver validates delivery addresses against the bakery's service area.
// Validation collects every failing field before reporting, so the customer
// can fix the whole form in one pass.
type Resolver struct {
	city          string
	pincodePrefix string
}

func NewResolver(cfg config.DeliveryConfig) *Resolver {
	return &Resolver{city: cfg.City, pincodePrefix: cfg.PincodePrefix}
}

// ResolveFromDevice validates a geolocated address. requireNotes forces
// delivery notes, used when the cart carries a weight-priced cake that
// needs an inscription.
func (r *Resolver) ResolveFromDevice(input DeviceInput, requireNotes bool) (*types.DeliveryAddress, error) {
	fields := validateContact(input.RecipientName, input.Phone)

	switch {
	case input.Latitude == nil || input.Longitude == nil:
		fields = append(fields, FieldError{Field: "location", Message: "location fix is required"})
	case *input.Latitude < -90 || *input.Latitude > 90:
		fields = append(fields, FieldError{Field: "latitude", Message: "latitude out of range"})
	case *input.Longitude < -180 || *input.Longitude > 180:
		fields = append(fields, FieldError{Field: "longitude", Message: "longitude out of range"})
	}

	fields = append(fields, validateNotes(input.DeliveryNotes, requireNotes)...)
	if len(fields) > 0 {
		return nil, invalidAddress(fields)
	}

	return &types.DeliveryAddress{
		Method:        types.AddressMethodLocated,
		RecipientName: strings.TrimSpace(input.RecipientName),
		Phone:         input.Phone,
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		City:          r.city,
	}, nil
}

// ResolveFromManualFields validates a typed street address.
func (r *Resolver) ResolveFromManualFields(input ManualInput, requireNotes bool) (*types.DeliveryAddress, error) {
	fields := validateContact(input.RecipientName, input.Phone)

	doorNo := strings.TrimSpace(input.DoorNo)
	street := strings.TrimSpace(input.Street)
	area := strings.TrimSpace(input.Area)
	city := strings.TrimSpace(input.City)
	pincode := strings.TrimSpace(input.Pincode)

	if doorNo == "" {
		fields = append(fields, FieldError{Field: "door_no", Message: "door number is required"})
	}
	if street == "" {
		fields = append(fields, FieldError{Field: "street", Message: "street is required"})
	}
	if area == "" {
		fields = append(fields, FieldError{Field: "area", Message: "area is required"})
	}
	if city != "" && !strings.EqualFold(city, r.city) {
		fields = append(fields, FieldError{Field: "city", Message: "delivery is limited to " + r.city})
	}
	switch {
	case pincode == "":
		fields = append(fields, FieldError{Field: "pincode", Message: "pincode is required"})
	case !pincodeDigits.MatchString(pincode):
		fields = append(fields, FieldError{Field: "pincode", Message: "pincode must be 6 digits"})
	case !strings.HasPrefix(pincode, r.pincodePrefix):
		fields = append(fields, FieldError{Field: "pincode", Message: "pincode is outside the delivery area"})
	}

	fields = append(fields, validateNotes(input.DeliveryNotes, requireNotes)...)
	if len(fields) > 0 {
		return nil, invalidAddress(fields)
	}

	return &types.DeliveryAddress{
		Method:        types.AddressMethodManual,
		RecipientName: strings.TrimSpace(input.RecipientName),
		Phone:         input.Phone,
		DoorNo:        doorNo,
		Street:        street,
		Area:          area,
		City:          r.city,
		Pincode:       pincode,
	}, nil
}

func validateContact(name, phone string) []FieldError {
	var fields []FieldError

	trimmed := strings.TrimSpace(name)
	switch {
	case len(trimmed) < 2 || len(trimmed) > 100:
		fields = append(fields, FieldError{Field: "recipient_name", Message: "name must be 2 to 100 characters"})
	case !isLettersAndSpaces(trimmed):
		fields = append(fields, FieldError{Field: "recipient_name", Message: "name may contain only letters and spaces"})
	}

	if !phonePattern.MatchString(phone) {
		fields = append(fields, FieldError{Field: "phone", Message: "phone must be a 10-digit Indian mobile number"})
	}
	return fields
}

func validateNotes(notes string, required bool) []FieldError {
	if required && strings.TrimSpace(notes) == "" {
		return []FieldError{{Field: "delivery_notes", Message: "delivery notes are required for cake orders"}}
	}
	return nil
}

func isLettersAndSpaces(value string) bool {
	for _, r := range value {
		if !unicode.IsLetter(r) && r != ' ' {
			return false
		}
	}
	return true
}

func invalidAddress(fields []FieldError) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "delivery address rejected").WithDetails(fields)
}
