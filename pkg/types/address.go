package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is the flat delivery address snapshotted onto orders and kept in
// the customer's address book.
type Address struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
	Country string `json:"country" validate:"required"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (a Address) Trimmed() Address {
	return Address{
		Name:    strings.TrimSpace(a.Name),
		Phone:   strings.TrimSpace(a.Phone),
		Email:   strings.TrimSpace(a.Email),
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		Zip:     strings.TrimSpace(a.Zip),
		Country: strings.TrimSpace(a.Country),
	}
}

// Value stores the address as JSON.
func (a Address) Value() (driver.Value, error) {
	encoded, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}

// Scan decodes a JSON address column.
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("address: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(raw, a)
}
