package records

import (
	"slices"
	"time"
)

// CustomFields holds a customer's values for administrator-defined fields,
// keyed by FieldDefinition.Name.
type CustomFields map[string]any

// Customer is a person the front desk deals with.
type Customer struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	Email        *string      `json:"email"`
	CustomFields CustomFields `json:"customFields"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// CustomerPatch lists the customer attributes to change. Nil fields are left
// untouched. An Email pointing at an empty string clears the address.
type CustomerPatch struct {
	Name         *string      `json:"name"`
	Phone        *string      `json:"phone"`
	Email        *string      `json:"email"`
	CustomFields CustomFields `json:"customFields"`
}

// Empty reports whether the patch changes nothing.
func (p CustomerPatch) Empty() bool {
	return p.Name == nil && p.Phone == nil && p.Email == nil && p.CustomFields == nil
}

// FieldType is how a custom field is rendered and validated by the frontend.
type FieldType string

// Field types.
const (
	FieldText     FieldType = "text"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldPhone    FieldType = "phone"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldTextarea FieldType = "textarea"
)

// ValidFieldTypes lists every supported field type.
var ValidFieldTypes = []FieldType{
	FieldText, FieldNumber, FieldEmail, FieldPhone, FieldDate, FieldSelect, FieldTextarea,
}

// IsValidFieldType reports whether t is a supported field type.
func IsValidFieldType(t FieldType) bool {
	return slices.Contains(ValidFieldTypes, t)
}

// FieldDefinition describes one custom field on the customer form.
type FieldDefinition struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	Options   []string  `json:"options"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Note is a free-text entry attached to a customer.
type Note struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
