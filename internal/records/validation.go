package records

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxNameLength        = 200
	maxPhoneLength       = 50
	maxEmailLength       = 254
	maxFieldNameLength   = 64
	maxLabelLength       = 100
	maxOptions           = 100
	maxOptionLength      = 100
	maxNoteLength        = 10000
	maxCustomFieldKeys   = 100
	maxCustomValueLength = 4096
	maxNestingDepth      = 5
)

var fieldNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateCustomer checks a customer about to be created.
func ValidateCustomer(c *Customer) error {
	if err := validateRequired("name", c.Name, maxNameLength); err != nil {
		return err
	}
	if err := validateRequired("phone", c.Phone, maxPhoneLength); err != nil {
		return err
	}
	if c.Email != nil {
		if err := validateEmail(*c.Email); err != nil {
			return err
		}
	}
	return ValidateCustomFields(c.CustomFields)
}

// ValidateCustomerPatch checks the supplied attributes of a partial update.
func ValidateCustomerPatch(p CustomerPatch) error {
	if p.Name != nil {
		if err := validateRequired("name", *p.Name, maxNameLength); err != nil {
			return err
		}
	}
	if p.Phone != nil {
		if err := validateRequired("phone", *p.Phone, maxPhoneLength); err != nil {
			return err
		}
	}
	if p.Email != nil {
		if err := validateEmail(*p.Email); err != nil {
			return err
		}
	}
	return ValidateCustomFields(p.CustomFields)
}

// ValidateCustomFields bounds the size of a customer's custom field values.
func ValidateCustomFields(cf CustomFields) error {
	if cf == nil {
		return nil
	}
	if len(cf) > maxCustomFieldKeys {
		return fmt.Errorf("%w: customFields exceeds %d keys", ErrInvalidInput, maxCustomFieldKeys)
	}
	return validateMapSize(cf, 0)
}

func validateMapSize(m map[string]any, depth int) error {
	if depth > maxNestingDepth {
		return fmt.Errorf("%w: customFields exceeds maximum nesting depth", ErrInvalidInput)
	}
	for k, v := range m {
		if len(k) > maxFieldNameLength {
			return fmt.Errorf("%w: customFields key too long", ErrInvalidInput)
		}
		if err := validateValueSize(v, depth); err != nil {
			return err
		}
	}
	return nil
}

func validateValueSize(v any, depth int) error {
	switch val := v.(type) {
	case string:
		if len(val) > maxCustomValueLength {
			return fmt.Errorf("%w: customFields value exceeds %d characters", ErrInvalidInput, maxCustomValueLength)
		}
	case map[string]any:
		return validateMapSize(val, depth+1)
	case []any:
		for _, item := range val {
			if err := validateValueSize(item, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateField checks a field definition before it is created or replaced.
func ValidateField(f *FieldDefinition) error {
	f.Name = strings.TrimSpace(f.Name)
	f.Label = strings.TrimSpace(f.Label)

	if f.Name == "" || f.Label == "" || f.Type == "" {
		return fmt.Errorf("%w: name, label, and type are required", ErrInvalidInput)
	}
	if len(f.Name) > maxFieldNameLength || !fieldNameRegex.MatchString(f.Name) {
		return fmt.Errorf("%w: name must start with a letter and contain only letters, digits and underscores (max %d)",
			ErrInvalidInput, maxFieldNameLength)
	}
	if len(f.Label) > maxLabelLength {
		return fmt.Errorf("%w: label exceeds %d characters", ErrInvalidInput, maxLabelLength)
	}
	if !IsValidFieldType(f.Type) {
		return fmt.Errorf("%w: unknown field type %q", ErrInvalidInput, f.Type)
	}
	if f.Order < 0 {
		return fmt.Errorf("%w: order cannot be negative", ErrInvalidInput)
	}

	if len(f.Options) > maxOptions {
		return fmt.Errorf("%w: too many options (max %d)", ErrInvalidInput, maxOptions)
	}
	for _, opt := range f.Options {
		if strings.TrimSpace(opt) == "" || len(opt) > maxOptionLength {
			return fmt.Errorf("%w: options must be non-empty and at most %d characters", ErrInvalidInput, maxOptionLength)
		}
	}
	if f.Type == FieldSelect && len(f.Options) == 0 {
		return fmt.Errorf("%w: select fields need at least one option", ErrInvalidInput)
	}
	return nil
}

// ValidateNote checks a note about to be created.
func ValidateNote(n *Note) error {
	if strings.TrimSpace(n.Content) == "" || strings.TrimSpace(n.CustomerID) == "" {
		return fmt.Errorf("%w: content and customerId are required", ErrInvalidInput)
	}
	if len(n.Content) > maxNoteLength {
		return fmt.Errorf("%w: content exceeds %d characters", ErrInvalidInput, maxNoteLength)
	}
	return nil
}

func validateRequired(field, value string, maxLen int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	if len(value) > maxLen {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidInput, field, maxLen)
	}
	return nil
}

// validateEmail accepts an empty address (no email on file) or anything
// with a non-empty local part and domain.
func validateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("%w: email exceeds %d characters", ErrInvalidInput, maxEmailLength)
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.ContainsAny(email, " \t\r\n") {
		return fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
	}
	return nil
}
