package records

import "errors"

var (
	// ErrInvalidInput is returned when a record fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCustomerNotFound is returned when a customer ID does not exist.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrFieldNotFound is returned when a field definition ID does not exist.
	ErrFieldNotFound = errors.New("field not found")

	// ErrFieldNameExists is returned when a field definition name is already taken.
	ErrFieldNameExists = errors.New("field name already exists")

	// ErrNoteNotFound is returned when a note ID does not exist.
	ErrNoteNotFound = errors.New("note not found")
)
