// Package records stores the reception desk's working data: customers,
// the administrator-defined custom fields shown on the customer form, and
// free-text notes attached to a customer.
//
// All three live in SQLite alongside the auth tables. Customers carry their
// custom field values as a JSON object; field definitions describe how the
// frontend renders and validates those values but the store does not
// enforce them against customer data.
//
// Ordering:
//   - customers: newest first
//   - fields: by order, then name
//   - notes: newest first, per customer
//
// Deleting a customer cascades to its notes.
package records
