package records

import (
	"context"
	"errors"
	"fmt"
)

// SeedSampleData loads a small demo dataset: three field definitions, three
// customers and a few notes. It does nothing when any customer already
// exists, and reports whether it wrote anything.
func SeedSampleData(ctx context.Context, repo Repository) (bool, error) {
	n, err := repo.CountCustomers(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	fields := []FieldDefinition{
		{Name: "company", Label: "Company", Type: FieldText, Order: 1},
		{Name: "position", Label: "Position", Type: FieldText, Order: 2},
		{Name: "department", Label: "Department", Type: FieldSelect, Order: 3,
			Options: []string{"Sales", "Marketing", "Engineering", "HR", "Finance"}},
	}
	for i := range fields {
		err := repo.CreateField(ctx, &fields[i])
		// Field definitions may have been set up by hand before any customer.
		if err != nil && !isFieldNameExists(err) {
			return false, fmt.Errorf("creating sample field %s: %w", fields[i].Name, err)
		}
	}

	samples := []struct {
		customer Customer
		notes    []string
	}{
		{
			customer: Customer{Name: "John Doe", Phone: "+1-555-0123", Email: strPtr("john.doe@example.com"),
				CustomFields: CustomFields{"company": "Acme Corp", "position": "Manager"}},
			notes: []string{"Called about the quarterly review.", "Prefers email follow-ups."},
		},
		{
			customer: Customer{Name: "Jane Smith", Phone: "+1-555-0456", Email: strPtr("jane.smith@example.com"),
				CustomFields: CustomFields{"company": "Tech Solutions", "position": "Developer"}},
			notes: []string{"Interested in the new service tier."},
		},
		{
			customer: Customer{Name: "Bob Johnson", Phone: "+1-555-0789",
				CustomFields: CustomFields{"company": "Global Industries", "position": "Director"}},
		},
	}
	for i := range samples {
		c := &samples[i].customer
		if err := repo.CreateCustomer(ctx, c); err != nil {
			return false, fmt.Errorf("creating sample customer %s: %w", c.Name, err)
		}
		for _, content := range samples[i].notes {
			if err := repo.CreateNote(ctx, &Note{CustomerID: c.ID, Content: content}); err != nil {
				return false, fmt.Errorf("creating sample note for %s: %w", c.Name, err)
			}
		}
	}
	return true, nil
}

func isFieldNameExists(err error) bool {
	return errors.Is(err, ErrFieldNameExists)
}

func strPtr(s string) *string { return &s }
