package store

import (
	"strings"

	"labtrack/internal/models"
)

const customersDocument = "customers"

type CustomerStore struct {
	col *Collection[models.Customer, *models.Customer]
}

func NewCustomerStore(b Backend) *CustomerStore {
	return &CustomerStore{
		col: NewCollection[models.Customer](b, customersDocument, MonotonicCounter{}),
	}
}

func (s *CustomerStore) List() ([]models.Customer, error) {
	return s.col.List()
}

func (s *CustomerStore) Count() (int, error) {
	return s.col.Count()
}

func (s *CustomerStore) Get(id int) (*models.Customer, error) {
	return s.col.Get(id)
}

// Names maps customer ids to display names.
func (s *CustomerStore) Names() (map[int]string, error) {
	customers, err := s.col.List()
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	return names, nil
}

func (s *CustomerStore) Create(c models.Customer) (int, error) {
	if err := validateCustomer(&c); err != nil {
		return 0, err
	}
	return s.col.Create(c)
}

func (s *CustomerStore) Update(id int, c models.Customer) (bool, error) {
	if err := validateCustomer(&c); err != nil {
		return false, err
	}
	return s.col.Update(id, func(existing *models.Customer) {
		existing.Name = c.Name
		existing.Organization = c.Organization
		existing.Phone = c.Phone
		existing.Address = c.Address
		existing.Note = c.Note
	})
}

func (s *CustomerStore) Delete(id int) (bool, error) {
	return s.col.Delete(id)
}

func validateCustomer(c *models.Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Organization = strings.TrimSpace(c.Organization)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.Note = strings.TrimSpace(c.Note)
	if c.Name == "" {
		return &ValidationError{Field: "name", Message: "customer name is required"}
	}
	return nil
}
