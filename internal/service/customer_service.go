package service

import (
	"errors"
	"strings"

	"go-pos-backoffice/internal/model"
	"go-pos-backoffice/internal/repository"
	"go-pos-backoffice/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerService interface {
	ListCustomers() ([]model.Customer, error)
	GetCustomer(id uuid.UUID) (*model.Customer, error)
	CreateCustomer(req *model.Customer, userID string) error
	UpdateCustomer(id uuid.UUID, req *model.Customer, userID string) (*model.Customer, error)
	DeleteCustomer(id uuid.UUID, userID string) error
	Options() ([]model.SelectOption, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	phoneRegion  string
}

// NewCustomerService validates phone numbers against phoneRegion (ISO 3166 alpha-2). An empty region
// disables the check.
func NewCustomerService(customerRepo repository.CustomerRepository, phoneRegion string) CustomerService {
	return &customerService{customerRepo: customerRepo, phoneRegion: strings.ToUpper(phoneRegion)}
}

func (s *customerService) normalise(c *model.Customer) error {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	if err := validate(c); err != nil {
		return err
	}
	if c.Phone == "" || s.phoneRegion == "" {
		return nil
	}
	formatted, err := validator.FormatPhoneNumber(c.Phone, s.phoneRegion)
	if err != nil {
		return &ValidationError{Field: "Customer.Phone", Tag: "phone"}
	}
	c.Phone = formatted
	return nil
}

func (s *customerService) ListCustomers() ([]model.Customer, error) {
	return s.customerRepo.FindAll()
}

func (s *customerService) GetCustomer(id uuid.UUID) (*model.Customer, error) {
	c, err := s.customerRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	return c, err
}

func (s *customerService) CreateCustomer(req *model.Customer, userID string) error {
	if err := s.normalise(req); err != nil {
		return err
	}
	req.CreatedBy = userID
	req.UpdatedBy = userID
	return s.customerRepo.Create(req)
}

func (s *customerService) UpdateCustomer(id uuid.UUID, req *model.Customer, userID string) (*model.Customer, error) {
	existing, err := s.GetCustomer(id)
	if err != nil {
		return nil, err
	}
	existing.FirstName = req.FirstName
	existing.LastName = req.LastName
	existing.Address = req.Address
	existing.Email = req.Email
	existing.Phone = req.Phone
	existing.UpdatedBy = userID
	if err := s.normalise(existing); err != nil {
		return nil, err
	}
	if err := s.customerRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *customerService) DeleteCustomer(id uuid.UUID, userID string) error {
	if _, err := s.GetCustomer(id); err != nil {
		return err
	}
	return s.customerRepo.Delete(id, userID)
}

func (s *customerService) Options() ([]model.SelectOption, error) {
	customers, err := s.customerRepo.FindAll()
	if err != nil {
		return nil, err
	}
	options := make([]model.SelectOption, len(customers))
	for i := range customers {
		options[i] = customers[i].ToSelectOption()
	}
	return options, nil
}
