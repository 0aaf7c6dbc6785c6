package service

import (
	"errors"
	"fmt"

	"go-pos-backoffice/pkg/validator"

	"github.com/shopspring/decimal"
)

var (
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrSaleNotFound      = errors.New("sale not found")
	ErrInsufficientStock = errors.New("insufficient stock remaining")
	ErrEmptyCart         = errors.New("sale has no products")
	ErrProductInactive   = errors.New("product is not available for sale")
	ErrPriceChanged      = errors.New("product price has changed, please reload the sale form")
)

// ValidationError reports the first field of a request that failed validation.
type ValidationError struct {
	Field string
	Tag   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", e.Field, e.Tag)
}

func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return &ValidationError{Field: errs[0].FailedField, Tag: errs[0].Tag}
	}
	return nil
}

// checkMoney rejects negative amounts and amounts with fractions of a cent,
// which a DECIMAL(x,2) column would silently round.
func checkMoney(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return &ValidationError{Field: field, Tag: "gte"}
	}
	if !d.Equal(d.Round(2)) {
		return &ValidationError{Field: field, Tag: "cents"}
	}
	return nil
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrSaleNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsValidation reports whether err was caused by bad input rather than by the store.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrProductInactive) ||
		errors.Is(err, ErrPriceChanged)
}
