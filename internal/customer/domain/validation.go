package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	FieldName            = "name"
	FieldCity            = "city"
	FieldAge             = "age"
	FieldPesel           = "pesel"
	FieldStreet          = "street"
	FieldApartmentNumber = "apartment_number"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Build validates the request against limits and returns the unsaved record.
// Surrounding whitespace is trimmed from text fields before validation.
func (r CreateCustomerRequest) Build(limits Limits) (Customer, error) {
	limits = limits.Clamp()

	var c checker
	customer := Customer{
		Name:            c.text(FieldName, r.Name, limits.NameMax),
		City:            c.text(FieldCity, r.City, limits.CityMax),
		Age:             c.age(r.Age, limits.AgeMax),
		Pesel:           c.text(FieldPesel, r.Pesel, limits.PeselMax),
		Street:          c.text(FieldStreet, r.Street, limits.StreetMax),
		ApartmentNumber: c.text(FieldApartmentNumber, r.ApartmentNumber, limits.ApartmentNumberMax),
	}
	if err := c.err(); err != nil {
		return Customer{}, err
	}
	return customer, nil
}

type checker struct {
	fields []FieldError
}

func (c *checker) fail(field string, err error) {
	c.fields = append(c.fields, FieldError{Field: field, Err: err})
}

func (c *checker) text(field string, value *string, max int) string {
	if value == nil {
		c.fail(field, ErrMissingField)
		return ""
	}
	v := strings.TrimSpace(*value)
	if err := validate.Var(v, fmt.Sprintf("required,max=%d", max)); err != nil {
		c.fail(field, classify(err))
	}
	return v
}

func (c *checker) age(value *int, max int) int {
	if value == nil {
		c.fail(FieldAge, ErrMissingField)
		return 0
	}
	if err := validate.Var(*value, fmt.Sprintf("gte=0,lte=%d", max)); err != nil {
		c.fail(FieldAge, classify(err))
	}
	return *value
}

func (c *checker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

func classify(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Tag() {
	case "required":
		return ErrMissingField
	case "max":
		return ErrTooLong
	case "gte", "lte", "min":
		return ErrOutOfRange
	default:
		return err
	}
}
