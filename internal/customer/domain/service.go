package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/booklib/pkg/db/pagination"
)

// CreateCustomerRequest carries the six customer fields. A nil pointer means the value is absent.
type CreateCustomerRequest struct {
	Name            *string
	City            *string
	Age             *int
	Pesel           *string
	Street          *string
	ApartmentNumber *string
}

type GetCustomerRequest struct {
	Name string
}

type ListCustomerRequest struct {
	PageToken string
	PageSize  int32
	City      string
}

type ListCustomerFilter struct {
	City string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Total     int64      `json:"total"`
	Customers []Customer `json:"customers"`
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	GetByName(context.Context, GetCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
}

var (
	ErrMissingField     = errors.New("missing_field")
	ErrTypeMismatch     = errors.New("type_mismatch")
	ErrOutOfRange       = errors.New("out_of_range")
	ErrTooLong          = errors.New("too_long")
	ErrDuplicateName    = errors.New("duplicate_name")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)

// FieldError ties one of the sentinel errors to the field that caused it.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError lists every field rejected by a single validation pass.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for i := range e.Fields {
		parts = append(parts, e.Fields[i].Error())
	}
	return "invalid customer: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Fields))
	for i := range e.Fields {
		errs = append(errs, &e.Fields[i])
	}
	return errs
}
