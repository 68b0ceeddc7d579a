package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	customerdomain "github.com/smallbiznis/booklib/internal/customer/domain"
	"github.com/smallbiznis/booklib/internal/ratelimit"
	"gorm.io/gorm"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		typ    string
	}{
		{"nil", nil, http.StatusInternalServerError, "internal_error"},
		{"duplicate", customerdomain.ErrDuplicateName, http.StatusConflict, "conflict"},
		{"wrapped duplicate", fmt.Errorf("create: %w", customerdomain.ErrDuplicateName), http.StatusConflict, "conflict"},
		{"not found", customerdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"gorm not found", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"invalid name", customerdomain.ErrInvalidName, http.StatusBadRequest, "validation_error"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"limiter down", ratelimit.ErrUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			if status != tc.status || payload.Type != tc.typ {
				t.Fatalf("expected %d/%s, got %d/%s", tc.status, tc.typ, status, payload.Type)
			}
		})
	}
}

func TestMapErrorListsEveryRejectedField(t *testing.T) {
	err := &customerdomain.ValidationError{Fields: []customerdomain.FieldError{
		{Field: customerdomain.FieldCity, Err: customerdomain.ErrTooLong},
		{Field: customerdomain.FieldAge, Err: customerdomain.ErrOutOfRange},
	}}

	status, payload := mapError(err)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if len(payload.Errors) != 2 {
		t.Fatalf("expected 2 field errors, got %d", len(payload.Errors))
	}
	if payload.Errors[0].Code != "too_long" || payload.Errors[0].Message != "is too long" {
		t.Fatalf("unexpected first error: %+v", payload.Errors[0])
	}
	if payload.Errors[1].Field != "age" || payload.Errors[1].Code != "out_of_range" {
		t.Fatalf("unexpected second error: %+v", payload.Errors[1])
	}
}

func TestMapErrorDoesNotEchoInternalDetails(t *testing.T) {
	_, payload := mapError(errors.New("pq: relation \"customers\" does not exist"))
	if payload.Message != "internal server error" {
		t.Fatalf("internal error leaked: %q", payload.Message)
	}
}
