package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/booklib/internal/customer/domain"
	"github.com/smallbiznis/booklib/internal/ratelimit"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if cErr := asCustomerValidationError(err); cErr != nil {
		errs := make([]ValidationError, 0, len(cErr.Fields))
		for _, f := range cErr.Fields {
			errs = append(errs, ValidationError{
				Field:   f.Field,
				Code:    f.Err.Error(),
				Message: fieldErrorMessage(f.Err),
			})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  errs,
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return badRequest("request", "invalid_request", "invalid request")
	case errors.Is(err, customerdomain.ErrInvalidName):
		return badRequest("name", "invalid_name", "invalid name")
	case errors.Is(err, customerdomain.ErrInvalidPageToken):
		return badRequest("page_token", "invalid_page_token", "invalid page token")
	case errors.Is(err, ErrConflict),
		errors.Is(err, customerdomain.ErrDuplicateName):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "customer name already registered",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, ratelimit.ErrUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog returns the response type and the first field code.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := ""
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func badRequest(field, code, message string) (int, errorPayload) {
	return http.StatusBadRequest, errorPayload{
		Type:    "validation_error",
		Message: "validation error",
		Errors:  []ValidationError{{Field: field, Code: code, Message: message}},
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func asCustomerValidationError(err error) *customerdomain.ValidationError {
	var vErr *customerdomain.ValidationError
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func fieldErrorMessage(err error) string {
	switch {
	case errors.Is(err, customerdomain.ErrMissingField):
		return "is required"
	case errors.Is(err, customerdomain.ErrTypeMismatch):
		return "has the wrong type"
	case errors.Is(err, customerdomain.ErrOutOfRange):
		return "is out of range"
	case errors.Is(err, customerdomain.ErrTooLong):
		return "is too long"
	default:
		return "invalid value"
	}
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, customerdomain.ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}
