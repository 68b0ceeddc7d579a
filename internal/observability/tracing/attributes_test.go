package tracing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsCustomerFields(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("http.route", "/api/customers"),
		attribute.String("pesel", "12345678901"),
		attribute.String("name", "Michal"),
		attribute.Int("http.status_code", 201),
	)
	require.Len(t, attrs, 2)
	for _, attr := range attrs {
		require.NotEqual(t, attribute.Key("pesel"), attr.Key)
		require.NotEqual(t, attribute.Key("name"), attr.Key)
	}
}

func TestSafeErrorReturnsRootCause(t *testing.T) {
	root := errors.New("connection refused")
	wrapped := fmt.Errorf("insert customer %q: %w", "Michal", root)

	got := SafeError(wrapped)
	require.EqualError(t, got, "connection refused")
	require.Nil(t, SafeError(nil))
}
