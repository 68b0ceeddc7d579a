package domain

import (
	"encoding/json"
	"math"
)

var peselKeys = []string{FieldPesel, "national_id"}

// FromAttributes converts loosely typed values (decoded JSON, form maps) into a request.
// Values are never coerced: text fields must hold strings and age must hold an integral number.
func FromAttributes(attrs map[string]any) (CreateCustomerRequest, error) {
	var c checker
	req := CreateCustomerRequest{
		Name:            c.stringAttr(FieldName, lookup(attrs, FieldName)),
		City:            c.stringAttr(FieldCity, lookup(attrs, FieldCity)),
		Age:             c.intAttr(FieldAge, lookup(attrs, FieldAge)),
		Pesel:           c.stringAttr(FieldPesel, lookup(attrs, peselKeys...)),
		Street:          c.stringAttr(FieldStreet, lookup(attrs, FieldStreet)),
		ApartmentNumber: c.stringAttr(FieldApartmentNumber, lookup(attrs, FieldApartmentNumber)),
	}
	if err := c.err(); err != nil {
		return CreateCustomerRequest{}, err
	}
	return req, nil
}

func lookup(attrs map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := attrs[key]; ok {
			return v
		}
	}
	return nil
}

func (c *checker) stringAttr(field string, value any) *string {
	if value == nil {
		c.fail(field, ErrMissingField)
		return nil
	}
	s, ok := value.(string)
	if !ok {
		c.fail(field, ErrTypeMismatch)
		return nil
	}
	return &s
}

func (c *checker) intAttr(field string, value any) *int {
	if value == nil {
		c.fail(field, ErrMissingField)
		return nil
	}
	n, err := asInt(value)
	if err != nil {
		c.fail(field, err)
		return nil
	}
	return &n
}

func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		if v > math.MaxInt || v < math.MinInt {
			return 0, ErrOutOfRange
		}
		return int(v), nil
	case uint:
		if uint64(v) > math.MaxInt {
			return 0, ErrOutOfRange
		}
		return int(v), nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		if v > math.MaxInt {
			return 0, ErrOutOfRange
		}
		return int(v), nil
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return asInt(i)
		}
		f, err := v.Float64()
		if err != nil {
			return 0, ErrTypeMismatch
		}
		return floatToInt(f)
	default:
		return 0, ErrTypeMismatch
	}
}

func floatToInt(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, ErrTypeMismatch
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, ErrOutOfRange
	}
	return int(f), nil
}
