package domain

import "fmt"

// Limits bounds the customer fields. Text limits count Unicode code points.
type Limits struct {
	NameMax            int `mapstructure:"name_max" json:"name_max"`
	CityMax            int `mapstructure:"city_max" json:"city_max"`
	PeselMax           int `mapstructure:"pesel_max" json:"pesel_max"`
	StreetMax          int `mapstructure:"street_max" json:"street_max"`
	ApartmentNumberMax int `mapstructure:"apartment_number_max" json:"apartment_number_max"`
	AgeMax             int `mapstructure:"age_max" json:"age_max"`
}

// Ceilings returns the largest limits the customers table can hold.
func Ceilings() Limits {
	return Limits{
		NameMax:            64,
		CityMax:            64,
		PeselMax:           11,
		StreetMax:          64,
		ApartmentNumberMax: 16,
		AgeMax:             150,
	}
}

// Clamp replaces unset or oversized limits with the ceilings.
func (l Limits) Clamp() Limits {
	c := Ceilings()
	return Limits{
		NameMax:            clamp(l.NameMax, c.NameMax),
		CityMax:            clamp(l.CityMax, c.CityMax),
		PeselMax:           clamp(l.PeselMax, c.PeselMax),
		StreetMax:          clamp(l.StreetMax, c.StreetMax),
		ApartmentNumberMax: clamp(l.ApartmentNumberMax, c.ApartmentNumberMax),
		AgeMax:             clamp(l.AgeMax, c.AgeMax),
	}
}

// Validate rejects negative limits. Zero means "use the ceiling".
func (l Limits) Validate() error {
	values := map[string]int{
		"name_max":             l.NameMax,
		"city_max":             l.CityMax,
		"pesel_max":            l.PeselMax,
		"street_max":           l.StreetMax,
		"apartment_number_max": l.ApartmentNumberMax,
		"age_max":              l.AgeMax,
	}
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("customer limit %s cannot be negative: %d", key, value)
		}
	}
	return nil
}

func clamp(value, ceiling int) int {
	if value <= 0 || value > ceiling {
		return ceiling
	}
	return value
}
