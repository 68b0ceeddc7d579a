package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Customer is a library patron. Rows are insert-only: there is no update or delete path.
type Customer struct {
	ID              snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name            string       `gorm:"size:64;not null;uniqueIndex:ux_customers_name" json:"name"`
	City            string       `gorm:"size:64;not null;index:idx_customers_city" json:"city"`
	Age             int          `gorm:"not null;check:chk_customers_age,age >= 0" json:"age"`
	Pesel           string       `gorm:"size:11;not null" json:"pesel"`
	Street          string       `gorm:"size:64;not null" json:"street"`
	ApartmentNumber string       `gorm:"column:apartment_number;size:16;not null" json:"apartment_number"`
	CreatedAt       time.Time    `gorm:"not null" json:"created_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// NewCustomer builds a validated Customer from positional values using the column ceilings.
func NewCustomer(name, city string, age int, pesel, street, apartmentNumber string) (Customer, error) {
	req := CreateCustomerRequest{
		Name:            &name,
		City:            &city,
		Age:             &age,
		Pesel:           &pesel,
		Street:          &street,
		ApartmentNumber: &apartmentNumber,
	}
	return req.Build(Ceilings())
}

// Validate checks the record against limits without modifying it.
func (c *Customer) Validate(limits Limits) error {
	_, err := c.request().Build(limits)
	return err
}

// BeforeCreate rejects records that bypassed the constructor and stores the
// normalised text, so the row matches what was validated.
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	built, err := c.request().Build(Ceilings())
	if err != nil {
		return err
	}
	c.Name = built.Name
	c.City = built.City
	c.Age = built.Age
	c.Pesel = built.Pesel
	c.Street = built.Street
	c.ApartmentNumber = built.ApartmentNumber
	return nil
}

// Equal reports whether both values describe the same stored record.
func (c Customer) Equal(other Customer) bool {
	return c.ID == other.ID &&
		c.Name == other.Name &&
		c.City == other.City &&
		c.Age == other.Age &&
		c.Pesel == other.Pesel &&
		c.Street == other.Street &&
		c.ApartmentNumber == other.ApartmentNumber &&
		c.CreatedAt.Equal(other.CreatedAt)
}

func (c *Customer) request() CreateCustomerRequest {
	age := c.Age
	return CreateCustomerRequest{
		Name:            &c.Name,
		City:            &c.City,
		Age:             &age,
		Pesel:           &c.Pesel,
		Street:          &c.Street,
		ApartmentNumber: &c.ApartmentNumber,
	}
}
