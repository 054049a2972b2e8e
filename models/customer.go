package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is a service customer. The lifecycle engine reads this record to
// populate appointments and invoices; only the back-office CRUD writes it.
type Customer struct {
	Id        string `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name" gorm:"not null"`
	LastName  string `json:"last_name" gorm:"not null"`
	Email     string `json:"email" gorm:"unique;not null"`
	Phone     string `json:"phone"`

	// CreditBalance backs the credit ledger used by invoice credit application.
	CreditBalance float64 `json:"credit_balance" gorm:"type:numeric(12,2)"`

	Addresses []Address `json:"addresses" gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if c.Id == "" {
		c.Id = uuid.NewString()
	}
	return
}

// Name is the customer's display name used in filters and notifications.
func (c *Customer) Name() string {
	return c.FirstName + " " + c.LastName
}

// Address is a service address belonging to a customer.
type Address struct {
	Id         string `json:"id" gorm:"primaryKey"`
	CustomerID string `json:"-" gorm:"index;not null"`
	Street     string `json:"street" gorm:"not null"`
	Unit       string `json:"unit"`
	City       string `json:"city" gorm:"not null"`
	State      string `json:"state" gorm:"not null"`
	Zip        string `json:"zip" gorm:"not null"`
	IsPrimary  bool   `json:"is_primary"`
}

func (a *Address) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if a.Id == "" {
		a.Id = uuid.NewString()
	}
	return
}
