package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"cleanpro-backend/models"
	"cleanpro-backend/services"
)

// InvoiceNumberAllocator hands out sequential invoice numbers from a
// store-side counter row. The upsert bumps and reads in one statement, so
// concurrent creations never see the same value.
type InvoiceNumberAllocator struct {
	db *gorm.DB
}

func NewInvoiceNumberAllocator(db *gorm.DB) *InvoiceNumberAllocator {
	return &InvoiceNumberAllocator{db: db}
}

var _ services.InvoiceNumberAllocator = (*InvoiceNumberAllocator)(nil)

func (a *InvoiceNumberAllocator) NextInvoiceNumber(ctx context.Context) (string, error) {
	var value int64
	err := a.db.WithContext(ctx).Raw(
		`INSERT INTO counters (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		 RETURNING value`,
		models.InvoiceNumberCounter).Scan(&value).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%05d", value), nil
}
