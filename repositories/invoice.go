package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cleanpro-backend/models"
	"cleanpro-backend/services"
)

// InvoiceRepository is the GORM-backed invoice store. Line items live as an
// embedded JSON list on the invoice row, so every update is a single-row
// write and the derived totals land together with the items.
type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

var _ services.InvoiceRepository = (*InvoiceRepository)(nil)

func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *InvoiceRepository) Get(ctx context.Context, id string) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %s", services.ErrNotFound, id)
		}
		return nil, err
	}
	return &inv, nil
}

// Update writes the full row guarded by the version read earlier. Zero rows
// affected means another writer got there first.
func (r *InvoiceRepository) Update(ctx context.Context, inv *models.Invoice) error {
	expected := inv.Version
	inv.Version = expected + 1
	res := r.db.WithContext(ctx).
		Model(&models.Invoice{}).
		Where("id = ? AND version = ?", inv.Id, expected).
		Select("*").Omit("id", "created_at").
		Updates(inv)
	if res.Error != nil {
		inv.Version = expected
		return res.Error
	}
	if res.RowsAffected == 0 {
		inv.Version = expected
		return fmt.Errorf("%w: invoice %s", services.ErrConflict, inv.Id)
	}
	return nil
}

func (r *InvoiceRepository) List(ctx context.Context) ([]models.Invoice, error) {
	var out []models.Invoice
	if err := r.db.WithContext(ctx).Order("invoice_number").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
