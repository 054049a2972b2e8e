package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cleanpro-backend/models"
	"cleanpro-backend/services"
)

// CustomerDirectory is the GORM-backed customer/address lookup. The lifecycle
// engine only reads through this type; writes happen in the back-office CRUD.
type CustomerDirectory struct {
	db *gorm.DB
}

func NewCustomerDirectory(db *gorm.DB) *CustomerDirectory {
	return &CustomerDirectory{db: db}
}

var _ services.CustomerDirectory = (*CustomerDirectory)(nil)

func (d *CustomerDirectory) GetCustomer(ctx context.Context, id string) (*models.Customer, error) {
	var cust models.Customer
	err := d.db.WithContext(ctx).Preload("Addresses").First(&cust, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: customer %s", services.ErrNotFound, id)
		}
		return nil, err
	}
	return &cust, nil
}

func (d *CustomerDirectory) GetAddress(ctx context.Context, id string) (*models.Address, error) {
	var addr models.Address
	if err := d.db.WithContext(ctx).First(&addr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: address %s", services.ErrNotFound, id)
		}
		return nil, err
	}
	return &addr, nil
}

// CreditLedger deducts invoice credits from the customer's standing balance.
// The balance check and the deduction happen in one guarded UPDATE.
type CreditLedger struct {
	db *gorm.DB
}

func NewCreditLedger(db *gorm.DB) *CreditLedger {
	return &CreditLedger{db: db}
}

var _ services.CreditLedger = (*CreditLedger)(nil)

func (l *CreditLedger) DeductCredit(ctx context.Context, customerID string, amount float64) error {
	res := l.db.WithContext(ctx).Exec(
		`UPDATE customers SET credit_balance = credit_balance - ? WHERE id = ? AND credit_balance >= ?`,
		amount, customerID, amount)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := l.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", customerID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: customer %s", services.ErrNotFound, customerID)
		}
		return fmt.Errorf("%w: customer %s cannot cover %.2f", services.ErrInsufficientCredit, customerID, amount)
	}
	return nil
}

func (l *CreditLedger) RefundCredit(ctx context.Context, customerID string, amount float64) error {
	res := l.db.WithContext(ctx).Exec(
		`UPDATE customers SET credit_balance = credit_balance + ? WHERE id = ?`,
		amount, customerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: customer %s", services.ErrNotFound, customerID)
	}
	return nil
}
