package database

import (
	"fmt"

	"gorm.io/gorm"

	"cleanpro-backend/models"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns)
// - Money column types (NUMERIC(12,2))
// - Basic CHECK constraints
// - Seed row for the invoice-number counter
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		// --- AutoMigrate tables/columns/index tags (non-destructive) ---
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Customer{},
			&models.Address{},
			&models.Appointment{},
			&models.Invoice{},
			&models.Counter{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE customers ALTER COLUMN credit_balance TYPE numeric(12,2)`,
			`ALTER TABLE invoices  ALTER COLUMN subtotal       TYPE numeric(12,2)`,
			`ALTER TABLE invoices  ALTER COLUMN tax_amount     TYPE numeric(12,2)`,
			`ALTER TABLE invoices  ALTER COLUMN total          TYPE numeric(12,2)`,
			`ALTER TABLE invoices  ALTER COLUMN credit_applied TYPE numeric(12,2)`,
			`ALTER TABLE invoices  ALTER COLUMN refund_amount  TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'invoices'::regclass
					  AND conname  = 'chk_invoices_tax_rate_nonneg'
				) THEN
					ALTER TABLE invoices
					ADD CONSTRAINT chk_invoices_tax_rate_nonneg
					CHECK (tax_rate >= 0);
				END IF;
			END $$;`,
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'customers'::regclass
					  AND conname  = 'chk_customers_credit_nonneg'
				) THEN
					ALTER TABLE customers
					ADD CONSTRAINT chk_customers_credit_nonneg
					CHECK (credit_balance >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		// --- Seed the invoice-number counter (no-op when present) ---
		seed := `INSERT INTO counters (name, value) VALUES (?, 0) ON CONFLICT (name) DO NOTHING`
		if err := tx.Exec(seed, models.InvoiceNumberCounter).Error; err != nil {
			return fmt.Errorf("counter seed failed: %w", err)
		}

		return nil
	})
}
