package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cleanpro-backend/models"
	"cleanpro-backend/services"
)

// AppointmentRepository is the GORM-backed appointment store.
type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

var _ services.AppointmentRepository = (*AppointmentRepository)(nil)

func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	return r.db.WithContext(ctx).Create(appt).Error
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := r.db.WithContext(ctx).First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: appointment %s", services.ErrNotFound, id)
		}
		return nil, err
	}
	return &appt, nil
}

// Update writes the full row guarded by the version read earlier. Zero rows
// affected means another writer got there first.
func (r *AppointmentRepository) Update(ctx context.Context, appt *models.Appointment) error {
	expected := appt.Version
	appt.Version = expected + 1
	res := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ? AND version = ?", appt.Id, expected).
		Select("*").Omit("id", "created_at").
		Updates(appt)
	if res.Error != nil {
		appt.Version = expected
		return res.Error
	}
	if res.RowsAffected == 0 {
		appt.Version = expected
		return fmt.Errorf("%w: appointment %s", services.ErrConflict, appt.Id)
	}
	return nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Appointment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: appointment %s", services.ErrNotFound, id)
	}
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context) ([]models.Appointment, error) {
	var out []models.Appointment
	if err := r.db.WithContext(ctx).Order("date, start_time").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
