package repositories

import (
	"context"
	"errors"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IVisitRepository reads scheduled visits. Create exists for seeding.
type IVisitRepository interface {
	Create(ctx context.Context, visit *models.Visit) error
	FindByPatientID(ctx context.Context, patientID string) ([]models.Visit, error)
	FindByDoctorID(ctx context.Context, doctorID string) ([]models.Visit, error)
}

// VisitRepository is the gorm implementation of IVisitRepository.
type VisitRepository struct {
	db *gorm.DB
}

func NewVisitRepository(db *gorm.DB) IVisitRepository {
	return &VisitRepository{db: db}
}

func (r *VisitRepository) Create(ctx context.Context, visit *models.Visit) error {
	if visit == nil || visit.PatientID == "" || visit.DoctorID == "" {
		return errors.New("visit needs both a patient and a doctor")
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(visit).Error
}

// FindByPatientID returns the patient's visits, earliest first.
func (r *VisitRepository) FindByPatientID(ctx context.Context, patientID string) ([]models.Visit, error) {
	return r.findBy(ctx, "patient_id = ?", patientID, "Doctor")
}

// FindByDoctorID returns the visits a doctor runs, earliest first.
func (r *VisitRepository) FindByDoctorID(ctx context.Context, doctorID string) ([]models.Visit, error) {
	return r.findBy(ctx, "doctor_id = ?", doctorID, "Patient")
}

func (r *VisitRepository) findBy(ctx context.Context, query, id, preload string) ([]models.Visit, error) {
	var visits []models.Visit
	if id == "" {
		return visits, nil
	}
	err := r.db.WithContext(ctx).
		Preload(preload).
		Where(query, id).
		Order("scheduled_at ASC").Order("id ASC").
		Find(&visits).Error
	if err != nil {
		configslog.Log.Error("VisitRepository.findBy: DB error", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	return visits, nil
}

var _ IVisitRepository = (*VisitRepository)(nil)
