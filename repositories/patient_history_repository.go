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

// IPatientHistoryRepository reads diagnosis history. Create exists for seeding.
type IPatientHistoryRepository interface {
	Create(ctx context.Context, entry *models.PatientHistory) error
	// FindAllByPatientID orders newest first (date DESC, id DESC).
	FindAllByPatientID(ctx context.Context, patientID string) ([]models.PatientHistory, error)
}

// PatientHistoryRepository is the gorm implementation of IPatientHistoryRepository.
type PatientHistoryRepository struct {
	db *gorm.DB
}

func NewPatientHistoryRepository(db *gorm.DB) IPatientHistoryRepository {
	return &PatientHistoryRepository{db: db}
}

func (r *PatientHistoryRepository) Create(ctx context.Context, entry *models.PatientHistory) error {
	if entry == nil || entry.PatientID == "" {
		return errors.New("history entry needs a patient")
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(entry).Error
}

func (r *PatientHistoryRepository) FindAllByPatientID(ctx context.Context, patientID string) ([]models.PatientHistory, error) {
	var entries []models.PatientHistory
	if patientID == "" {
		return entries, nil
	}
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("date DESC").Order("id DESC").
		Find(&entries).Error
	if err != nil {
		configslog.Log.Error("PatientHistoryRepository.FindAllByPatientID: DB error", zap.String("patientID", patientID), zap.Error(err))
		return nil, err
	}
	return entries, nil
}

var _ IPatientHistoryRepository = (*PatientHistoryRepository)(nil)
