package migrations

import (
	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MigratePatientHistoryTable creates or updates the patient_history table.
func MigratePatientHistoryTable(db *gorm.DB) error {
	configslog.SLog.Info("Migrating patients_history table...")
	if err := db.AutoMigrate(&models.PatientHistory{}); err != nil {
		configslog.Log.Error("Failed to migrate patients_history table", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Patients_history table migrated successfully")
	return nil
}
