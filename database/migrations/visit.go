package migrations

import (
	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MigrateVisitsTable needs the users table; both user references are
// foreign keys.
func MigrateVisitsTable(db *gorm.DB) error {
	configslog.SLog.Info("Migrating user_visits table...")
	if err := db.AutoMigrate(&models.Visit{}); err != nil {
		configslog.Log.Error("Failed to migrate user_visits table", zap.Error(err))
		return err
	}
	configslog.SLog.Info("User_visits table migrated successfully")
	return nil
}
