package database

import (
	"context"
	"errors"

	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/database/migrations"
	"ktuligonine.lt/database/seeders"
	"ktuligonine.lt/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedOptions are the inputs of the seeders.
type SeedOptions struct {
	Hasher        seeders.Hasher
	AdminEmail    string
	AdminPassword string
}

// Initialize runs the migrations and/or seeders in one transaction.
func Initialize(ctx context.Context, db *gorm.DB, migrate, seed bool, opts SeedOptions) error {
	if !migrate && !seed {
		configslog.SLog.Info("Nothing to do: neither migrate nor seed requested.")
		return nil
	}

	configslog.SLog.Info("Database initialization started...")
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if migrate {
			if err := RunMigrationsInOrder(tx); err != nil {
				return err
			}
		}
		if seed {
			if err := RunSeeders(ctx, tx, opts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		configslog.Log.Error("Database initialization rolled back", zap.Error(err))
		return err
	}
	configslog.SLog.Info("Database initialization finished successfully")
	return nil
}

// RunMigrationsInOrder creates the tables in dependency order.
func RunMigrationsInOrder(db *gorm.DB) error {
	steps := []struct {
		name string
		run  func(*gorm.DB) error
	}{
		{"users", migrations.MigrateUsersTable},
		{"user_visits", migrations.MigrateVisitsTable},
		{"patients_history", migrations.MigratePatientHistoryTable},
	}
	for _, step := range steps {
		configslog.SLog.Infof(" -> migrating %s", step.name)
		if err := step.run(db); err != nil {
			return err
		}
	}
	configslog.SLog.Info("All migrations completed.")
	return nil
}

// RunSeeders fills the data the portal cannot create through its own pages.
func RunSeeders(ctx context.Context, db *gorm.DB, opts SeedOptions) error {
	if opts.AdminEmail != "" && opts.Hasher == nil {
		return errors.New("administrator seeding needs a password hasher")
	}
	users := repositories.NewUserRepositoryTx(db)
	if err := seeders.SeedAdministrator(ctx, users, opts.Hasher, opts.AdminEmail, opts.AdminPassword); err != nil {
		configslog.Log.Error("Administrator seeding failed", zap.Error(err))
		return err
	}
	configslog.SLog.Info("All seeders completed.")
	return nil
}
