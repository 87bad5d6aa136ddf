package main

import (
	"context"
	"fmt"
	"os"

	"ktuligonine.lt/configs"
	"ktuligonine.lt/configs/configsdatabase"
	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/database"
	"ktuligonine.lt/pkg/passwordhash"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbtool",
		Short:         "Database migrations and seeding for the clinic portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newRunCmd("migrate", "Create or update the tables", true, false),
		newRunCmd("seed", "Create the administrator account from ADMIN_EMAIL / ADMIN_PASSWORD", false, true),
		newRunCmd("init", "Migrate, then seed", true, true),
	)
	return root
}

func newRunCmd(use, short string, migrate, seed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), migrate, seed)
		},
	}
}

func run(ctx context.Context, migrate, seed bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := configs.Load()
	if err != nil {
		return err
	}
	if err := configslog.InitLogger(cfg.Env, cfg.LogLevel); err != nil {
		return err
	}
	defer configslog.SyncLogger()

	if cfg.Database.Driver != configs.DriverPostgres {
		return fmt.Errorf("dbtool needs DB_DRIVER=%s, got %q", configs.DriverPostgres, cfg.Database.Driver)
	}
	db, err := configsdatabase.Open(cfg.Database, cfg.IsDev())
	if err != nil {
		return err
	}
	defer configsdatabase.Close(db)

	return database.Initialize(ctx, db, migrate, seed, database.SeedOptions{
		Hasher:        passwordhash.New(passwordhash.DefaultParams),
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
}
