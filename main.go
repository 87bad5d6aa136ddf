package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ktuligonine.lt/configs"
	"ktuligonine.lt/configs/configsdatabase"
	"ktuligonine.lt/configs/configslog"
	"ktuligonine.lt/database"
	"ktuligonine.lt/database/seeders"
	"ktuligonine.lt/pkg/imagestore"
	"ktuligonine.lt/pkg/passwordhash"
	"ktuligonine.lt/repositories"
	"ktuligonine.lt/routes"
	"ktuligonine.lt/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		configslog.Log.Error("server stopped with error", zap.Error(err))
		configslog.SyncLogger()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// repositorySet is the store the services run on.
type repositorySet struct {
	users   repositories.IUserRepository
	visits  repositories.IVisitRepository
	history repositories.IPatientHistoryRepository
	close   func()
}

func run() error {
	cfg, err := configs.Load()
	if err != nil {
		return err
	}
	if err := configslog.InitLogger(cfg.Env, cfg.LogLevel); err != nil {
		return err
	}
	defer configslog.SyncLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hasher := passwordhash.New(passwordhash.DefaultParams)
	repos, err := openRepositories(ctx, cfg, hasher)
	if err != nil {
		return err
	}
	defer repos.close()

	images, err := imagestore.NewDiskStore(cfg.UploadDir, cfg.MaxImageSize)
	if err != nil {
		return err
	}

	var sessionStorage fiber.Storage
	if cfg.Redis.Addr != "" {
		client, err := configs.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		storage := configs.NewRedisStorage(client)
		defer storage.Close()
		sessionStorage = storage
	}
	sessions := configs.SetupSession(cfg, sessionStorage)

	auth := services.NewAuthService(repos.users, hasher)
	svc := routes.Services{
		Auth:    auth,
		Account: services.NewAccountService(repos.users, repos.visits, hasher, images),
		History: services.NewHistoryService(auth, repos.history),
		Meeting: services.NewMeetingService(cfg.MeetingBaseURL, repos.users, cfg.MeetingRequireKnownPatient),
	}

	engine := html.New(cfg.ViewsDir, ".html")
	engine.Reload(cfg.IsDev())

	app := fiber.New(fiber.Config{
		AppName:               "ktuligonine",
		Views:                 engine,
		ErrorHandler:          routes.ErrorHandler,
		Immutable:             true, // form values are kept past the request
		BodyLimit:             int(cfg.MaxImageSize) + 1<<20,
		DisableStartupMessage: !cfg.IsDev(),
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	opts := routes.Options{
		Sessions:  sessions,
		StaticDir: cfg.StaticDir,
		AccessLog: true,
	}
	if cfg.CSRFEnabled {
		opts.CSRF = configs.SetupCSRF(cfg, sessions)
	}
	routes.SetupRoutes(app, svc, opts)

	listenErr := make(chan error, 1)
	go func() {
		configslog.Log.Info("HTTP server starting", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		listenErr <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	configslog.Log.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-listenErr; err != nil && !errors.Is(err, context.Canceled) {
		configslog.Log.Warn("listener closed with error", zap.Error(err))
	}
	return nil
}

func openRepositories(ctx context.Context, cfg *configs.AppConfig, hasher *passwordhash.Hasher) (*repositorySet, error) {
	if cfg.Database.Driver == configs.DriverMemory {
		configslog.Log.Warn("using the in-memory store; data is lost on exit")
		users := repositories.NewMemoryUserRepository()
		if err := seeders.SeedAdministrator(ctx, users, hasher, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return nil, err
		}
		return &repositorySet{
			users:   users,
			visits:  repositories.NewMemoryVisitRepository(users),
			history: repositories.NewMemoryPatientHistoryRepository(),
			close:   func() {},
		}, nil
	}

	db, err := configsdatabase.Open(cfg.Database, cfg.IsDev())
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := autoMigrate(ctx, db, cfg, hasher); err != nil {
			configsdatabase.Close(db)
			return nil, err
		}
	}
	return &repositorySet{
		users:   repositories.NewUserRepository(db),
		visits:  repositories.NewVisitRepository(db),
		history: repositories.NewPatientHistoryRepository(db),
		close:   func() { configsdatabase.Close(db) },
	}, nil
}

func autoMigrate(ctx context.Context, db *gorm.DB, cfg *configs.AppConfig, hasher *passwordhash.Hasher) error {
	return database.Initialize(ctx, db, true, cfg.AdminEmail != "", database.SeedOptions{
		Hasher:        hasher,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
	})
}
