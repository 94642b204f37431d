package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/techroom/internal/app/controllers"
	appMigrations "github.com/yigit/techroom/internal/app/migrations"
	appRepos "github.com/yigit/techroom/internal/app/repositories"
	"github.com/yigit/techroom/internal/app/repositories/memory"
	pgstore "github.com/yigit/techroom/internal/app/repositories/postgres"
	sqlitestore "github.com/yigit/techroom/internal/app/repositories/sqlite"
	appRoutes "github.com/yigit/techroom/internal/app/routes"
	appServices "github.com/yigit/techroom/internal/app/services"
	"github.com/yigit/techroom/internal/config"
	"github.com/yigit/techroom/internal/db"
	appMiddleware "github.com/yigit/techroom/internal/middleware"
	pkgAuth "github.com/yigit/techroom/internal/pkg/auth"
	"github.com/yigit/techroom/internal/pkg/logger"
	"github.com/yigit/techroom/internal/pkg/validation"
	"github.com/yigit/techroom/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store       appRepos.RecordStore
	Services    *appServices.Services
	Controllers *appControllers.Controllers
	Logger      zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// RunMigrations applies pending schema migrations for SQL backends
func RunMigrations(cfg *config.Config, lgr zerolog.Logger) error {
	if cfg.Database.Backend == config.BackendMemory {
		return nil
	}

	lgr.Info().Str("backend", cfg.Database.Backend).Msg("Running database migrations...")
	migrator, err := appMigrations.ForConfig(cfg)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")
	return nil
}

// OpenStore connects the configured backend without migrating or seeding it
func OpenStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (appRepos.RecordStore, error) {
	hasher := pkgAuth.NewPasswordHasher(cfg.Security.BcryptCost)

	switch cfg.Database.Backend {
	case config.BackendMemory:
		lgr.Warn().Msg("Using in-memory record store; data is lost on restart")
		return memory.NewStore(hasher), nil

	case config.BackendPostgres:
		lgr.Info().Str("host", cfg.Database.Host).Str("dbname", cfg.Database.DBName).Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(ctx, cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		lgr.Info().Msg("Database connection successfully established.")
		return pgstore.NewStore(database, hasher), nil

	case config.BackendSQLite:
		lgr.Info().Str("path", cfg.Database.SQLitePath).Msg("Opening SQLite database...")
		sqlDB, err := db.NewSQLiteDB(ctx, cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to open SQLite database")
			return nil, err
		}
		return sqlitestore.NewStore(sqlDB, hasher), nil

	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Database.Backend)
	}
}

// SetupStore migrates, opens and optionally seeds the configured backend.
func SetupStore(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (appRepos.RecordStore, error) {
	if err := RunMigrations(cfg, lgr); err != nil {
		return nil, err
	}

	store, err := OpenStore(ctx, cfg, lgr)
	if err != nil {
		return nil, err
	}

	if cfg.Seed.DefaultStudent {
		if _, err := seed.CreateDefaultData(ctx, store, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return store, nil
}

// BuildDependencies initializes services and controllers over store.
func BuildDependencies(store appRepos.RecordStore, lgr zerolog.Logger) *Dependencies {
	svcs := appServices.NewServices(store)
	return &Dependencies{
		Store:       store,
		Services:    svcs,
		Controllers: appControllers.NewControllers(svcs),
		Logger:      lgr,
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies) (*gin.Engine, error) {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		deps.Logger.Info().Msg("Setting Gin mode to release")
	}

	if err := validation.RegisterWithGin(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(
		appMiddleware.RequestID(),
		appMiddleware.Recovery(),
		appMiddleware.RequestLogger(),
	)

	appRoutes.SetupRouter(router, deps.Controllers)
	return router, nil
}
