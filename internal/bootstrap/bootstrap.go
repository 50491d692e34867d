package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/miu/unidesk/internal/app/controllers"
	appMigrations "github.com/miu/unidesk/internal/app/migrations"
	appRepos "github.com/miu/unidesk/internal/app/repositories"
	"github.com/miu/unidesk/internal/app/repositories/inmem"
	appRoutes "github.com/miu/unidesk/internal/app/routes"
	appServices "github.com/miu/unidesk/internal/app/services"
	"github.com/miu/unidesk/internal/app/templates"
	"github.com/miu/unidesk/internal/config"
	"github.com/miu/unidesk/internal/db"
	appMiddleware "github.com/miu/unidesk/internal/middleware"
	pkgAuth "github.com/miu/unidesk/internal/pkg/auth"
	"github.com/miu/unidesk/internal/pkg/email"
	"github.com/miu/unidesk/internal/pkg/filestorage"
	"github.com/miu/unidesk/internal/pkg/helpers"
	"github.com/miu/unidesk/internal/pkg/logger"
	"github.com/miu/unidesk/internal/pkg/metrics"
	"github.com/miu/unidesk/internal/pkg/validation"
	"github.com/miu/unidesk/internal/pkg/websocket"
	"github.com/miu/unidesk/internal/seed"
)

// DefaultConfigPath is read when no other path is given
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger

	// DBPool is nil for the memory driver
	DBPool  *pgxpool.Pool
	Store   appServices.Store
	Metrics *metrics.Metrics
	Hub     *websocket.Hub
	Mailer  email.Mailer
	Storage filestorage.FileStorage

	JWTService          *pkgAuth.JWTService
	AuthService         appServices.AuthService
	AuditService        appServices.AuditService
	NotificationService appServices.NotificationService
	FacultyService      appServices.FacultyService
	CourseService       appServices.CourseService
	SupervisorService   appServices.SupervisorService
	StudentService      appServices.StudentService
	ResearchService     appServices.ResearchService
	VoterService        appServices.VoterService
	ElectionService     appServices.ElectionService

	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers
}

// LoadConfigAndSetupLogger loads .env files and the configuration, then configures the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	if err := config.LoadDotEnv(); err != nil {
		logger.Error().Err(err).Msg("Failed to load .env file")
		return nil, zerolog.Logger{}, err
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err // Return zero logger and the error
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
// It returns a nil pool for the memory driver.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using the in-memory database, data is lost on restart")
		return nil, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	if !cfg.Database.AutoMigrate {
		return dbPool, nil
	}

	lgr.Info().Msg("Running database migrations...")
	if err := appMigrations.NewMigrator(dbPool, lgr).Migrate(ctx); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		dbPool.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return dbPool, nil
}

// NewStore returns the repositories of the configured driver
func NewStore(dbPool *pgxpool.Pool) appServices.Store {
	if dbPool == nil {
		return inmem.New().Store()
	}
	return appRepos.NewRepositories(dbPool).Store()
}

// NewFileStorage returns the upload backend of the configured driver
func NewFileStorage(ctx context.Context, cfg *config.Config) (filestorage.FileStorage, error) {
	if cfg.Storage.Driver == config.StorageMinIO {
		m := cfg.Storage.MinIO
		return filestorage.NewMinIOStorage(ctx, filestorage.MinIOConfig{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
			PublicURL: m.PublicURL,
		})
	}
	return filestorage.NewLocalStorage(cfg.Storage.Path, cfg.Storage.MediaURL)
}

// NewMailer returns the mailer of the configured driver
func NewMailer(cfg *config.Config, lgr zerolog.Logger) (email.Mailer, error) {
	return email.NewMailer(email.Config{
		Driver:         cfg.Mail.Driver,
		Host:           cfg.Mail.Host,
		Port:           cfg.Mail.Port,
		Username:       cfg.Mail.Username,
		Password:       cfg.Mail.Password,
		FromName:       cfg.Mail.FromName,
		FromEmail:      cfg.Mail.FromEmail,
		UseTLS:         cfg.Mail.UseTLS,
		SendgridAPIKey: cfg.Mail.SendgridAPIKey,
	}, lgr)
}

// NewJWTService builds the session token signer from cfg
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:   cfg.JWT.Secret,
		SessionExp:  helpers.ParseDuration(cfg.JWT.SessionExpiration, 12*time.Hour),
		TokenIssuer: cfg.JWT.Issuer,
	})
}

// BuildDependencies initializes application repositories, services, and controllers.
// The websocket hub runs until ctx is cancelled.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg, Logger: lgr, DBPool: dbPool}
	deps.Store = NewStore(dbPool)
	deps.Metrics = metrics.New()

	deps.Hub = websocket.NewHub(lgr)
	go deps.Hub.Run(ctx)
	deps.Metrics.WatchClients(func() int { return deps.Hub.ClientsCount(websocket.NotificationsGroup) })

	var err error
	deps.Mailer, err = NewMailer(cfg, lgr)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize mailer")
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	deps.Storage, err = NewFileStorage(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.NotificationService, err = appServices.NewNotificationService(deps.Mailer, cfg.App.University, deps.Metrics, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to load mail templates: %w", err)
	}

	// Initialize services
	deps.JWTService = NewJWTService(cfg)
	store := deps.Store
	deps.AuditService = appServices.NewAuditService(store.Audit, lgr)
	deps.AuthService = appServices.NewAuthService(store.Students, store.Voters, deps.JWTService, lgr)
	deps.FacultyService = appServices.NewFacultyService(store.Faculties, deps.AuditService)
	deps.CourseService = appServices.NewCourseService(store.Courses, deps.AuditService)
	deps.SupervisorService = appServices.NewSupervisorService(store.Supervisors, deps.AuditService)
	deps.StudentService = appServices.NewStudentService(store.Students, deps.NotificationService, deps.AuditService, deps.Storage, deps.Hub, lgr)
	deps.ResearchService = appServices.NewResearchService(store, deps.AuditService, deps.Storage, lgr)
	deps.VoterService = appServices.NewVoterService(store.Voters, deps.NotificationService, deps.AuditService, deps.Hub, lgr)
	deps.ElectionService = appServices.NewElectionService(store, deps.AuditService, deps.Storage, deps.Hub, deps.Metrics, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.AuthService, lgr)

	var ping appControllers.Pinger
	if dbPool != nil {
		ping = dbPool.Ping
	}
	deps.Controllers = appRoutes.Controllers{
		Election: appControllers.NewElectionController(deps.ElectionService, deps.VoterService, deps.AuthService, lgr),
		Research: appControllers.NewResearchController(deps.AuthService, deps.ResearchService, deps.StudentService,
			deps.FacultyService, deps.CourseService, lgr),
		Admin: appControllers.NewAdminController(deps.AuthService, deps.FacultyService, deps.CourseService,
			deps.SupervisorService, deps.StudentService, deps.ResearchService, deps.VoterService,
			deps.ElectionService, deps.AuditService, lgr),
		AdminAPI: appControllers.NewAdminAPIController(deps.FacultyService, deps.CourseService, deps.SupervisorService,
			deps.StudentService, deps.ResearchService, deps.VoterService, deps.ElectionService, deps.AuditService),
		System:  appControllers.NewSystemController(ping, lgr),
		WS:      websocket.NewHandler(deps.Hub, lgr),
		Metrics: deps.Metrics.Handler(),
	}

	return deps, nil
}

// Seed creates the default data configured in cfg.App
func Seed(ctx context.Context, deps *Dependencies) error {
	return seed.CreateDefaultData(ctx, deps.Store, seed.Admin{
		RegNo:    deps.Config.App.AdminRegNo,
		Email:    deps.Config.App.AdminEmail,
		Password: deps.Config.App.AdminPassword,
	}, deps.Logger)
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	pages, err := templates.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	validation.RegisterGin()

	router := gin.New()
	router.Use(appMiddleware.Recovery(lgr), appMiddleware.RequestLogger(lgr, deps.Metrics), appMiddleware.SameOrigin(lgr))
	router.Use(appMiddleware.Sessions(appMiddleware.SessionConfig{
		Name:   "unidesk_session",
		Secret: cfg.Server.SessionSecret,
		MaxAge: int(helpers.ParseDuration(cfg.JWT.SessionExpiration, 12*time.Hour).Seconds()),
		Secure: cfg.Server.SecureCookies,
	}))
	router.Use(deps.AuthMiddleware.LoadIdentity())
	router.SetHTMLTemplate(pages)

	if cfg.Storage.Driver == config.StorageLocal {
		media := router.Group(cfg.Storage.MediaURL, appMiddleware.MediaHeaders())
		media.Static("/", cfg.Storage.Path)
		lgr.Info().Str("path", cfg.Storage.Path).Str("url", cfg.Storage.MediaURL).Msg("Static file serving configured for uploads")
	}

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)
	return router, nil
}
