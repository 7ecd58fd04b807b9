package router

import (
	"context"
	"fmt"
	"strings"

	authsvc "bizmart-backend/internal/application/auth"
	bizsvc "bizmart-backend/internal/application/businesses"
	"bizmart-backend/internal/application/catalog"
	emailsvc "bizmart-backend/internal/application/emails"
	healthsvc "bizmart-backend/internal/application/health"
	"bizmart-backend/internal/config"
	"bizmart-backend/internal/infrastructure/cache"
	"bizmart-backend/internal/infrastructure/database"
	"bizmart-backend/internal/infrastructure/events"
	"bizmart-backend/internal/infrastructure/storage"
	authhandler "bizmart-backend/internal/interfaces/handlers/auth"
	bizhandler "bizmart-backend/internal/interfaces/handlers/businesses"
	healthhandler "bizmart-backend/internal/interfaces/handlers/health"
	"bizmart-backend/internal/interfaces/view"
	"bizmart-backend/internal/middleware"
	"bizmart-backend/internal/pkg/uid"
	"bizmart-backend/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AssetVersion is reported in every page object so clients can detect stale bundles.
const AssetVersion = "1"

const (
	streamName    = "BUSINESSES"
	streamSubject = "businesses.>"
	cachePrefix   = "bizmart:"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the connected clients the routes are built on.
type Deps struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Storage storage.Storage
	Bus     events.Bus
	Mailer  emailsvc.Sender
}

// Resources are the connections CreateApp opened; Close releases them.
type Resources struct {
	DB  *gorm.DB
	Rdb *redis.Client
	Bus events.Bus
}

// Close drains the event bus and closes Redis and the database pool.
func (r *Resources) Close() {
	if r.Bus != nil {
		if err := r.Bus.Drain(); err != nil {
			log.Warn().Err(err).Msg("event bus drain failed")
		}
	}
	if r.Rdb != nil {
		_ = r.Rdb.Close()
	}
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// CreateApp connects every backing service from cfg and returns the wired app.
func CreateApp(cfg *config.Config) (*fiber.App, *Resources, error) {
	ctx := context.Background()
	res := &Resources{}

	if cfg.RedisURL == "" {
		return nil, nil, fmt.Errorf("REDIS_URL is required")
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	res.Rdb = redis.NewClient(opt)

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	res.DB = db
	if err := database.AutoMigrate(db); err != nil {
		res.Close()
		return nil, nil, err
	}

	store, err := openStorage(ctx, cfg)
	if err != nil {
		res.Close()
		return nil, nil, err
	}

	res.Bus = events.Nop{}
	if cfg.NATSURL != "" {
		bus, err := events.NewNATSBus(cfg.NATSURL)
		if err != nil {
			res.Close()
			return nil, nil, err
		}
		if err := bus.EnsureStream(streamName, streamSubject); err != nil {
			log.Warn().Err(err).Str("stream", streamName).Msg("nats stream setup failed")
		}
		res.Bus = bus
	}

	var mailer emailsvc.Sender
	if cfg.SendinblueAPIKey != "" {
		mailer = &emailsvc.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
	}

	app, err := New(cfg, Deps{
		DB:      db,
		Rdb:     res.Rdb,
		Storage: store,
		Bus:     res.Bus,
		Mailer:  mailer,
	})
	if err != nil {
		res.Close()
		return nil, nil, err
	}
	return app, res, nil
}

func openStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return storage.NewLocal(cfg.StorageRoot, cfg.StoragePublicURL)
	case "s3":
		return storage.NewS3(ctx, storage.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			PublicURL:       cfg.StoragePublicURL,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}
}

// New registers middleware and routes on a fresh app.
func New(cfg *config.Config, deps Deps) (*fiber.App, error) {
	engine, err := view.New(AssetVersion)
	if err != nil {
		return nil, err
	}
	bodyLimit := cfg.MaxUploadMB << 20
	if bodyLimit <= 0 {
		bodyLimit = fiber.DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(deps.Rdb),
		EnableTrustedProxyCheck: true,
		BodyLimit:               bodyLimit,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.HealthMarker(deps.Rdb))

	if _, ok := deps.Storage.(*storage.Local); ok && strings.HasPrefix(cfg.StoragePublicURL, "/") {
		app.Static(cfg.StoragePublicURL, cfg.StorageRoot)
	}

	app.Use(middleware.Session(deps.Rdb, middleware.SessionConfig{
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}))

	probes := map[string]healthsvc.Probe{}
	if p, ok := deps.Bus.(pinger); ok {
		probes["nats"] = p.Ping
	}
	if p, ok := deps.Storage.(pinger); ok {
		probes["storage"] = p.Ping
	}
	hh := &healthhandler.Handlers{
		Rdb:            deps.Rdb,
		DB:             &gormDBPinger{db: deps.DB},
		Probes:         probes,
		View:           engine,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	ah := &authhandler.Handlers{
		Service: &authsvc.Service{DB: deps.DB},
		View:    engine,
	}
	app.Get(middleware.LoginPath, ah.LoginPage)
	authGroup := app.Group("/auth")
	authGroup.Post("/register", ah.Register)
	authGroup.Post("/login", ah.Login)
	authGroup.Get("/me", ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	cat := &catalog.Service{DB: deps.DB, Cache: cache.New(deps.Rdb, cachePrefix)}
	bus := deps.Bus
	if bus == nil {
		bus = events.Nop{}
	}
	bh := &bizhandler.Handlers{
		Service: &bizsvc.Service{
			DB:        deps.DB,
			Catalog:   cat,
			Storage:   deps.Storage,
			IDs:       uid.UUIDGenerator{},
			Bus:       bus,
			Subject:   cfg.SubmittedSubject,
			Mailer:    deps.Mailer,
			Validator: validation.New(),
			PageSize:  cfg.PageSize,
		},
		View: engine,
	}
	bg := app.Group("/businesses")
	bg.Get("/", bh.Index)
	bg.Get("/search", bh.Search)
	bg.Get("/create", middleware.RequireAuth(), bh.Create)
	bg.Post("/", middleware.RequireAuth(), bh.Store)
	bg.Get("/:listing_id", bh.Show)
	bg.Put("/:listing_id", middleware.RequireAuth(), bh.Update)

	return app, nil
}
