package router

import (
	"net/http"
	"time"

	"lifelines-backend/internal/application/assessment"
	auditsvc "lifelines-backend/internal/application/audit"
	authsvc "lifelines-backend/internal/application/auth"
	"lifelines-backend/internal/application/lifecycle"
	statssvc "lifelines-backend/internal/application/stats"
	"lifelines-backend/internal/config"
	"lifelines-backend/internal/constants"
	"lifelines-backend/internal/infrastructure/database"
	adminhandler "lifelines-backend/internal/interfaces/handlers/admin"
	audithandler "lifelines-backend/internal/interfaces/handlers/audit"
	authhandler "lifelines-backend/internal/interfaces/handlers/auth"
	healthhandler "lifelines-backend/internal/interfaces/handlers/health"
	projecthandler "lifelines-backend/internal/interfaces/handlers/projects"
	resourcehandler "lifelines-backend/internal/interfaces/handlers/resources"
	snaphandler "lifelines-backend/internal/interfaces/handlers/snapshot"
	statshandler "lifelines-backend/internal/interfaces/handlers/stats"
	userhandler "lifelines-backend/internal/interfaces/handlers/user"
	"lifelines-backend/internal/metrics"
	"lifelines-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the shared clients the app is built on. DB and Rdb are required.
type Deps struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Metrics *metrics.Metrics
	Config  *config.Config
	// AssessmentSeed seeds the damage-assessment and plan stand-ins.
	AssessmentSeed int64
	// BcryptCost overrides bcrypt.DefaultCost; tests lower it.
	BcryptCost int
}

// NewApp builds the Fiber app with all global middleware and route registration.
func NewApp(d Deps) *fiber.App {
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{Env: "development"}
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler(d.Rdb),
		EnableTrustedProxyCheck: true,
	})

	audit := &auditsvc.Service{DB: d.DB}
	core := &lifecycle.Service{DB: d.DB, Audit: audit, Metrics: d.Metrics}
	auth := &authsvc.Service{
		DB:       d.DB,
		Audit:    audit,
		Sessions: &authsvc.Sessions{Rdb: d.Rdb, TTL: cfg.SessionTTL},
		Cost:     d.BcryptCost,
	}

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.Session(auth))
	app.Use(middleware.HealthMarker(d.Rdb))
	app.Use(middleware.RouteLogger())
	app.Use(middleware.Idempotency(d.Rdb, middleware.DefaultIdempotencyTTL))

	api := app.Group("/api")

	// Health (no auth)
	hh := &healthhandler.Handlers{
		Rdb:            d.Rdb,
		DB:             &database.Pinger{DB: d.DB},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	api.Get("/health", hh.Ping)
	api.Get("/health/json", hh.JSON)
	api.Get("/health/errors", hh.Errors)
	api.Get("/health/dashboard", hh.Dashboard)
	api.Get("/health/reset", hh.Reset)
	api.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))

	// Auth
	ah := &authhandler.Handlers{Auth: auth}
	authGroup := api.Group("/auth")
	authGroup.Post("/login", ah.Login)
	authGroup.Post("/register", ah.Register)
	authGroup.Get("/me", middleware.RequireAuth(), ah.Me)
	authGroup.Delete("/logout", ah.Logout)

	// Snapshots
	sh := &snaphandler.Handlers{DB: d.DB}
	api.Get("/public/snapshot", sh.Public)
	api.Get("/snapshot", middleware.RequireAuth(), sh.Mine)

	// Users
	uh := &userhandler.Handlers{Core: core}
	api.Put("/users/:id/region", middleware.RequireAuth(), uh.UpdateRegion)

	// Projects. Reads are open; ownership and visibility are checked in the core.
	ph := &projecthandler.Handlers{Core: core, Assessor: assessment.NewAssessor(core, d.AssessmentSeed)}
	pg := api.Group("/projects")
	pg.Get("/", ph.List)
	pg.Get("/:id", ph.Get)
	pg.Post("/", middleware.AuthorizePermission(constants.CreateProject), ph.Create)
	pg.Put("/:id", middleware.AuthorizePermission(constants.EditProject), ph.Update)
	pg.Delete("/:id", middleware.AuthorizePermission(constants.DeleteProject), ph.Delete)
	pg.Post("/:id/publish", middleware.AuthorizePermission(constants.PublishProject), ph.Publish)
	pg.Post("/:id/complete", middleware.AuthorizePermission(constants.CompleteProject), ph.Complete)

	pg.Post("/:id/damage-report", middleware.AuthorizePermission(constants.SaveAssessment), ph.SaveDamageReport)
	pg.Get("/:id/damage-report", ph.LatestDamageReport)
	pg.Post("/:id/plan", middleware.AuthorizePermission(constants.SaveAssessment), ph.SavePlan)
	pg.Get("/:id/plan", ph.LatestPlan)
	pg.Get("/:id/plans", ph.Plans)
	pg.Get("/:id/matches", ph.Matches)

	pg.Post("/:id/community-input", middleware.AuthorizePermission(constants.AddCommunityInput), ph.CommunityInput)

	pg.Get("/:id/bids", ph.Bids)
	pg.Post("/:id/bids", middleware.AuthorizePermission(constants.SubmitBid), ph.SubmitBid)
	pg.Post("/:id/award", middleware.AuthorizePermission(constants.AwardBid), ph.Award)
	pg.Post("/:id/license", middleware.AuthorizePermission(constants.IssueLicense), ph.IssueLicense)
	pg.Get("/:id/license", ph.License)

	api.Post("/scoring/preview", middleware.RequireAuth(), ph.PreviewScore)

	// Resources
	rh := &resourcehandler.Handlers{Core: core}
	api.Get("/resources", rh.List)
	api.Post("/resources/:id/reserve", middleware.AuthorizePermission(constants.ManageResources), rh.Reserve)
	api.Post("/resources/:id/release", middleware.AuthorizePermission(constants.ManageResources), rh.Release)

	// Audit and admin
	auh := &audithandler.Handlers{Audit: audit}
	api.Get("/audit", middleware.AuthorizePermission(constants.ViewAudit), auh.List)
	adminGroup := api.Group("/admin")
	adminGroup.Get("/audit/export", middleware.AuthorizePermission(constants.ViewAudit), auh.Export)
	adm := &adminhandler.Handlers{DB: d.DB, Sessions: auth.Sessions, Hash: auth.HashPassword}
	adminGroup.Post("/reset", middleware.AuthorizePermission(constants.ResetDataset), adm.Reset)

	// Stats
	st := &statshandler.Handlers{Stats: &statssvc.Service{DB: d.DB}}
	statsGroup := api.Group("/stats")
	statsGroup.Get("/contractors", st.Contractors)
	statsGroup.Get("/materials", st.Materials)
	statsGroup.Get("/damage", st.Damage)

	return app
}

// CreateApp opens the store and Redis from cfg and builds the app.
func CreateApp(cfg *config.Config, m *metrics.Metrics) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, nil, nil, err
	}
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	rdb := redis.NewClient(opt)
	app := NewApp(Deps{
		DB:             db,
		Rdb:            rdb,
		Metrics:        m,
		Config:         cfg,
		AssessmentSeed: time.Now().UnixNano(),
	})
	return app, db, rdb, nil
}

// Handler returns the app as a net/http handler.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
