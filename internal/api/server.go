package api

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/faceapi"
	"github.com/balkashynov/attendr/internal/geo"
	"github.com/balkashynov/attendr/internal/leave"
)

// Deps are the services the HTTP layer is built on
type Deps struct {
	Auth      *auth.Service
	Issuer    *auth.Issuer
	Machine   *attendance.Machine
	Dashboard *attendance.Dashboard
	Leaves    *leave.Service
	Face      *faceapi.Client
	Verifier  *faceapi.Verifier
	Fence     geo.Fence
	Validate  *validator.Validate
	Logger    *slog.Logger

	AccessLog      io.Writer
	CORSOrigins    string
	LoginRateLimit int
	RequestTimeout time.Duration
	Now            func() time.Time
}

type handlers struct {
	Deps
}

// New builds the fiber app with every route mounted
func New(deps Deps) *fiber.App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validate == nil {
		deps.Validate = validator.New()
	}
	if deps.AccessLog == nil {
		deps.AccessLog = os.Stderr
	}
	if deps.LoginRateLimit <= 0 {
		deps.LoginRateLimit = 10
	}
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 60 * time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	app := fiber.New(fiber.Config{
		AppName:               "attendr",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(deps.Logger),
		BodyLimit:             10 << 20,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          90 * time.Second,
		IdleTimeout:           90 * time.Second,
	})

	app.Use(Recovery())
	app.Use(RequestID(deps.RequestTimeout))
	app.Use(AccessLog(deps.AccessLog))
	app.Use(CORS(deps.CORSOrigins))

	SetupRoutes(app, &handlers{Deps: deps})
	return app
}

// SetupRoutes mounts the API under /api
func SetupRoutes(app *fiber.App, h *handlers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", LoginRateLimiter(h.LoginRateLimit), h.register)
	authGroup.Post("/login", LoginRateLimiter(h.LoginRateLimit), h.login)
	authGroup.Get("/me", JWTAuth(h.Issuer), h.me)

	att := api.Group("/attendance", JWTAuth(h.Issuer))
	att.Get("/today", h.today)
	att.Post("/clock-in", h.clockIn)
	att.Post("/clock-out", h.clockOut)
	att.Get("/dashboard", h.dashboard)
	att.Get("/records", h.records)

	leaves := api.Group("/leaves", JWTAuth(h.Issuer))
	leaves.Post("/", h.applyLeave)
	leaves.Get("/mine", h.myLeaves)
	leaves.Get("/counts", h.leaveCounts)

	admin := api.Group("/admin", JWTAuth(h.Issuer), OnlyAdmin())
	admin.Get("/leaves", h.allLeaves)
	admin.Patch("/leaves/:id", h.decideLeave)

	face := api.Group("/face")
	face.Get("/health", h.faceHealth)
	face.Post("/check-location", JWTAuth(h.Issuer), h.checkLocation)
	face.Post("/verify", JWTAuth(h.Issuer), h.verifyFace)
	face.Post("/register", JWTAuth(h.Issuer), h.registerFace)
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, app *fiber.App, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}
