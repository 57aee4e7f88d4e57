package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/config"
	"github.com/balkashynov/attendr/internal/credentials"
	"github.com/balkashynov/attendr/internal/db"
	"github.com/balkashynov/attendr/internal/faceapi"
	"github.com/balkashynov/attendr/internal/geo"
	"github.com/balkashynov/attendr/internal/leave"
	"github.com/balkashynov/attendr/internal/logging"
)

// app holds everything a command needs, built once per invocation
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stores *db.Stores
	creds  *credentials.Store

	issuer    *auth.Issuer
	auth      *auth.Service
	machine   *attendance.Machine
	dashboard *attendance.Dashboard
	leaves    *leave.Service
	validate  *validator.Validate

	fence    geo.Fence
	face     *faceapi.Client
	verifier *faceapi.Verifier

	now     func() time.Time
	closers []io.Closer
}

type appMode int

const (
	// cliMode logs to a file and signs tokens with the local secret when none is configured
	cliMode appMode = iota
	// serverMode logs to stderr and requires ATTENDR_JWT_SECRET
	serverMode
)

func newApp(mode appMode) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, now: time.Now}

	if mode == serverMode {
		if err := cfg.RequireSecret(); err != nil {
			return nil, err
		}
		a.logger = logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	} else {
		logger, closer, err := logging.NewFile(cfg.Home, cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		a.logger = logger
		a.closers = append(a.closers, closer)
	}

	if err := db.Initialize(db.Options{DSN: cfg.DatabaseDSN, Logger: a.logger, Verbose: cfg.Debug}); err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, closerFunc(db.Close))
	a.stores = db.NewStores(db.DB, a.logger)

	secret := cfg.JWTSecret
	if mode == cliMode {
		if a.creds, err = credentials.Open(cfg.Home); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to open credentials: %w", err)
		}
		a.closers = append(a.closers, a.creds)
		if secret == "" {
			if secret, err = a.creds.LocalSecret(); err != nil {
				a.Close()
				return nil, err
			}
		}
	}

	a.validate = validator.New()
	a.issuer = auth.NewIssuer(secret, cfg.TokenTTL)
	a.auth = auth.NewService(a.stores.Users, a.issuer)
	a.machine = attendance.NewMachine(a.stores.Clock, cfg.Location, a.logger)
	a.dashboard = attendance.NewDashboard(a.stores.Clock, cfg.Location, a.logger)
	a.leaves = leave.NewService(a.stores.Leaves, a.validate, a.logger)

	a.fence = geo.Fence{
		Center:       geo.Point{Lat: cfg.GeofenceLat, Lon: cfg.GeofenceLon},
		RadiusMeters: cfg.GeofenceRadius,
	}
	a.face = faceapi.NewClient(cfg.FaceAPIURL, a.logger)
	a.verifier = faceapi.NewVerifier(a.fence, faceapi.NewScanner(a.face, cfg.FacePollInterval, a.logger), 30*time.Second)
	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.logger != nil {
			a.logger.Warn("close failed", "err", err)
		}
	}
	a.closers = nil
}

// session resolves the cached login into a Session
func (a *app) session() (auth.Session, error) {
	tok, err := a.creds.Token()
	if err != nil {
		return auth.Session{}, err
	}
	sess, err := a.issuer.Parse(tok.Value)
	if errors.Is(err, auth.ErrInvalidToken) {
		// signed with another secret or expired; make the user log in again
		a.creds.Clear()
		return auth.Session{}, credentials.ErrNotLoggedIn
	}
	return sess, err
}

// listen forwards postgres change notifications into the feed until ctx ends. Sqlite
// stores publish locally, so there is nothing to listen to.
func (a *app) listen(ctx context.Context) {
	if !a.cfg.IsPostgres() {
		return
	}
	go func() {
		if err := db.ListenChanges(ctx, a.cfg.DatabaseDSN, a.stores.Feed, a.logger); err != nil && ctx.Err() == nil {
			a.logger.Warn("change listener stopped", "err", err)
		}
	}()
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
