package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	authpage "github.com/goliatone/go-authpage"
	"github.com/goliatone/go-authpage/config"
	"github.com/goliatone/go-authpage/middleware/csrf"
	"github.com/goliatone/go-router"
	log "github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	appLogger := authpage.NewLogrusLogger(logger)

	authpage.SetPasswordHashCost(cfg.BcryptCost)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg.DSN, cfg.Debug)
	if err != nil {
		logger.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	users := authpage.NewUsersRepository(db)
	auther := authpage.NewAuthenticator(users, cfg).
		WithLogger(appLogger).
		WithActivitySink(authpage.LoggerActivitySink(appLogger))

	routeAuth := authpage.NewHTTPAuthenticator(auther, cfg)
	routeAuth.Logger = appLogger
	routeAuth.SecureCookie = cfg.SecureCookie

	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			AppName:               "go-authpage",
			Views:                 authpage.NewViewEngine(cfg.Debug),
			PassLocalsToViews:     true,
			DisableStartupMessage: !cfg.Debug,
		})
	})

	r := srv.Router().WithLogger(appLogger)

	key := sha256.Sum256([]byte(cfg.GetSigningKey()))
	r.Use(csrf.New(csrf.Config{
		SecureKey:    key[:],
		SecureCookie: cfg.SecureCookie,
	}))

	controller := authpage.RegisterAuthRoutes(r,
		authpage.WithAuther(routeAuth),
		authpage.WithControllerLogger(appLogger),
		authpage.WithControllerSubmitDelay(cfg.GetSubmitDelay()),
		authpage.WithDebug(cfg.Debug),
	)

	r.Get("/", func(ctx router.Context) error {
		return ctx.Redirect(controller.Routes.Login, router.StatusFound)
	}).SetName("home.get")

	r.Get(controller.Routes.Notes, notesPage(controller.Routes),
		routeAuth.ProtectedRoute(controller.Routes.Login),
	).SetName("notes.get")

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("shutdown: %v", err)
		}
	}()

	logger.Infof("listening on %s", cfg.Host)
	if err := srv.Serve(cfg.Host); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}

func openDB(ctx context.Context, dsn string, debug bool) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	if err := authpage.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func notesPage(routes authpage.Routes) router.HandlerFunc {
	return func(ctx router.Context) error {
		session, ok := authpage.SessionFromContext(ctx.Context())
		if !ok {
			return ctx.Redirect(routes.Login, router.StatusFound)
		}

		username := session.GetUserID()
		if so, ok := session.(*authpage.SessionObject); ok && so.Username() != "" {
			username = so.Username()
		}

		return ctx.Render("notes", router.ViewContext{
			"heading":      "Notes",
			"username":     username,
			"logout_route": routes.Logout,
		}, "layouts/main")
	}
}
