package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"northgate.capital/web/internal/ai"
	"northgate.capital/web/internal/auth"
	"northgate.capital/web/internal/config"
	handlersPkg "northgate.capital/web/internal/handlers"
	"northgate.capital/web/internal/i18n"
	mw "northgate.capital/web/internal/middleware"
	"northgate.capital/web/internal/observability"
	"northgate.capital/web/internal/sitedata"
)

const (
	shutdownTimeout = 20 * time.Second
	videoJobTTL     = time.Hour
)

var (
	templatesDir = "templates"
	publicDir    = "public"
	// devMode reparses templates on every request.
	devMode bool

	i18nBundle *i18n.Bundle
	site       *sitedata.Tables
	aiClient   *ai.Client
	videoJobs  *ai.Jobs
	siteURL    string
	analytics  handlersPkg.Analytics
)

func main() {
	var envFile string
	flag.StringVar(&envFile, "env-file", ".env", "dotenv file read before the environment")
	flag.Parse()

	logger, err := observability.NewLogger(
		firstNonEmpty(os.Getenv("NORTHGATE_WEB_LOG_LEVEL"), os.Getenv("LOG_LEVEL")),
		os.Getenv("NORTHGATE_WEB_DEV") == "true",
	)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(logger, envFile); err != nil {
		logger.Fatal("web server stopped", zap.Error(err))
	}
}

func run(logger *zap.Logger, envFile string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, config.WithEnvFile(envFile))
	if err != nil {
		return err
	}
	if err := setup(cfg, logger); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(logger, cfg.Server.RequestTimeout),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("web listening",
			zap.String("addr", srv.Addr),
			zap.Bool("dev", devMode),
			zap.String("env", cfg.Site.Environment),
			zap.Bool("ai_credential", aiClient.HasCredential()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		err := srv.Shutdown(shutdownCtx)
		if jerr := videoJobs.Shutdown(shutdownCtx); jerr != nil {
			logger.Warn("video jobs did not stop in time", zap.Error(jerr))
		}
		return err
	})
	return g.Wait()
}

// setup loads everything the handlers read from package state.
func setup(cfg config.Config, logger *zap.Logger) error {
	templatesDir = cfg.Site.TemplatesDir
	publicDir = cfg.Site.PublicDir
	devMode = cfg.Site.Dev
	siteURL = cfg.Site.URL
	analytics = handlersPkg.AnalyticsFromConfig(cfg.Analytics)

	tables, err := sitedata.Load(cfg.Content.NavFile, cfg.Content.ContentFile)
	if err != nil {
		return err
	}
	rep := tables.Validate()
	if len(rep.MissingContent) > 0 {
		logger.Warn("navigation paths without content", zap.Strings("paths", rep.MissingContent))
		if cfg.Content.Strict {
			return rep.Err()
		}
	}
	if len(rep.Unlinked) > 0 {
		logger.Warn("content entries not linked from navigation", zap.Strings("paths", rep.Unlinked))
	}
	site = tables

	bundle, err := i18n.Load(cfg.Site.LocalesDir, cfg.Site.Locales[0], cfg.Site.Locales)
	if err != nil {
		return err
	}
	i18nBundle = bundle
	logger.Debug("locales loaded", zap.Strings("supported", bundle.Supported()))

	if !devMode {
		set, err := parseTemplates()
		if err != nil {
			return err
		}
		tmplCache = set
	}

	mw.ConfigureSessions(cfg.Session.SigningKey, cfg.Site.Production())

	aiClient = ai.NewClient(
		ai.WithCredential(cfg.AI.APIKey),
		ai.WithModels(cfg.AI.TextModel, cfg.AI.VideoModel),
		ai.WithVideoPolling(cfg.AI.VideoPollInterval, cfg.AI.VideoTimeout),
		ai.WithLogger(logger.Named("ai")),
	)
	videoJobs = ai.NewJobs(videoJobTTL)
	return nil
}

// newRouter wires middleware and routes. Tests build the same router.
func newRouter(logger *zap.Logger, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP.
	r.Use(chimw.RealIP)
	r.Use(observability.InjectLoggerMiddleware(logger))
	r.Use(observability.TraceMiddleware())
	r.Use(observability.RequestLoggerMiddleware())
	r.Use(observability.RecoveryMiddleware(logger, renderErrorPage))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(mw.HTMX)
	r.Use(mw.Session)
	r.Use(mw.Locale(i18nBundle))
	r.Use(mw.Auth)
	r.Use(mw.CSRF)
	r.Use(mw.VaryLocale)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/assets/*", http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(publicDir, "assets"))))

	r.Get("/", HomeHandler)
	r.Get("/search", SearchHandler)
	r.Get("/search/results", SearchResultsFrag)
	r.Post("/nav/toggle/{nodeID}", NavToggleHandler)

	r.Get("/login", LoginPage)
	r.Post("/login", LoginSubmit)
	r.Post("/logout", LogoutHandler)
	r.With(mw.RequireRole(auth.RoleClient, "/login")).Get("/portal/client", PortalHandler(auth.RoleClient))
	r.With(mw.RequireRole(auth.RoleInvestor, "/login")).Get("/portal/investor", PortalHandler(auth.RoleInvestor))

	r.Get("/testimonials", TestimonialsHandler)
	r.Post("/testimonials", TestimonialSubmit)

	r.Get("/media-studio", MediaStudioHandler)
	r.Post("/media-studio/videos", VideoStartFrag)
	r.Get("/media-studio/videos/{jobID}", VideoStatusFrag)
	r.Post("/media-studio/videos/{jobID}/cancel", VideoCancelFrag)

	r.Post("/tools/{tool}", ToolFrag)

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", SearchAPIHandler)
		r.Post("/tools/{tool}", ToolAPIHandler)
	})

	r.NotFound(ContentPageHandler)
	return r
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
