package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/raceatlas/raceatlas-api/config"
	"github.com/raceatlas/raceatlas-api/db"
	"github.com/raceatlas/raceatlas-api/handlers"
	applog "github.com/raceatlas/raceatlas-api/logger"
	mw "github.com/raceatlas/raceatlas-api/middleware"
	"github.com/raceatlas/raceatlas-api/search"
)

func main() {
	cfg := config.Load()
	logger, err := applog.New(cfg.Debug)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	bdb := db.Setup(cfg)
	defer bdb.Close()

	if err := db.CreateTables(context.Background(), bdb); err != nil {
		logger.Fatal("create tables failed", zap.Error(err))
	}

	indexer := search.NewRunner(
		search.NewBunStore(bdb),
		search.NewMeiliIndexer(cfg.MeiliHost, cfg.MeiliKey, cfg.MeiliIndex),
		cfg.FilesBase,
		cfg.SiteBase,
		logger,
	)

	h := handlers.New(bdb, cfg, indexer, openaiClient(cfg), storageClient(cfg, logger), pubsubClient(cfg, logger))

	e := echo.New()
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.Int("status", v.Status),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			switch {
			case v.Status >= 500:
				logger.Error("http request", fields...)
			case v.Status >= 400:
				logger.Warn("http request", fields...)
			default:
				logger.Info("http request", fields...)
			}
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(mw.APIAuth(cfg.AllowedOrigins, cfg.ServiceToken))
	e.Use(mw.AccessToken(cfg.JWTKey()))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, "RaceAtlas APIs")
	})

	// Public reference data
	e.GET("/categories", h.ListCategories)
	e.GET("/categories/:category", h.GetCategory)
	e.GET("/countries", h.ListCountries)
	e.GET("/countries/:code", h.GetCountry)

	// Authenticated data routes
	auth := e.Group("", mw.RequireAuth())
	auth.GET("/events", h.ListEvents)
	auth.POST("/events", h.CreateEvent)
	auth.GET("/events/countyState/:country", h.CountyStates)
	auth.GET("/events/:slug", h.GetEvent)
	auth.PUT("/events/:slug", h.UpdateEvent)
	auth.GET("/events/:slug/timeline", h.EventTimeline)
	auth.POST("/events/:slug/uploadImage", h.UploadEventImage)
	auth.GET("/organizers", h.ListOrganizers)
	auth.GET("/organizers/:slug", h.GetOrganizer)
	auth.GET("/person/:handle", h.GetPerson)
	auth.GET("/person/:handle/race-calendar", h.RaceCalendar)
	auth.GET("/people/:id", h.GetPublicProfile)
	auth.GET("/analytics/event-impressions", h.EventImpressions)
	auth.POST("/analytics/event-impressions", h.EventImpressions)
	auth.POST("/ask-coach", h.AskCoach)
	auth.GET("/search-index", h.SearchIndex)

	// Link redirects stay public: they are shared outside the app.
	e.GET("/events/:slug/link/:label", h.EventLink)

	if cfg.Debug {
		logger.Info("starting server", zap.String("mode", "debug"), zap.String("addr", cfg.Port))
		if err := e.Start(cfg.Port); err != nil {
			logger.Fatal("server exited", zap.Error(err))
		}
		return
	}

	autoTLS := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Cache:      autocert.DirCache(".cache"),
		HostPolicy: autocert.HostWhitelist(cfg.TLSDomains...),
	}

	s := &http.Server{
		Addr:         ":443",
		Handler:      e,
		TLSConfig:    autoTLS.TLSConfig(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	if err := s.ListenAndServeTLS("", ""); err != http.ErrServerClosed {
		logger.Error("tls server exited", zap.Error(err))
		os.Exit(1)
	}
}

func openaiClient(cfg *config.Config) *openai.Client {
	if cfg.OpenAIKey == "" {
		return nil
	}
	return openai.NewClient(cfg.OpenAIKey)
}

func storageClient(cfg *config.Config, logger *zap.Logger) *storage.Client {
	client, err := storage.NewClient(context.Background())
	if err != nil {
		logger.Warn("cloud storage unavailable, uploads disabled", zap.Error(err))
		return nil
	}
	return client
}

func pubsubClient(cfg *config.Config, logger *zap.Logger) *pubsub.Client {
	if cfg.GCPProject == "" {
		logger.Warn("GCP_PROJECT not set, analytics disabled")
		return nil
	}
	client, err := pubsub.NewClient(context.Background(), cfg.GCPProject)
	if err != nil {
		logger.Warn("pub/sub unavailable, analytics disabled", zap.Error(err))
		return nil
	}
	return client
}
