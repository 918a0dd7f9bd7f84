package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/promptdeck/syncengine/internal/config"
	"github.com/promptdeck/syncengine/internal/infrastructure/localstate"
	"github.com/promptdeck/syncengine/internal/infrastructure/providers"
	"github.com/promptdeck/syncengine/internal/infrastructure/repository"
	"github.com/promptdeck/syncengine/internal/infrastructure/stream"
	"github.com/promptdeck/syncengine/internal/present/rest"
	"github.com/promptdeck/syncengine/internal/present/rest/middleware"
	"github.com/promptdeck/syncengine/internal/service"
	"github.com/promptdeck/syncengine/internal/store"
	"github.com/promptdeck/syncengine/internal/usecase"
)

func main() {
	configPath := flag.String("c", "config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config",
			slog.String("error", err.Error()),
			slog.String("module", "main"),
		)
		os.Exit(1)
	}

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to setup trace provider",
				slog.String("error", err.Error()),
				slog.String("module", "main"),
			)
			os.Exit(1)
		}
		defer shutdown()
	}

	db, err := providers.NewDatabase(conf.Server)
	if err != nil {
		slog.Error("failed to connect database",
			slog.String("error", err.Error()),
			slog.String("module", "main"),
		)
		os.Exit(1)
	}

	err = providers.MigrateDatabase(db)
	if err != nil {
		slog.Error("failed to migrate database",
			slog.String("error", err.Error()),
			slog.String("module", "main"),
		)
		os.Exit(1)
	}

	rdb := providers.NewRedis(conf.Server)
	mc := providers.NewMemcache(conf.Server.MemcachedAddr)

	local := localstate.Open(conf.App.StateFile)

	profileRepo := repository.NewProfileRepository(db)
	promptRepo := repository.NewPromptRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	engagementRepo := repository.NewEngagementRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	usageRepo := repository.NewUsageRepository(db, mc)

	st := store.New()

	sessionUC := usecase.NewSessionUsecase(conf.App, st, profileRepo, promptRepo)
	limitsUC := usecase.NewLimitsUsecase(usageRepo, local, usecase.SystemClock{})
	engageUC := usecase.NewEngageUsecase(st, promptRepo, commentRepo, engagementRepo, draftRepo, limitsUC)

	authService := service.NewAuthService(conf.App)
	changes := stream.NewRedisStream(rdb)
	reconciler := service.NewReconciler(st, changes, promptRepo, commentRepo, sessionUC)
	defer reconciler.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("syncd"))
	}

	authMiddleware := middleware.NewAuthMiddleware(authService, conf.App)
	e.Use(authMiddleware.IdentifyIdentity)

	handler := rest.NewHandler(conf.App, st, sessionUC, engageUC, limitsUC, reconciler, local)
	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.App.ListenAddr))
}

func setupTraceProvider(endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(
		context.Background(),
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName("syncd"),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Error("failed to shutdown trace provider",
				slog.String("error", err.Error()),
				slog.String("module", "main"),
			)
		}
	}, nil
}
