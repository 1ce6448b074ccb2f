// Точка входа unit-tracker — REST API учёта подразделений.
// Загружает конфигурацию, подключается к SQLite или PostgreSQL, приводит
// схему к текущей версии, создаёт сервисный слой и API handlers,
// запускает topologymetrics и HTTP-сервер с JWT middleware и graceful shutdown.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/bigkaa/unit-tracker/internal/api/handlers"
	"github.com/bigkaa/unit-tracker/internal/api/middleware"
	"github.com/bigkaa/unit-tracker/internal/api/openapi"
	"github.com/bigkaa/unit-tracker/internal/config"
	"github.com/bigkaa/unit-tracker/internal/database"
	"github.com/bigkaa/unit-tracker/internal/i18n"
	"github.com/bigkaa/unit-tracker/internal/repository"
	"github.com/bigkaa/unit-tracker/internal/server"
	"github.com/bigkaa/unit-tracker/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("unit-tracker запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("db_driver", cfg.DBDriver),
	)

	// 3. Каталоги переводов
	if _, err := i18n.Init(logger); err != nil {
		logger.Error("Ошибка загрузки переводов", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к хранилищу и приведение схемы.
	// Ошибка миграции фатальна: сервис не работает с несогласованной схемой.
	ctx := context.Background()
	db, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к хранилищу", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Initialize(ctx, cfg, db, logger); err != nil {
		logger.Error("Ошибка инициализации схемы", slog.String("error", err.Error()))
		db.Close()
		os.Exit(1)
	}

	// 5. Repository
	unitRepo := repository.New(db)

	// 6. Services
	cache := service.NewCacheService(cfg.CacheSize, cfg.CacheTTL)
	unitSvc := service.NewUnitService(unitRepo, cache, cfg.SearchLimit, logger)

	// 7. topologymetrics — мониторинг внешних зависимостей (PostgreSQL, JWKS)
	targets := service.DephealthTargets{}
	if db.Driver == config.DriverPostgres {
		targets.DB = db.SQL
		targets.PostgresURL = cfg.PostgresURL()
	}
	if cfg.AuthEnabled {
		targets.JWKSURL = cfg.JWTJWKSURL
	}

	var deps handlers.HealthReporter
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"unit-tracker",
		cfg.DephealthGroup,
		targets,
		cfg.DephealthCheckInterval,
		logger,
	)
	switch {
	case errors.Is(dephealthErr, service.ErrNoDependencies):
		logger.Info("Внешних зависимостей нет, topologymetrics не запускается")
	case dephealthErr != nil:
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	default:
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics", slog.String("error", startErr.Error()))
		} else {
			deps = dephealthSvc
			defer dephealthSvc.Stop()
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 8. Health и API handlers
	healthHandler := handlers.NewHealthHandler(database.NewReadinessChecker(db), deps)
	apiHandler := handlers.NewAPIHandler(healthHandler, unitSvc, openapi.Spec, logger)

	// 9. Middleware: request id → логирование → метрики → язык → JWT → роли → контракт
	middlewares := []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.MetricsMiddleware(),
		i18n.Middleware(cfg.DefaultLang),
	}

	if cfg.AuthEnabled {
		jwtAuth, err := middleware.NewJWTAuth(
			cfg.JWTJWKSURL,
			cfg.JWTIssuer,
			cfg.RoleAdminGroups,
			cfg.RoleReadonlyGroups,
			cfg.JWKSRefreshInterval,
			cfg.JWTLeeway,
			logger,
		)
		if err != nil {
			logger.Error("Ошибка создания JWT middleware", slog.String("error", err.Error()))
			os.Exit(1)
		}
		publicPaths := []string{"/health/", "/metrics", "/openapi.yaml"}
		middlewares = append(middlewares,
			server.JWTAuthWithExclusions(jwtAuth.Middleware(), publicPaths...),
			server.JWTAuthWithExclusions(middleware.RequireMethodRole(), publicPaths...),
		)
		logger.Info("JWT middleware инициализирован",
			slog.String("jwks_url", cfg.JWTJWKSURL),
			slog.String("issuer", cfg.JWTIssuer),
		)
	} else {
		logger.Warn("Аутентификация отключена (UT_AUTH_ENABLED=false)")
	}

	if cfg.ValidateRequests {
		doc, err := openapi.Load()
		if err != nil {
			logger.Error("Ошибка загрузки OpenAPI контракта", slog.String("error", err.Error()))
			os.Exit(1)
		}
		validator, err := openapi.NewValidator(doc, logger)
		if err != nil {
			logger.Error("Ошибка создания валидатора запросов", slog.String("error", err.Error()))
			os.Exit(1)
		}
		middlewares = append(middlewares, validator.Middleware())
	}

	// 10. Создание и запуск HTTP-сервера (SIGINT/SIGTERM → graceful shutdown)
	srv := server.New(cfg, logger, apiHandler, middlewares...)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("unit-tracker остановлен")
}
