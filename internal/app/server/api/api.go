// Сервер строкового хранилища pacekeeper:
//
//	GET   /api/v1/health                    # состояние сервиса и базы
//	POST  /api/v1/auth/register             # регистрация и профиль (публичный)
//	POST  /api/v1/auth/login                # токен сессии (публичный)
//	GET   /api/v1/profiles/me               # профиль владельца токена (auth)
//	PATCH /api/v1/profiles/me               # премиум-статус (auth)
//	POST  /api/v1/rows/{collection}         # идемпотентная вставка (auth)
//	GET   /api/v1/rows/{collection}         # строки владельца (auth)
//	PATCH /api/v1/rows/{collection}/{id}    # частичное обновление (auth)
//	GET   /metrics                          # метрики Prometheus
package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/exp/slog"

	"pacekeeper/internal/app/server/api/http/health"
	"pacekeeper/internal/app/server/api/http/middleware"
	"pacekeeper/internal/app/server/api/http/middleware/auth"
	"pacekeeper/internal/app/server/api/http/middleware/logger"
	"pacekeeper/internal/app/server/api/http/middleware/ratelimit"
	profileAPI "pacekeeper/internal/app/server/api/http/profile"
	rowsAPI "pacekeeper/internal/app/server/api/http/rows"
	userAPI "pacekeeper/internal/app/server/api/http/user"
	"pacekeeper/internal/app/server/config"
	"pacekeeper/internal/domain/profile"
	"pacekeeper/internal/domain/session"
	"pacekeeper/internal/domain/store"
	"pacekeeper/internal/domain/user"
	"pacekeeper/internal/infrastructure/storage/postgres"
)

// Services доменные сервисы, которые обслуживает API.
type Services struct {
	Users    user.Servicer
	Sessions session.Servicer
	Profiles profile.Servicer
	Rows     store.Servicer
	DB       health.Pinger
}

// NewServices собирает сервисы поверх пула PostgreSQL.
func NewServices(storage *postgres.Storage, log *slog.Logger) Services {
	pool := storage.Pool()
	return Services{
		Users:    user.NewService(postgres.NewUserRepository(pool, log), user.NewCredentialsValidator(), log),
		Sessions: session.NewService(postgres.NewSessionRepository(pool, log), log),
		Profiles: profile.NewService(postgres.NewProfileRepository(pool, log), log),
		Rows:     store.NewService(postgres.NewRowRepository(pool, log), log),
		DB:       storage,
	}
}

// New создает *chi.Mux со всеми операциями через huma.Register
func New(ctx context.Context, cfg *config.Config, svc Services, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()
	mux.Handle("/metrics", promhttp.Handler())

	humaConfig := huma.DefaultConfig("Pacekeeper API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	authMW := auth.New(API, svc.Sessions, log)
	loggerMW := logger.New(log)
	limiter := ratelimit.New(API, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go limiter.Cleanup(ctx)

	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	health.NewHandler(svc.DB, log, middlewares.GetAllAndClear()).SetupRoutes(API)

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(limiter.Middleware())
	userAPI.NewHandler(svc.Users, svc.Sessions, svc.Profiles, log, middlewares.GetAllAndClear()).SetupRoutes(API)

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(limiter.Middleware())
	middlewares.Add(authMW.Middleware())
	profileAPI.NewHandler(svc.Profiles, log, middlewares.GetAllAndClear()).SetupRoutes(API)

	middlewares.Add(loggerMW.Middleware())
	middlewares.Add(limiter.Middleware())
	middlewares.Add(authMW.Middleware())
	rowsAPI.NewHandler(svc.Rows, svc.Profiles, log, middlewares.GetAllAndClear()).SetupRoutes(API)

	return mux
}
