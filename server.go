package main

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/foodgram-go/apperror"
	"github.com/user/foodgram-go/auth"
	"github.com/user/foodgram-go/catalog"
	"github.com/user/foodgram-go/config"
	"github.com/user/foodgram-go/db"
	_ "github.com/user/foodgram-go/docs" // registers the generated Swagger spec
	"github.com/user/foodgram-go/logging"
	"github.com/user/foodgram-go/media"
	"github.com/user/foodgram-go/metrics"
	"github.com/user/foodgram-go/recipes"
	"github.com/user/foodgram-go/users"
	"github.com/user/foodgram-go/validation"
)

// runServer connects to the database, builds the router and serves until ctx is cancelled.
func runServer(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) error {
	appPool, importPool, err := db.NewDBPools(cfg.DBPools)
	if err != nil {
		return err
	}
	defer appPool.Close()
	defer importPool.Close()

	if err := db.EnableExtensions(ctx, importPool); err != nil {
		return err
	}
	if err := db.RunMigrations(db.DSN(cfg.DBPools.ImportPool), cfg.App.MigrationsPath, logger); err != nil {
		return err
	}

	cache, closeCache := newCatalogCache(ctx, cfg.Cache, logger)
	defer closeCache()

	router, err := newRouter(cfg, logger, appPool, cache)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server exited")
	return nil
}

// newCatalogCache picks Redis when an address is configured and falls back to the
// in-process cache otherwise or when Redis is unreachable at startup.
func newCatalogCache(ctx context.Context, cfg *config.CacheConfig, logger zerolog.Logger) (catalog.Cache, func()) {
	if cfg.RedisAddr == "" {
		return catalog.NewMemoryCache(cfg.TTL), func() {}
	}
	rc, err := catalog.NewRedisCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TTL, logger)
	if err != nil {
		logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, using in-memory catalog cache")
		return catalog.NewMemoryCache(cfg.TTL), func() {}
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			logger.Warn().Err(err).Msg("closing redis cache")
		}
	}
}

// newRouter wires stores, services and handlers onto a chi router.
func newRouter(cfg *config.AppConfig, logger zerolog.Logger, pool *pgxpool.Pool, cache catalog.Cache) (http.Handler, error) {
	validate := validation.New()

	fileStorage, err := media.NewFileStorage(cfg.Media.Root, cfg.Media.URL)
	if err != nil {
		return nil, err
	}

	authStore := auth.NewPgStore(pool)
	authService := auth.NewAuthService(authStore, *cfg.Auth)
	authHandlers := auth.NewHandlers(authService, validate)

	userHandlers := users.NewUserHandlers(users.NewUserService(users.NewPgStore(pool)), cfg.App.DefaultPageSize)

	catalogService := catalog.NewService(catalog.NewPgStore(pool), cache)
	catalogHandlers := catalog.NewHandlers(catalogService, validate)

	recipeService := recipes.NewService(
		recipes.NewPgStore(pool),
		catalogService,
		fileStorage,
		authStore,
		validate,
		cfg.App.Name,
		logger,
	)
	recipeHandlers := recipes.NewHandlers(recipeService, cfg.App.DefaultPageSize,
		cfg.App.ShoppingListFilename, cfg.App.ShoppingListMIME)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metrics.Middleware)
	r.Use(auth.JWTMiddleware(authService))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	mediaPrefix := "/" + strings.Trim(cfg.Media.URL, "/")
	r.Handle(mediaPrefix+"/*", http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(cfg.Media.Root))))

	r.Route("/api/auth", func(r chi.Router) {
		if cfg.Auth.LoginRatePerMinute > 0 {
			r.Use(httprate.LimitByIP(cfg.Auth.LoginRatePerMinute, time.Minute))
		}
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/login", authHandlers.HandleLogin())
		r.Post("/refresh", authHandlers.HandleRefreshToken())
	})

	r.Route("/api/users", func(r chi.Router) {
		r.With(auth.RequireAuthenticated).Post("/set_password", authHandlers.HandleSetPassword())
		userHandlers.RegisterRoutes(r)
	})
	r.Route("/api/ingredients", catalogHandlers.RegisterIngredientRoutes)
	r.Route("/api/tags", catalogHandlers.RegisterTagRoutes)
	r.Route("/api/recipes", recipeHandlers.RegisterRoutes)

	return r, nil
}

// recoverer turns a panic into the standard 500 error body.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				hlog.FromRequest(r).Error().Interface("panic", rvr).Bytes("stack", debug.Stack()).Msg("panic recovered")
				auth.WriteError(w, r, apperror.NewInternalError("internal server error", nil))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
