package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgo/recipebook/internal/config"
	"github.com/forgo/recipebook/internal/handler"
	"github.com/forgo/recipebook/internal/jobs"
	"github.com/forgo/recipebook/internal/metrics"
	"github.com/forgo/recipebook/internal/middleware"
	"github.com/forgo/recipebook/internal/service"
	"github.com/forgo/recipebook/internal/storage"
	"github.com/forgo/recipebook/pkg/jwt"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the recipe book HTTP API until SIGINT or SIGTERM.

Pending migrations are applied first when database.auto_migrate is set.
The draft pruner runs on its configured schedule, and a config file given
with --config is watched so the log level can change without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts, cfg, cmd)
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "", "override the configured listen port")

	return cmd
}

func runServe(ctx context.Context, opts *RootOptions, cfg *config.Config, cmd *cobra.Command) error {
	logger, level := newLogger(cfg, cmd)
	slog.SetDefault(logger)

	store, err := openBackend(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if cfg.Database.AutoMigrate {
		applied, err := store.Migrator.Up(ctx)
		if err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("database migrated", slog.Int("applied", len(applied)))
	}

	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service (run `recipebook keys` first): %w", err)
	}

	var collector *metrics.Collector
	var recipeMetrics service.RecipeMetrics
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		recipeMetrics = collector
	}

	images := storage.NewLocalImageStore(cfg.Uploads.Dir, logger)
	recipeService := service.NewRecipeService(service.RecipeServiceConfig{
		RecipeRepo:     store.Recipes,
		IngredientRepo: store.Ingredients,
		Images:         images,
		Metrics:        recipeMetrics,
		MaxImageBytes:  cfg.Uploads.MaxBytes,
		Logger:         logger,
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:   store.Users,
		JWTService: jwtService,
		Logger:     logger,
	})

	prunerCfg := jobs.DraftPrunerConfig{
		Recipes:  recipeService,
		Schedule: cfg.Jobs.DraftPruneSchedule,
		MaxAge:   cfg.Jobs.DraftMaxAge,
		Logger:   logger,
	}
	if collector != nil {
		prunerCfg.Metrics = collector
	}
	pruner := jobs.NewDraftPruner(prunerCfg)
	if err := pruner.Start(ctx); err != nil {
		return err
	}
	defer pruner.Stop()

	if opts.ConfigPath != "" {
		go func() {
			err := config.Watch(ctx, opts.ConfigPath, logger, func(next *config.Config) {
				l, err := next.Log.SlogLevel()
				if err != nil || l == level.Level() {
					return
				}
				level.Set(l)
				logger.Info("log level changed", slog.String("level", l.String()))
			})
			if err != nil {
				logger.Warn("config watch stopped", slog.String("error", err.Error()))
			}
		}()
	}

	var limiter *middleware.RateLimiter
	if cfg.Server.AuthRateLimit > 0 {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:   cfg.Server.AuthRateLimit,
			Window: time.Minute,
		})
		defer limiter.Stop()
	}
	idempotency := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{TTL: cfg.Server.IdempotencyTTL})
	defer idempotency.Stop()

	router := handler.NewRouter(handler.RouterConfig{
		Recipes: handler.NewRecipeHandler(handler.RecipeHandlerConfig{
			Recipes:        recipeService,
			Images:         images,
			MaxUploadBytes: cfg.Uploads.MaxBytes,
			Logger:         logger,
		}),
		Auth:           handler.NewAuthHandler(authService, logger),
		Tokens:         jwtService,
		DB:             handler.PingFunc(store.Ping),
		Metrics:        collector,
		MetricsPath:    cfg.Metrics.Path,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthLimiter:    limiter,
		Idempotency:    idempotency,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("driver", cfg.Database.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	logger.Info("server exited")
	return nil
}
