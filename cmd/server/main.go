// @title           ImaginX Backend API
// @version         1.0.0
// @description     Backend API for ImaginX: LoRA model training on user photos and flux image generation. Training completion is reported by a signed Replicate webhook.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"imaginx-backend/docs"
	"imaginx-backend/internal/config"
	"imaginx-backend/internal/database"
	"imaginx-backend/internal/genstate"
	"imaginx-backend/internal/handlers"
	"imaginx-backend/internal/logging"
	"imaginx-backend/internal/middleware"
	"imaginx-backend/internal/notify"
	"imaginx-backend/internal/replicate"
	"imaginx-backend/internal/services"
	"imaginx-backend/internal/supabase"
	"imaginx-backend/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("production")
		fallback.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := logging.New(cfg.Environment)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if baseURL, err := url.Parse(cfg.SiteURL); err == nil && baseURL.Host != "" {
		docs.SwaggerInfo.Host = baseURL.Host
		if baseURL.Scheme == "https" {
			docs.SwaggerInfo.Schemes = []string{"https", "http"}
		} else {
			docs.SwaggerInfo.Schemes = []string{"http", "https"}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}
	dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database client")
	}
	defer dbClient.Close()

	if err := database.NewMigrator(dbClient.DB(), logger).Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize supabase client")
	}
	directory := supabaseClient.Directory()

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage client")
	}

	replicateClient := replicate.NewClient(cfg.ReplicateBaseURL, cfg.ReplicateAPIToken)

	var notifier services.Notifier
	if cfg.ResendAPIKey != "" {
		notifier = notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.EmailFrom, logger)
	} else {
		logger.Warn().Msg("RESEND_API_KEY not set, training notifications are only logged")
		notifier = notify.NewLogNotifier(logger)
	}

	var secrets webhook.SecretSource = webhook.StaticSecret(cfg.ReplicateWebhookKey)
	if cfg.ReplicateWebhookKey == "" {
		secrets = webhook.NewCachedSecret(replicateClient.GetWebhookSecret)
	}
	verifier := webhook.NewVerifier(secrets, cfg.WebhookTolerance)

	policy := services.DefaultProviderPolicy()
	policy.Timeout = cfg.ProviderTimeout
	policy.MaxRetries = cfg.ProviderMaxRetries

	uploadService := services.NewUploadService(storageClient, cfg.TrainingBucket)
	trainingService := services.NewTrainingService(services.TrainingConfig{
		Owner:          cfg.ReplicateOwner,
		TrainerOwner:   cfg.TrainerOwner,
		TrainerModel:   cfg.TrainerModel,
		TrainerVersion: cfg.TrainerVersion,
		Hardware:       cfg.TrainingHardware,
		Bucket:         cfg.TrainingBucket,
		SiteURL:        cfg.SiteURL,
	}, replicateClient, storageClient, dbClient, policy, logger)
	reconciler := services.NewReconciler(dbClient, storageClient, directory, notifier, cfg.TrainingBucket, logger)
	generationService := services.NewGenerationService(replicateClient, storageClient, dbClient, dbClient, policy,
		cfg.ReplicateOwner, cfg.ImagesBucket, cfg.PersistConcurrency, logger).
		WithDeliveryHosts(cfg.DeliveryHosts...)
	sessions := genstate.NewRegistry(generationService, cfg.GenerationSessionIdle, logger)

	trainingSync := services.NewTrainingSync(replicateClient, dbClient, reconciler, policy,
		cfg.TrainerOwner+"/"+cfg.TrainerModel, cfg.TrainingSyncInterval, logger)
	go trainingSync.Run(ctx)

	router := newRouter(cfg, logger, routes{
		health:   handlers.NewHealthHandler(dbClient),
		auth:     handlers.NewAuthHandler(directory),
		uploads:  handlers.NewUploadHandler(uploadService),
		training: handlers.NewTrainingHandler(trainingService),
		images:   handlers.NewImageHandler(sessions, generationService),
		webhook:  handlers.NewWebhookHandler(verifier, reconciler),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("environment", cfg.Environment).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	sessions.Wait()
	logger.Info().Msg("server stopped")
}

type routes struct {
	health   *handlers.HealthHandler
	auth     *handlers.AuthHandler
	uploads  *handlers.UploadHandler
	training *handlers.TrainingHandler
	images   *handlers.ImageHandler
	webhook  *handlers.WebhookHandler
}

func newRouter(cfg *config.Config, logger zerolog.Logger, h routes) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(logger))
	router.Use(middleware.Logger())
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", h.health.Health)

	// Webhook (no bearer auth, signed by Replicate)
	router.POST(services.WebhookPath, h.webhook.HandleTraining)

	public := router.Group("/api/v1/auth")
	public.POST("/signup", h.auth.Signup)
	public.POST("/login", h.auth.Login)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.SupabaseJWTSecret))

	api.POST("/uploads/sign", h.uploads.Sign)

	api.POST("/train", h.training.Train)
	api.GET("/models", h.training.ListModels)
	api.DELETE("/models/:id", h.training.DeleteModel)

	api.POST("/images/generate", h.images.Generate)
	api.GET("/images/generation", h.images.Generation)
	api.POST("/images/store", h.images.Store)
	api.GET("/images", h.images.List)
	api.DELETE("/images/:id", h.images.Delete)

	return router
}
