package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the repositories, services and handlers and returns the root
// HTTP handler together with the DB pool for shutdown.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// 1. Open DB connection pool
	dsn := cfg.DBConnectionString
	// Local databases usually run without TLS; production connection
	// strings are expected to carry their own sslmode.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DB pool")
		return nil, nil, err
	}
	if err := pool.Ping(context.Background()); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize S3 client
	s3Config, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		pool.Close()
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})
	presigner := service.NewS3Presigner(s3Client, cfg.S3Bucket)

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Initialize Pub/Sub publisher. Without a project id the story
	// service generates pages in-process instead of via the job queue.
	var publisher pubsub.Publisher
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(context.Background(), cfg.GCPProjectID)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			pool.Close()
			return nil, nil, err
		}
		publisher = p
	}

	// 5. Initialize repositories, services and handlers
	userRepo := repository.NewUserRepo(pool)
	creditRepo := repository.NewCreditRepo(pool)
	creationLogRepo := repository.NewCreationLogRepo(pool)
	charRepo := repository.NewCharacterRepo(pool)
	storyRepo := repository.NewStoryRepo(pool)
	subRepo := repository.NewSubscriptionRepo(pool)
	tokenRepo := repository.NewTokenRepo(pool)

	creditSvc := service.NewCreditService(creditRepo, subRepo, logger)
	charSvc := service.NewCharacterService(charRepo, creationLogRepo, creditSvc,
		cfg.HeroCreditCost, cfg.CreationWindowDays, cfg.CreationMaxPerWindow, logger)
	pageSvc := service.NewPageService(storyRepo, charRepo, logger)
	storySvc := service.NewStoryService(storyRepo, charRepo, pageSvc, publisher, cfg.PageJobsTopic, logger)
	stripeSvc := service.NewStripeService(cfg, userRepo, subRepo, creditRepo, logger)
	mediaSvc := service.NewMediaService(charRepo, storyRepo, presigner,
		time.Duration(cfg.SignedURLTTLMinutes)*time.Minute, logger)
	reminderSvc := service.NewReminderService(tokenRepo, userRepo,
		time.Duration(cfg.ReminderTokenTTLHours)*time.Hour, logger)

	heroHandler := handler.NewHeroHandler(charSvc, validate, logger)
	storyHandler := handler.NewStoryHandler(storySvc, pageSvc, validate, logger)
	billingHandler := handler.NewBillingHandler(stripeSvc, creditSvc, validate, logger)
	mediaHandler := handler.NewMediaHandler(mediaSvc, validate, logger)
	jobsHandler := handler.NewJobsHandler(pageSvc, logger)
	reminderHandler := handler.NewReminderHandler(reminderSvc, logger)

	// 6. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)
	isLocalDev := cfg.PubSubEmulatorHost != ""
	pushAuthMiddleware := middleware.PubSubAuthMiddleware(isLocalDev, cfg.PubSubPushAudience, cfg.PubSubPushServiceAccountEmail, logger)
	reminderRateLimit := middleware.IPRateLimit(time.Second, 5, logger)

	// 7. Create ServeMux router and mount the API under /v1
	apiV1Mux := http.NewServeMux()
	heroHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	storyHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	billingHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	mediaHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	jobsHandler.RegisterRoutes(apiV1Mux, pushAuthMiddleware)
	reminderHandler.RegisterRoutes(apiV1Mux, reminderRateLimit)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 8. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services. See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
