package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"study-backend/internal/contents"
	"study-backend/internal/extract"
	"study-backend/internal/generation"
	"study-backend/internal/llm"
	openai "study-backend/internal/llm/openai"
	"study-backend/internal/materials"
	"study-backend/internal/processor"
	"study-backend/internal/queue"
	"study-backend/internal/services/health"
	"study-backend/internal/shared/auth"
	"study-backend/internal/shared/config"
	"study-backend/internal/shared/server"
	"study-backend/internal/shared/server/middleware"
	"study-backend/internal/shared/storage/db"
	"study-backend/internal/shared/storage/object"
	localstore "study-backend/internal/shared/storage/object/local"
	s3store "study-backend/internal/shared/storage/object/s3"
	"study-backend/internal/shared/telemetry"
	"study-backend/internal/uploads"
)

// App holds shared dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Store            object.ObjectStore
	Queue            queue.Client
	MaterialsRepo    materials.Repo
	ContentsRepo     contents.Repo
	Gateway          llm.Completer
	Extractor        *extract.Extractor
	Processor        *processor.Service
	MaterialsService *materials.Service
	Health           *health.Service
	Uploads          *uploads.Handler

	closers []func() error
}

// Build prepares every dependency and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if err := telemetry.Init(cfg.Env); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gateway, err := buildGateway(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Store:   store,
		Queue:   queueClient,
		Gateway: gateway,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	if cfg.ObjectStoreType == "s3" {
		app.Uploads, err = uploads.NewHandler(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, err
		}
	}

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.Env)
	if err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		Verifier:         verifier,
		Health:           app.Health,
		MaterialsHandler: materials.NewHandler(app.MaterialsService),
		ProcessHandler:   processor.NewHandler(app.Processor),
		UploadsHandler:   app.Uploads,
		RateLimiter:      middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
}

func buildGateway(cfg config.Config) (llm.Completer, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" && isDevLike(cfg.Env) {
		telemetry.Warn("bootstrap.provider_unconfigured", map[string]any{"model": cfg.LLMModel})
		return unconfiguredGateway(), nil
	}
	transport, err := openai.NewTransport(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}
	return llm.NewGateway(transport, llm.RetryPolicy{
		MaxAttempts: cfg.LLMMaxRetries + 1,
		BaseDelay:   cfg.LLMRetryBase,
	}), nil
}

func buildServices(ctx context.Context, app *App) error {
	if app.DB != nil {
		app.MaterialsRepo = &materials.PGRepo{DB: app.DB}
		app.ContentsRepo = &contents.PGRepo{DB: app.DB}
	} else {
		app.MaterialsRepo = materials.NewMemoryRepo()
		app.ContentsRepo = contents.NewMemoryRepo()
	}

	cache, err := buildCache(ctx, app)
	if err != nil {
		return err
	}

	app.Extractor = &extract.Extractor{
		Store:    app.Store,
		Gateway:  app.Gateway,
		Bucket:   app.Config.MaterialsBucket,
		Cache:    cache,
		CacheTTL: app.Config.ExtractionTTL,
	}

	app.Processor = &processor.Service{
		Materials:        app.MaterialsRepo,
		Contents:         app.ContentsRepo,
		Extractor:        app.Extractor,
		Gateway:          app.Gateway,
		Strategies:       generation.Default(),
		MaxContentLength: app.Config.MaxContentLen,
		MarkFailed:       app.Config.MarkFailed,
	}

	var jobs materials.JobQueue
	if app.Queue != nil {
		jobs = &queue.Publisher{Client: app.Queue, Now: time.Now}
	}
	app.MaterialsService = &materials.Service{
		Repo:     app.MaterialsRepo,
		Contents: app.ContentsRepo,
		Store:    app.Store,
		Queue:    jobs,
	}

	var pinger health.Pinger
	if app.DB != nil {
		pinger = app.DB
	}
	app.Health = health.NewService(pinger, app.Config.ObjectStoreType, app.Config.LLMModel)
	return nil
}

func buildCache(ctx context.Context, app *App) (extract.Cache, error) {
	if strings.TrimSpace(app.Config.RedisURL) == "" {
		return extract.NewMemoryCache(), nil
	}
	cache, closeFn, err := extract.NewRedisCache(ctx, app.Config.RedisURL)
	if err != nil {
		if isDevLike(app.Config.Env) {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err.Error()})
			return extract.NewMemoryCache(), nil
		}
		return nil, err
	}
	app.closers = append(app.closers, closeFn)
	return cache, nil
}

// unconfiguredGateway fails every completion so dev servers start without provider credentials.
func unconfiguredGateway() llm.Completer {
	return llm.CompleterFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return "", &llm.ProviderError{Message: "OPENAI_API_KEY is not configured", Attempts: 1}
	})
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
