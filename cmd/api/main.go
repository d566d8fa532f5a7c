package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/quillpost/server/internal/auth"
	"github.com/quillpost/server/internal/blog"
	"github.com/quillpost/server/internal/category"
	"github.com/quillpost/server/internal/config"
	"github.com/quillpost/server/internal/db"
	"github.com/quillpost/server/internal/filemanager"
	httphandler "github.com/quillpost/server/internal/http"
	"github.com/quillpost/server/internal/logging"
	"github.com/quillpost/server/internal/notify"
	"github.com/quillpost/server/internal/repo"
	"github.com/quillpost/server/internal/storage"
	"github.com/quillpost/server/internal/users"
)

func main() {
	// Load .env from CWD or server/ so it works from repo root or server/ (env vars override)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("server/.env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Development(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// Create context for startup operations
	ctx := context.Background()

	// Open database connection
	database, err := db.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	if err := db.Migrate(database.DB); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	guard, closeGuard := newAttemptGuard(ctx, cfg, logger)
	defer closeGuard()

	store, uploadDir, err := newStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize storage", zap.Error(err))
	}

	sender, err := newCodeSender(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize code delivery", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repo.NewUserRepo(database)
	otpRepo := repo.NewOtpRepo(database)
	profileRepo := repo.NewProfileRepo(database)
	categoryRepo := repo.NewCategoryRepo(database)
	blogRepo := repo.NewBlogRepo(database)
	commentRepo := repo.NewCommentRepo(database)
	fileRepo := repo.NewFileRepo(database)

	// Initialize services
	tokens := auth.NewTokenService(cfg.OTPTokenSecret, cfg.AccessTokenSecret)
	authService := auth.NewAuthService(userRepo, otpRepo, tokens, guard, cfg.PhoneRegion,
		auth.WithSender(sender),
		auth.WithLogger(logger.Named("auth")),
	)

	router := httphandler.NewRouter(httphandler.Services{
		Auth:     authService,
		Users:    users.NewService(userRepo, profileRepo, store),
		Category: category.NewService(categoryRepo),
		Blog:     blog.NewService(blogRepo, categoryRepo, commentRepo, store),
		Files:    filemanager.NewService(fileRepo, store),
	}, httphandler.Options{
		Logger:         logger.Named("http"),
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
		UploadDir:      uploadDir,
	})

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// newAttemptGuard uses Redis when REDIS_URL is set and reachable, otherwise
// an in-process guard.
func newAttemptGuard(ctx context.Context, cfg *config.Config, logger *zap.Logger) (auth.AttemptGuard, func()) {
	memory := auth.NewMemoryGuard(auth.MaxFailedAttempts, auth.LockoutWindow)
	if cfg.RedisURL == "" {
		return memory, func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("invalid REDIS_URL", zap.Error(err))
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, falling back to in-process attempt guard", zap.Error(err))
		_ = client.Close()
		return memory, func() {}
	}

	logger.Info("attempt guard backed by redis", zap.String("addr", opts.Addr))
	return auth.NewRedisGuard(client, auth.MaxFailedAttempts, auth.LockoutWindow), func() { _ = client.Close() }
}

// newStore returns the upload store and, for local storage, the directory to serve
func newStore(ctx context.Context, cfg *config.Config) (storage.Store, string, error) {
	if cfg.Storage.Driver == "s3" {
		client, err := storage.NewS3Client(ctx, cfg.AWS)
		if err != nil {
			return nil, "", err
		}
		return storage.NewS3Store(client, cfg.Storage.S3Bucket, cfg.AWS), "", nil
	}
	local, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.BaseURL)
	if err != nil {
		return nil, "", err
	}
	return local, local.Root(), nil
}

// newCodeSender wires SNS for phones and SMTP for emails when configured
func newCodeSender(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*notify.Dispatcher, error) {
	var sms notify.SMSSender
	if cfg.SNSEnabled {
		s, err := notify.NewSNSSender(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		sms = s
	}
	var mail notify.Mailer
	if cfg.SMTP.Host != "" {
		mail = notify.NewMailer(cfg.SMTP)
	}
	return notify.NewDispatcher(sms, mail, logger.Named("notify")), nil
}
