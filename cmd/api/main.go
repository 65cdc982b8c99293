package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"prepvault/internal/httpserver"
	"prepvault/internal/identity"
	"prepvault/internal/logger"
	"prepvault/internal/models"
	"prepvault/internal/services/activity"
	"prepvault/internal/services/companies"
	"prepvault/internal/services/questions"
	"prepvault/internal/services/ratelimit"
	"prepvault/internal/services/search"
	"prepvault/internal/services/tips"
	"prepvault/internal/uploads"
)

func main() {
	_ = godotenv.Load()
	lg := logger.New()
	defer lg.Sync()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Question{},
		&models.OwnershipTransfer{},
		&models.Claim{},
		&models.VisitedQuestion{},
		&models.CompanyTip{},
		&models.ActivityLog{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	audit := activity.NewRecorder(db, lg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	audit.StartRetentionLoop(ctx)

	limiter := ratelimit.NewLimiter(newCounter(lg), lg)

	provider := identity.NewOAuthProviderFromEnv()
	deps := httpserver.Deps{
		DB:        db,
		Log:       lg,
		Provider:  provider,
		Identity:  identity.NewService(db, lg, os.Getenv("SUPER_ADMIN_ENROLLMENT")),
		Questions: questions.NewStore(db, lg, audit),
		Search:    search.NewEngine(db),
		Companies: companies.NewDirectory(db, lg),
		Tips:      tips.NewService(db, lg),
		Limiter:   limiter,
		Audit:     audit,
		Uploader:  newUploader(lg),
	}
	router := httpserver.NewRouter(deps)

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	lg.Infow("listening", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}

// newCounter connects the admission controller's counter store. A missing or
// unreachable Redis is not fatal: the limiter fails open and logs the skips.
func newCounter(lg *zap.SugaredLogger) ratelimit.Counter {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		lg.Warnw("REDIS_ADDR not configured, rate limiting disabled")
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    os.Getenv("REDIS_PASSWORD"),
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		lg.Warnw("redis unreachable at startup, rate limiting will fail open", "error", err)
	}
	return ratelimit.NewRedisCounter(rdb)
}

func newUploader(lg *zap.SugaredLogger) uploads.Uploader {
	u := uploads.NewHTTPUploaderFromEnv()
	if u == nil {
		lg.Warnw("IMAGE_HOST_URL not configured, logo uploads disabled")
		return nil
	}
	return u
}
