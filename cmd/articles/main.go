package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/draftdesk/draftdesk/backend/go-services/handlers"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/article/guard"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/article/handler"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/article/repository"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/article/service"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/collaborators"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/config"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/database"
	"github.com/draftdesk/draftdesk/backend/go-services/internal/storage"
	"github.com/draftdesk/draftdesk/backend/go-services/pkg/logger"
	"github.com/draftdesk/draftdesk/backend/go-services/pkg/metrics"
	"github.com/draftdesk/draftdesk/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v threshold=%d",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "", cfg.Editing.SnapshotThreshold)

	ctx := context.Background()
	r := gin.New()

	// Lightweight CORS for dev; production sits behind the gateway.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+middleware.CollaboratorHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	r.Use(gin.Logger(), gin.Recovery())

	var redisClient *redis.Client
	if addr := cfg.RedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = client.Close()
		} else {
			redisClient = client
			defer func() { _ = redisClient.Close() }()
			logger.Infof("connected to Redis: %s", addr)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	opts := service.Options{
		Articles:          repository.NewMemoryRepo(),
		Versions:          repository.NewMemoryVersions(),
		SnapshotThreshold: cfg.Editing.SnapshotThreshold,
	}
	var people collaborators.Repository = collaborators.NewMemoryRepository()
	mongoReady := false

	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Warnf("%v; using memory-backed stores", err)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			opts.Articles = repository.NewMongoRepo(db.Collection("articles"))
			opts.Versions = repository.NewMongoVersions(db.Collection("article_versions"))
			people = collaborators.NewMongoRepository(db.Collection("collaborators"))
			mongoReady = true
		}
	}

	// A shared critical section is only needed when several replicas share
	// the store; an in-process guard is enough otherwise.
	if redisClient != nil && mongoReady {
		opts.Guard = guard.NewRedis(redisClient, "", cfg.Editing.GuardTTL, cfg.Editing.GuardRetries)
		logger.Infof("using Redis edit guard (ttl=%s retries=%d)", cfg.Editing.GuardTTL, cfg.Editing.GuardRetries)
	} else {
		opts.Guard = guard.NewLocal()
	}

	if cfg.MinIO.Endpoint != "" {
		archive, err := storage.NewSnapshotArchive(&cfg.MinIO)
		if err != nil {
			logger.Warnf("snapshot archive disabled: %v", err)
		} else {
			opts.Archive = archive
			logger.Infof("archiving snapshots to bucket %s", cfg.MinIO.Bucket)
		}
	}

	collabSvc := collaborators.NewService(people)
	opts.Collaborators = collabSvc
	svc := service.New(opts)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{"mongo": true, "redis": true}
		if cfg.MongoDB.URI != "" && !mongoReady {
			deps["mongo"] = false
			ready = false
		}
		if cfg.Redis.Host != "" && redisClient == nil {
			deps["redis"] = false
			ready = false
		}
		deps["archive"] = opts.Archive != nil
		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	handler.RegisterArticleRoutes(r, svc, collabSvc)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Infof("starting article service on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server failed: %v", err)
	}
}
