package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askly/askly/backend/go-services/handlers"
	"github.com/askly/askly/backend/go-services/internal/app"
	"github.com/askly/askly/backend/go-services/internal/config"
	"github.com/askly/askly/backend/go-services/internal/database"
	"github.com/askly/askly/backend/go-services/internal/question/handler"
	"github.com/askly/askly/backend/go-services/pkg/logger"
	"github.com/askly/askly/backend/go-services/pkg/metrics"
	"github.com/askly/askly/backend/go-services/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v vote_lock=%s", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Votes.LockMode)

	ctx := context.Background()

	r := gin.New()

	// Permissive CORS for dev; X-User-ID carries the caller identity.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+middleware.UserIDHeader)
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})
	r.Use(gin.Logger(), gin.Recovery())

	// Redis is optional: rate limiting and VOTE_LOCK=redis use it.
	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = client.Close()
		} else {
			rdb = client
			defer func() { _ = rdb.Close() }()
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// MongoDB with retry/backoff to tolerate startup races; memory repositories otherwise.
	var mongoClient *mongo.Client
	repos := app.MemoryRepositories()
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, time.Second)
		if err != nil {
			logger.Warnf("using in-memory repositories: %v", err)
		} else {
			mongoClient = client
			defer func() { _ = mongoClient.Disconnect(context.Background()) }()
			db := mongoClient.Database(cfg.MongoDB.Database)
			if err := database.EnsureIndexes(ctx, db); err != nil {
				logger.Fatalf("failed to ensure indexes: %v", err)
			}
			repos = app.MongoRepositories(db)
			logger.Infof("using MongoDB database %q", cfg.MongoDB.Database)
		}
	}

	locker, err := app.NewLocker(cfg.Votes, rdb)
	if err != nil {
		logger.Fatalf("vote lock: %v", err)
	}
	svc := app.NewServices(repos, app.Options{
		Locker:           locker,
		TaskTimeout:      cfg.Tasks.Timeout,
		UpvoteReputation: cfg.Reputation.UpvoteQuestion,
	})

	if err := handler.RegisterValidators(); err != nil {
		logger.Fatalf("register validators: %v", err)
	}
	handler.NewHandler(svc.Questions, svc.Answers, svc.Tags, svc.Users).Register(r.Group("/api/v1"))
	handlers.RegisterSwagger(r)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// ready only when every configured dependency is reachable
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		if cfg.MongoDB.URI != "" {
			ok := mongoClient != nil && mongoClient.Ping(c.Request.Context(), nil) == nil
			deps["mongo"] = ok
			ready = ready && ok
		} else {
			deps["mongo"] = true
		}

		redisNeeded := cfg.Votes.LockMode == config.VoteLockRedis || (cfg.RateLimit.Enabled && cfg.RateLimit.UseRedis)
		if cfg.Redis.Host != "" && redisNeeded {
			ok := rdb != nil && rdb.Ping(c.Request.Context()).Err() == nil
			deps["redis"] = ok
			ready = ready && ok
		} else {
			deps["redis"] = true
		}

		status, label := http.StatusOK, "ready"
		if !ready {
			status, label = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("starting askly service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	// let in-flight counter side effects land before the stores close
	svc.Tasks.Wait()
}
