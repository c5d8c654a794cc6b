package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/skyfield/listenerd/handlers"
	"github.com/skyfield/listenerd/internal/attachments"
	"github.com/skyfield/listenerd/internal/auth"
	"github.com/skyfield/listenerd/internal/config"
	"github.com/skyfield/listenerd/internal/database"
	"github.com/skyfield/listenerd/internal/operators"
	"github.com/skyfield/listenerd/internal/registry"
	"github.com/skyfield/listenerd/internal/sessions"
	"github.com/skyfield/listenerd/internal/validation"
	"github.com/skyfield/listenerd/internal/views"
	"github.com/skyfield/listenerd/pkg/logger"
	"github.com/skyfield/listenerd/pkg/metrics"
	"github.com/skyfield/listenerd/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// logging level controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: keycloak=%v mongo=%v redis=%v minio=%v",
		cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS middleware for dev/test: production should use a stricter policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// shared runtime vars used by handlers/readiness
	var verifier auth.Verifier
	var operatorsSvc *operators.Service
	var sessionsSvc *sessions.Service

	// Connect to Redis early so the rate limiter and blacklist can use it
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(context.Background()).Err(); err == nil {
			sessions.SetBlacklistClient(redisClient)
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		} else {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		}
	}

	// Optional global rate limiter (per-operator when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["sessions"] = sessionsSvc != nil
		deps["operators"] = operatorsSvc != nil

		if cfg.Keycloak.URL != "" || cfg.JWT.Secret != "" {
			deps["auth"] = verifier != nil
			if verifier == nil {
				ready = false
			}
		} else {
			deps["auth"] = true
		}

		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = redisClient != nil
			if redisClient == nil {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := gin.H{"deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			status["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		c.JSON(http.StatusOK, status)
	})

	// token verifier: Keycloak OIDC when configured, otherwise our own HMAC
	// tokens, with an explicit insecure fallback for integration tests
	ctx := context.Background()
	if cfg.Keycloak.URL != "" && cfg.Keycloak.ClientID != "" && cfg.Keycloak.Realm != "" {
		issuer := strings.TrimRight(cfg.Keycloak.URL, "/") + "/realms/" + cfg.Keycloak.Realm
		ver, err := auth.NewOIDCVerifier(ctx, issuer, cfg.Keycloak.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && cfg.JWT.Secret != "" {
		verifier = auth.NewHMACVerifier(cfg.JWT.Secret)
		logger.Infof("using HMAC token verifier")
	}
	if verifier == nil {
		if strings.ToLower(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN"))) == "true" {
			logger.Warn("enabling insecure token verifier (integration mode)")
			verifier = auth.NewInsecureVerifier()
		}
	}

	// Prefer Redis-based sessions when available
	if redisClient != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"))
		logger.Infof("using Redis for session storage")
	}

	// MongoDB-backed stores: registry documents, view index, operators and
	// (when Redis is absent) sessions. Falls back to in-memory storage so the
	// registry stays usable in dev without any backing services.
	var repo registry.Repository
	var index views.Index
	if cfg.MongoDB.URI != "" {
		// retry with backoff to tolerate startup races
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)

			repo = registry.NewMongoRepo(db.Collection("documents"))
			index = views.NewMongoIndex(db.Collection("listener_view"))

			operatorsSvc = operators.NewService(operators.NewMongoRepository(db.Collection("operators")))
			if sessionsSvc == nil {
				sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
			}
		}
	}
	if repo == nil {
		logger.Warnf("MongoDB unavailable; using in-memory document store")
		repo = registry.NewMemoryRepo()
		index = views.NewMemoryIndex()
	}

	// attachment store (optional)
	var store *attachments.Store
	if cfg.MinIO.Endpoint != "" {
		store, err = attachments.NewStore(cfg.MinIO)
		if err != nil {
			logger.Warnf("attachment store unavailable: %v", err)
			store = nil
		}
	}

	// registry service with the full hook set
	registrySvc := registry.NewService(repo, validation.Default(), index)

	// auth handlers need operator + session services (Mongo and/or Redis)
	if operatorsSvc != nil && sessionsSvc != nil {
		handlers.NewAuthHandler(cfg, operatorsSvc, sessionsSvc).Register(r.Group("/"))
	} else {
		logger.Warnf("auth handlers not registered because operator/session services are unavailable")
	}

	handlers.RegisterSwagger(r)

	// document routes: writes require a verified token when a verifier exists
	var authed []gin.HandlerFunc
	if verifier != nil {
		var rolesFn middleware.RolesFunc
		if operatorsSvc != nil {
			rolesFn = func(ctx context.Context, sub string) []string {
				roles, err := operatorsSvc.RolesFor(ctx, sub)
				if err != nil {
					logger.Warnf("role lookup failed for %s: %v", sub, err)
					return nil
				}
				return roles
			}
		}
		authed = append(authed, middleware.AuthMiddleware(verifier, rolesFn))
	} else {
		logger.Warnf("no token verifier configured; document writes run with anonymous user context")
	}
	handlers.NewDocsHandler(registrySvc, index, store).Register(r.Group("/"), authed...)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("config summary: keycloak=%v mongo=%v redis=%v jwt_secret_set=%v",
		cfg.Keycloak.URL != "", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.JWT.Secret != "")
	logger.Infof("starting listenerd on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
