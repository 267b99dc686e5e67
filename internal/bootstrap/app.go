package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	// --- 导入内部包 ---
	httpHandler "github.com/tawityagi/secrets/internal/handler/http"
	mongopersistence "github.com/tawityagi/secrets/internal/infra/persistence/mongo"
	redissession "github.com/tawityagi/secrets/internal/infra/session/redis"
	"github.com/tawityagi/secrets/internal/infra/setup"
	"github.com/tawityagi/secrets/internal/middleware"
	"github.com/tawityagi/secrets/internal/service"
)

// Config 结构体用于存储从环境变量或文件加载的配置
// 进程启动时加载一次，之后不可变。
type Config struct {
	MongoURI           string
	MongoDB            string
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	SessionSecret      string
	SessionTTLHours    int
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	ServerPort         string
	LogLevel           string
	AppEnv             string // 应用环境 (development/production)
	KeyPrefix          string // Redis Key 前缀
}

// LoadConfig 从环境变量加载配置
func LoadConfig() (*Config, error) {
	// 优先加载 .env 文件 (如果存在)
	_ = godotenv.Load() // 忽略错误，允许只使用环境变量

	cfg := &Config{
		MongoURI:           os.Getenv("MONGO_URI"),
		MongoDB:            os.Getenv("MONGO_DB"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
		ServerPort:         os.Getenv("SERVER_PORT"),
		LogLevel:           os.Getenv("LOG_LEVEL"),
		AppEnv:             os.Getenv("APP_ENV"),
		KeyPrefix:          os.Getenv("REDIS_KEY_PREFIX"),
	}

	// 处理数值型变量，解析失败时保持零值走默认分支
	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))
	cfg.SessionTTLHours, _ = strconv.Atoi(os.Getenv("SESSION_TTL_HOURS"))

	// --- 设置默认值和进行必要检查 ---
	if cfg.MongoDB == "" {
		cfg.MongoDB = "secrets"
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "3000"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "secrets:"
	}
	if cfg.SessionTTLHours <= 0 {
		cfg.SessionTTLHours = 24
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("environment variable MONGO_URI must be set")
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("environment variable SESSION_SECRET must be set")
	}

	// 验证日志级别
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}

	return cfg, nil
}

// App 结构体包含应用的所有组件和配置
type App struct {
	Config      *Config
	Log         *logrus.Logger
	MongoClient *mongo.Client
	RedisClient *redis.Client
	HttpServer  *http.Server
}

// NewApp 创建并初始化应用的所有组件
func NewApp() (*App, error) {
	// 1. 加载配置
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	// 2. 初始化 Logger
	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel) // cfg.LogLevel 已被 LoadConfig 验证
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Info("Configuration loaded successfully")

	// 3. 初始化基础设施
	log.Info("Initializing infrastructure...")
	ctx := context.Background()
	mongoClient, db, err := setup.InitMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Mongo: %w", err)
	}
	log.Info("MongoDB connected")

	redisClient, err := setup.InitRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis connected")

	// 4. 初始化 Repositories
	log.Info("Initializing repositories...")
	userRepo := mongopersistence.NewMongoUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}
	sessionRepo := redissession.NewRedisSessionRepository(redisClient, cfg.KeyPrefix)
	log.Info("Repositories initialized")

	// 5. 初始化 Services
	log.Info("Initializing services...")
	authService := service.NewAuthService(userRepo)
	federationService := service.NewFederationService(userRepo)
	secretService := service.NewSecretService(userRepo)
	sessionManager, err := service.NewSessionManager(sessionRepo, userRepo, cfg.SessionSecret, cfg.SessionTTLHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create SessionManager: %w", err)
	}
	log.Info("Services initialized")

	// 6. 初始化 Handlers
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleCallbackURL,
		Scopes:       []string{"profile"},
		Endpoint:     google.Endpoint,
	}
	authHandler := httpHandler.NewAuthHandler(authService, sessionManager)
	oauthHandler := httpHandler.NewOAuthHandler(oauthConfig, federationService, authHandler)
	secretHandler := httpHandler.NewSecretHandler(secretService)
	log.Info("Handlers initialized")

	// 7. 初始化 Gin Engine 和路由
	log.Info("Setting up Gin router...")
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(middleware.Session(sessionManager))
	router.LoadHTMLGlob("web/templates/*.html")

	// --- 公开路由 ---
	router.GET("/", secretHandler.Home)
	router.GET("/register", authHandler.RegisterForm)
	router.POST("/register", authHandler.Register)
	router.GET("/login", authHandler.LoginForm)
	router.POST("/login", authHandler.Login)
	router.GET("/logout", authHandler.Logout)
	router.GET("/auth/google", oauthHandler.Authorize)
	router.GET("/auth/google/secrets", oauthHandler.Callback)

	// --- 受保护路由 ---
	protected := router.Group("/").Use(middleware.RequireLogin())
	{
		protected.GET("/secrets", secretHandler.Secrets)
		protected.GET("/submit", secretHandler.SubmitForm)
		protected.POST("/submit", secretHandler.Submit)
		protected.GET("/category", secretHandler.CategoryForm)
		protected.POST("/category", secretHandler.Category)
	}
	log.Info("Router setup complete")

	// 8. 初始化 HTTP Server
	httpServer := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	// 9. 组装 App 对象
	app := &App{
		Config:      cfg,
		Log:         log,
		MongoClient: mongoClient,
		RedisClient: redisClient,
		HttpServer:  httpServer,
	}
	log.Info("Application assembled successfully")

	return app, nil
}

// Start 启动 HTTP 服务器
func (a *App) Start() {
	go func() {
		a.Log.Infof("HTTP server starting to listen on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
		a.Log.Info("HTTP server stopped listening.")
	}()
}

// Shutdown 优雅地关闭应用
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	// 1. 优雅关闭 HTTP 服务器
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	} else {
		a.Log.Info("HTTP server shut down gracefully.")
	}

	// 2. 关闭 Redis 连接
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		} else {
			a.Log.Info("Redis connection closed.")
		}
	}

	// 3. 断开 MongoDB 连接
	if a.MongoClient != nil {
		if err := a.MongoClient.Disconnect(ctx); err != nil {
			a.Log.Errorf("Error disconnecting from MongoDB: %v", err)
		} else {
			a.Log.Info("MongoDB connection closed.")
		}
	}

	a.Log.Info("Application shutdown complete.")
}

// LoggerMiddleware 创建一个 Gin 中间件用于记录请求日志
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next() // 处理请求
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		// 区分状态码记录日志级别
		if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request handled")
		}
	}
}
