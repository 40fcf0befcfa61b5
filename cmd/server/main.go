package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fieldstack/matflow/internal/config"
	"github.com/fieldstack/matflow/internal/handler"
	"github.com/fieldstack/matflow/internal/middleware"
	"github.com/fieldstack/matflow/internal/model/entity"
	"github.com/fieldstack/matflow/internal/notifier"
	"github.com/fieldstack/matflow/internal/repository"
	"github.com/fieldstack/matflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting matflow service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := entity.AutoMigrate(db); err != nil {
		zapLogger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)
	n := notifier.NewNotifier(repos.Profile, repos.Outbox, zapLogger)
	services := service.NewServices(repos, rdb, n, cfg, zapLogger)
	handlers := handler.NewHandlers(services, cfg)

	// 后台邮件分发。未配置邮件网关时邮件只入库不外发。
	dispatchCtx, stopDispatcher := context.WithCancel(context.Background())
	defer stopDispatcher()
	if cfg.Mailer.Endpoint != "" {
		mailer := notifier.NewMailer(cfg.Mailer.Endpoint, cfg.Mailer.APIKey, cfg.Mailer.From)
		dispatcher := notifier.NewDispatcher(repos.Outbox, mailer, zapLogger, cfg.Mailer.PollInterval)
		go dispatcher.Run(dispatchCtx)
	} else {
		zapLogger.Warn("mailer endpoint not configured, outbox emails will not be delivered")
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	stopDispatcher()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 当前用户
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 物料申请单
			requests := authorized.Group("/requests")
			{
				requests.GET("", h.Request.List)
				requests.POST("", h.Request.Create)
				requests.GET("/:id", h.Request.Get)
				requests.PUT("/:id", h.Request.Update)
				requests.DELETE("/:id",
					middleware.RequireDepartment(entity.DeptRegionalManager),
					h.Request.Delete)

				// 生命周期操作，部门门槛在中间件 + 服务双重校验
				requests.POST("/:id/approve",
					middleware.RequireDepartment(entity.DeptRegionalManager),
					h.Request.Approve)
				requests.POST("/:id/reject",
					middleware.RequireDepartment(entity.DeptRegionalManager),
					h.Request.Reject)
				requests.POST("/:id/process",
					middleware.RequireDepartment(entity.DeptStoreManager),
					h.Request.Process)
				requests.POST("/:id/dispatch",
					middleware.RequireDepartment(entity.DeptStoreManager),
					h.Request.Dispatch)
				requests.POST("/:id/receive",
					middleware.RequireDepartment(entity.DeptEngineer),
					h.Request.Receive)
				requests.POST("/:id/return-received",
					middleware.RequireDepartment(entity.DeptStoreManager),
					h.Request.ReturnReceived)
				requests.POST("/:id/mrc-numbers",
					middleware.RequireDepartment(entity.DeptStoreManager),
					h.Request.MRCNumbers)
			}

			// 站内通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.POST("/:id/read", h.Notification.MarkRead)
			}

			// 报表
			authorized.GET("/reports/requests.xlsx", h.Report.ExportRegister)

			// 定时任务
			authorized.POST("/jobs/check-overdue-mrc", h.Job.CheckOverdueMRC)
		}
	}
}
