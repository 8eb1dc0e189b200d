package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/procure/internal/config"
	"github.com/bitfantasy/procure/internal/middleware"
	"github.com/bitfantasy/procure/internal/procure/entity"
	"github.com/bitfantasy/procure/internal/procure/handler"
	"github.com/bitfantasy/procure/internal/procure/repository"
	"github.com/bitfantasy/procure/internal/procure/service"
	"github.com/bitfantasy/procure/internal/sse"
	"github.com/bsm/redislock"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
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
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

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

	zapLogger.Info("Starting procure service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Customer{},
		&entity.SalesPO{},
		&entity.PurchaseRequest{},
		&entity.PRItem{},
		&entity.Assignment{},
		&entity.Supplier{},
		&entity.RFQ{},
		&entity.Quotation{},
		&entity.SupplierSelection{},
		&entity.Payment{},
		&entity.ActivityLog{},
		&entity.Notification{},
	); err != nil {
		zapLogger.Warn("AutoMigrate warning", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	// 初始化Redis（锁和缓存；连不上时退化为CAS-only并发保护）
	rdb := initRedis(cfg.Redis)
	var locker *redislock.Client
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zapLogger.Warn("Redis unavailable, running without distributed locks", zap.Error(err))
		rdb = nil
	} else {
		locker = redislock.New(rdb)
	}

	// SSE hub
	hub := sse.NewHub()

	// 初始化依赖
	repos := repository.NewRepositories(db, zapLogger)

	notificationSvc := service.NewNotificationService(repos.Notification, hub, zapLogger)
	prSvc := service.NewPRService(repos.PR, repos.Assignment, repos.Payment, repos.ActivityLog, notificationSvc, zapLogger)
	if locker != nil {
		prSvc.SetLocker(locker)
	}
	assignmentSvc := service.NewAssignmentService(repos.Assignment, repos.PR, repos.ActivityLog, notificationSvc)
	rfqSvc := service.NewRFQService(repos.RFQ, repos.PR, repos.Assignment, repos.Supplier, repos.ActivityLog, prSvc, notificationSvc, zapLogger)
	budgetSvc := service.NewBudgetService(repos.SalesPO, repos.Payment, repos.PR, repos.ActivityLog, rdb, zapLogger)
	supplierSvc := service.NewSupplierService(repos.Supplier, repos.ActivityLog)
	customerSvc := service.NewCustomerService(repos.Customer, repos.ActivityLog)
	dashboardSvc := service.NewDashboardService(repos.PR, repos.SalesPO, budgetSvc, zapLogger)

	handlers := handler.NewHandlers(prSvc, assignmentSvc, rfqSvc, budgetSvc, supplierSvc, customerSvc, notificationSvc, dashboardSvc, repos.ActivityLog, hub)

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
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: 0, // Disable for SSE long-lived connections
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
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
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
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
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
		// SSE 实时推送（需要认证，支持 query param token）
		sseGroup := v1.Group("/procure/sse")
		sseGroup.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			sseGroup.GET("/events", h.Notification.Stream)
		}

		// 需要认证的接口
		authorized := v1.Group("/procure")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 采购申请
			prs := authorized.Group("/purchase-requests")
			{
				prs.GET("", h.PR.ListPRs)
				prs.POST("", h.PR.CreatePR)
				prs.GET("/:id", h.PR.GetPR)
				prs.PUT("/:id", h.PR.UpdatePR)
				prs.DELETE("/:id", h.PR.DeletePR)
				prs.POST("/:id/transition", h.PR.Transition)
				prs.GET("/:id/actions", h.PR.ListActions)
				prs.GET("/:id/timeline", h.PR.Timeline)

				// 分派
				prs.GET("/:id/assignments", h.Assignment.ListAssignments)
				prs.POST("/:id/assignments", h.Assignment.Assign)
				prs.DELETE("/:id/assignments/:assignment_id", h.Assignment.Revoke)
				prs.GET("/:id/assignments/validate", h.Assignment.ValidateComplete)
				prs.POST("/:id/assignments/split", h.Assignment.SplitByPurchaseType)

				// 询价
				prs.GET("/:id/rfqs", h.RFQ.ListRFQs)
				prs.POST("/:id/rfqs", h.RFQ.CreateRFQ)

				// 定标
				prs.POST("/:id/select-supplier", h.RFQ.SelectSupplier)
				prs.GET("/:id/selection", h.RFQ.GetSelection)

				// 付款
				prs.GET("/:id/payments", h.Budget.ListPayments)
				prs.POST("/:id/payments", h.Budget.AddPayment)
			}

			// 询价单
			rfqs := authorized.Group("/rfqs")
			{
				rfqs.GET("/:id", h.RFQ.GetRFQ)
				rfqs.POST("/:id/status", h.RFQ.UpdateRFQStatus)
				rfqs.POST("/:id/quotations", h.RFQ.AddQuotation)
				rfqs.GET("/:id/ranking", h.RFQ.RankQuotations)
			}

			// 报价
			authorized.POST("/quotations/:id/status", h.RFQ.SetQuotationStatus)

			// 销售PO（资金来源）
			salesPOs := authorized.Group("/sales-pos")
			{
				salesPOs.GET("", h.Budget.ListSalesPOs)
				salesPOs.POST("", h.Budget.CreateSalesPO)
				salesPOs.GET("/:id", h.Budget.GetSalesPO)
				salesPOs.POST("/:id/status", h.Budget.UpdateSalesPOStatus)
				salesPOs.DELETE("/:id", h.Budget.DeleteSalesPO)
				salesPOs.GET("/:id/usage", h.Budget.GetUsage)
			}

			// 付款完成
			authorized.POST("/payments/:id/done", h.Budget.MarkPaymentDone)

			// 供应商
			suppliers := authorized.Group("/suppliers")
			{
				suppliers.GET("", h.Supplier.ListSuppliers)
				suppliers.POST("", h.Supplier.CreateSupplier)
				suppliers.GET("/:id", h.Supplier.GetSupplier)
				suppliers.PUT("/:id", h.Supplier.UpdateSupplier)
				suppliers.POST("/:id/status", h.Supplier.SetSupplierStatus)
				suppliers.DELETE("/:id", h.Supplier.DeleteSupplier)
			}

			// 客户
			customers := authorized.Group("/customers")
			{
				customers.GET("", h.Customer.ListCustomers)
				customers.POST("", h.Customer.CreateCustomer)
				customers.GET("/:id", h.Customer.GetCustomer)
				customers.PUT("/:id", h.Customer.UpdateCustomer)
				customers.DELETE("/:id", h.Customer.DeleteCustomer)
			}

			// 通知
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListNotifications)
				notifications.POST("/:id/read", h.Notification.MarkRead)
				notifications.POST("/read-all", h.Notification.MarkAllRead)
			}

			// 仪表盘
			authorized.GET("/dashboard/overview", h.Dashboard.GetOverview)
		}
	}
}
