package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/classtrack/school-report-api/api/swagger"
	"github.com/classtrack/school-report-api/internal/handler"
	"github.com/classtrack/school-report-api/internal/middleware"
	"github.com/classtrack/school-report-api/internal/models"
	"github.com/classtrack/school-report-api/internal/repository"
	"github.com/classtrack/school-report-api/internal/service"
	"github.com/classtrack/school-report-api/pkg/cache"
	"github.com/classtrack/school-report-api/pkg/config"
	"github.com/classtrack/school-report-api/pkg/database"
	"github.com/classtrack/school-report-api/pkg/jobs"
	"github.com/classtrack/school-report-api/pkg/logger"
	corsmiddleware "github.com/classtrack/school-report-api/pkg/middleware/cors"
	reqidmiddleware "github.com/classtrack/school-report-api/pkg/middleware/requestid"
	"github.com/classtrack/school-report-api/pkg/realtime"
)

// @title School Report API
// @version 1.0.0
// @description Staff reporting backend: per-period teacher reports, homework quotas, principal dashboard
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	location := cfg.Location()
	validate := validator.New()
	now := func() time.Time { return time.Now().UTC() }

	userRepo := repository.NewUserRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)
	reportRepo := repository.NewReportRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, true)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "school-report-api",
	})

	publisher := realtime.NewPublisher(redisClient, cfg.Notifications.ChannelFmt)
	notificationSvc := service.NewNotificationService(service.NotificationServiceParams{
		Repo:      notificationRepo,
		Teachers:  teacherRepo,
		Publisher: publisher,
		Metrics:   metricsSvc,
		Logger:    logr,
		Queue: jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			BufferSize: cfg.Notifications.BufferSize,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
		},
	})

	reportSvc := service.NewReportService(service.ReportServiceParams{
		Reports:   reportRepo,
		Homeworks: homeworkRepo,
		Classes:   classRepo,
		Subjects:  subjectRepo,
		Teachers:  teacherRepo,
		Notifier:  notificationSvc,
		Cache:     cacheSvc,
		Validator: validate,
		Logger:    logr,
		Location:  location,
		Now:       now,
	})

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Reports:  reportRepo,
		Teachers: teacherRepo,
		Cache:    cacheSvc,
		CacheTTL: cfg.Dashboard.CacheTTL,
		Logger:   logr,
		Location: location,
		Now:      now,
	})

	teacherSvc := service.NewTeacherService(service.TeacherServiceParams{
		Repo:      teacherRepo,
		Reports:   reportRepo,
		Validator: validate,
		Logger:    logr,
	})

	homeworkSvc := service.NewHomeworkService(classRepo, homeworkRepo, location, now)
	exportSvc := service.NewExportService(reportSvc, now)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notificationSvc.Start(rootCtx)
	defer notificationSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	reportHandler := handler.NewReportHandler(reportSvc, exportSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, reportSvc)
	homeworkHandler := handler.NewHomeworkHandler(reportSvc, homeworkSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.POST("/auth/change-password", authHandler.ChangePassword)

	authed.POST("/teacher-report/create", middleware.RequireRoles(models.RoleTeacher), reportHandler.Create)
	authed.PUT("/teacher-report/:id", middleware.RequireRoles(models.RoleTeacher), reportHandler.Update)
	authed.GET("/teacher-report", middleware.RequireRoles(models.RoleTeacher), reportHandler.ListToday)
	authed.GET("/teacher-reports", reportHandler.ListByDate)
	if cfg.Exports.Enabled {
		authed.GET("/teacher-reports/export", middleware.RequireRoles(models.RolePrincipal), reportHandler.Export)
	}

	authed.GET("/dashboard", middleware.RequireRoles(models.RolePrincipal), dashboardHandler.Load)
	authed.POST("/dashboard", middleware.RequireRoles(models.RolePrincipal), dashboardHandler.Transition)

	authed.GET("/homework/count/:classId", homeworkHandler.Count)
	authed.GET("/classes/:id/homework-summary", homeworkHandler.ClassSummary)

	authed.GET("/notifications", notificationHandler.List)
	authed.POST("/notifications/:id/read", notificationHandler.MarkRead)
	authed.POST("/notifications/read-all", notificationHandler.MarkAllRead)

	authed.POST("/teachers", middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal), teacherHandler.Create)
	authed.GET("/profile", teacherHandler.Profile)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
