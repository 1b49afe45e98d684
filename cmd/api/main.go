package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ouk-labs/grouper-api/internal/config"
	"github.com/ouk-labs/grouper-api/internal/database"
	"github.com/ouk-labs/grouper-api/internal/dto"
	"github.com/ouk-labs/grouper-api/internal/handler"
	"github.com/ouk-labs/grouper-api/internal/middleware"
	"github.com/ouk-labs/grouper-api/internal/models"
	"github.com/ouk-labs/grouper-api/internal/repository"
	"github.com/ouk-labs/grouper-api/internal/router"
	"github.com/ouk-labs/grouper-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Course{}, &models.Unit{}, &models.Group{}, &models.Student{}, &models.AuditRecord{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not configured, roster caching disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	} else {
		logger.Warn().Msg("nats url not configured, membership events disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	groupRepo := repository.NewGroupRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	groupService := service.NewGroupService(groupRepo, auditService, redisClient, cfg.RosterCacheTTL, validate, logger)
	eventPublisher := service.NewNATSPublisher(natsConn, "", logger)
	assignmentService := service.NewAssignmentService(
		groupRepo,
		studentRepo,
		catalogRepo,
		auditService,
		eventPublisher,
		groupService,
		validate,
		service.AssignmentConfig{
			MaxMembers:         cfg.MaxMembers,
			MaxGroups:          cfg.MaxGroups,
			CourseScoped:       cfg.CourseScoped,
			AuditRejected:      cfg.AuditRejected,
			StudentEmailDomain: cfg.StudentEmailDomain,
		},
		logger,
	)
	studentService := service.NewStudentService(studentRepo, groupRepo, logger)
	authService := service.NewAuthService(userRepo, studentRepo, validate, cfg.JWTSecret, cfg.TokenTTL, logger)
	catalogService := service.NewCatalogService(catalogRepo, logger)
	seedService := service.NewSeedService(catalogRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	engineConfig := dto.EngineConfigResponse{MaxMembers: cfg.MaxMembers, MaxGroups: cfg.MaxGroups}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		HealthHandler:  handler.NewHealthHandler(cfg.AppName, cfg.AppEnv),
		AuthHandler:    handler.NewAuthHandler(authService, logger),
		StudentHandler: handler.NewStudentHandler(assignmentService, studentService, authService, logger),
		GroupHandler:   handler.NewGroupHandler(groupService, engineConfig, logger),
		AdminHandler:   handler.NewAdminHandler(assignmentService, groupService, auditService, logger),
		CatalogHandler: handler.NewCatalogHandler(catalogService, logger),
		SeedHandler:    handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:  middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
