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

	"github.com/noah-isme/sekolah-ops-api/internal/config"
	"github.com/noah-isme/sekolah-ops-api/internal/database"
	"github.com/noah-isme/sekolah-ops-api/internal/handler"
	"github.com/noah-isme/sekolah-ops-api/internal/middleware"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
	"github.com/noah-isme/sekolah-ops-api/internal/repository"
	"github.com/noah-isme/sekolah-ops-api/internal/router"
	"github.com/noah-isme/sekolah-ops-api/internal/service"
	"github.com/noah-isme/sekolah-ops-api/pkg/storage"
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

	if err := db.AutoMigrate(
		&models.Student{},
		&models.Classroom{},
		&models.AttendanceRecord{},
		&models.Order{},
		&models.ClassroomStatus{},
		&models.PaymentRequest{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Redis only backs the stats cache; the service degrades without it.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, stats caching disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Order sync events on the broker are best-effort.
	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, order event publishing disabled")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	var evidenceStore service.FileStorage
	var uploadsDir string
	switch cfg.StorageDriver {
	case "cloudinary":
		store, err := storage.NewCloudinary(storage.CloudinaryConfig{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary storage: %v", err)
		}
		evidenceStore = store
	default:
		store, err := storage.NewLocal(cfg.UploadsDir, cfg.UploadsPublicPrefix, logger)
		if err != nil {
			log.Fatalf("failed to create local storage: %v", err)
		}
		evidenceStore = store
		uploadsDir = store.BaseDir()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	studentRepo := repository.NewStudentRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	statusRepo := repository.NewClassroomStatusRepository(db)
	paymentRepo := repository.NewPaymentRequestRepository(db)

	classroomService := service.NewClassroomService(classroomRepo, studentRepo, orderRepo, service.NewPlaceholderFallback(), logger)
	statusService := service.NewClassroomStatusService(statusRepo, orderRepo, logger)
	paymentService := service.NewPaymentRequestService(paymentRepo, orderRepo, logger)
	orderService := service.NewOrderService(
		orderRepo, studentRepo, attendanceRepo, classroomService,
		service.NewEmptyDirectory(),
		[]service.OrderChangeApplier{statusService, paymentService},
		natsConn, validate, logger,
	)
	attendanceService := service.NewAttendanceService(
		attendanceRepo, studentRepo, classroomService, orderService, evidenceStore,
		redisClient, cfg.StatsCacheTTL, cfg.FrontendBaseURL,
		validate, logger,
	)
	studentService := service.NewStudentService(studentRepo, attendanceRepo, validate, logger)
	seedService := service.NewSeedService(studentRepo, classroomRepo, cfg.SeedEnabled, cfg.SeedToken, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		AttendanceHandler:      handler.NewAttendanceHandler(attendanceService, logger),
		ClassroomHandler:       handler.NewClassroomHandler(classroomService, logger),
		StudentHandler:         handler.NewStudentHandler(studentService, logger),
		OrderHandler:           handler.NewOrderHandler(orderService, logger),
		ClassroomStatusHandler: handler.NewClassroomStatusHandler(statusService, logger),
		PaymentRequestHandler:  handler.NewPaymentRequestHandler(paymentService, logger),
		SeedHandler:            handler.NewSeedHandler(seedService, logger),
		JWTMiddleware:          middleware.JWTProtected(cfg.JWTSecret),
		UploadsDir:             uploadsDir,
		UploadsPublicPrefix:    cfg.UploadsPublicPrefix,
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
