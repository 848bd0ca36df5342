package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admin_console/database"
	"admin_console/internal/auth"
	"admin_console/internal/config"
	"admin_console/internal/events"
	"admin_console/internal/handlers"
	"admin_console/internal/logger"
	"admin_console/internal/longpoll"
	"admin_console/internal/middleware"
	"admin_console/internal/models"
	"admin_console/internal/repositories"
	"admin_console/internal/routes"
	"admin_console/internal/services"
	"admin_console/internal/storage"
	"admin_console/internal/validator"
	"admin_console/pkg/apperrors"
	"admin_console/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Application - собранный процесс: один реестр сокетов, одна очередь
// long-poll и один диспетчер на весь сервер.
type Application struct {
	Config    *config.Config
	DB        *gorm.DB
	Router    *gin.Engine
	Services  *services.ServiceContainer
	WSManager *ws.WebSocketManager
	PollQueue *longpoll.Queue
}

func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Server.Env)
	apperrors.SetDebug(cfg.IsDevelopment())
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close(gormDB)

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected")

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		// Без админа консолью некому пользоваться
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	application, err := New(cfg, gormDB)
	if err != nil {
		logger.Fatal("Failed to build application", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Serve(ctx); err != nil {
		logger.Fatal("Server error", "error", err)
	}
	logger.Info("Server stopped")
}

// New собирает зависимости и роутер поверх открытой базы
func New(cfg *config.Config, gormDB *gorm.DB) (*Application, error) {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Endpoint:  cfg.Storage.Endpoint,
		AccountID: cfg.Storage.AccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	wsManager := ws.NewWebSocketManager()
	pollQueue := longpoll.NewQueue(cfg.Realtime.LongPollTimeout)
	customValidator := validator.New()

	// 1. Сервисы
	serviceContainer := initializeServices(cfg, gormDB, storageInstance, wsManager, pollQueue, customValidator)

	// 2. Хэндлеры
	appHandlers := initializeHandlers(serviceContainer, pollQueue, customValidator)

	// 3. WebSocket
	wsHandler := ws.NewWebSocketHandler(wsManager, ws.Options{
		SendBuffer:     cfg.Realtime.SendBuffer,
		WriteWait:      cfg.Realtime.WriteWait,
		PongWait:       cfg.Realtime.PongWait,
		AllowedOrigins: cfg.Realtime.AllowedOrigins,
	})

	// 4. Gin
	ginRouter := initializeGinRouter(cfg)
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)

	return &Application{
		Config:    cfg,
		DB:        gormDB,
		Router:    ginRouter,
		Services:  serviceContainer,
		WSManager: wsManager,
		PollQueue: pollQueue,
	}, nil
}

// Serve слушает cfg.Addr() до отмены ctx, затем закрывает сокеты и HTTP-сервер
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...", "ws_clients", a.WSManager.GetClientCount(), "pollers", a.PollQueue.Len())
	// hijacked сокеты Shutdown не ждет, закрываем сами
	a.WSManager.CloseAll()
	// иначе висящие опросы держат Shutdown до своего таймаута
	a.PollQueue.Close()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("Graceful shutdown timed out, closing connections", "error", err)
		return srv.Close()
	}
	return nil
}

func initializeServices(
	cfg *config.Config,
	gormDB *gorm.DB,
	storageInstance storage.Storage,
	wsManager *ws.WebSocketManager,
	pollQueue *longpoll.Queue,
	customValidator *validator.Validator,
) *services.ServiceContainer {
	// --- Репозитории ---
	userRepo := repositories.NewUserRepository(gormDB)
	notificationRepo := repositories.NewNotificationRepository(gormDB)

	// --- Сервисы ---
	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.TTL)*time.Minute)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, wsManager, pollQueue)
	userService := services.NewUserService(userRepo, notificationService, storageInstance, cfg.Upload, customValidator)
	authService := services.NewAuthService(userRepo, tokens)

	return &services.ServiceContainer{
		UserService:         userService,
		AuthService:         authService,
		NotificationService: notificationService,
	}
}

func initializeHandlers(
	services *services.ServiceContainer,
	pollQueue *longpoll.Queue,
	customValidator *validator.Validator,
) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(customValidator, services.AuthService)

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, services.AuthService),
		UserHandler:         handlers.NewUserHandler(baseHandler, services.UserService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, services.NotificationService),
		PollingHandler:      handlers.NewPollingHandler(baseHandler, pollQueue),
	}
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Realtime.AllowedOrigins))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdmin.Email
	adminPassword := cfg.FirstAdmin.Password

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("first_admin email or password is not set. Skipping admin seeding.")
		return nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	var adminUser models.User
	result := tx.Where("LOWER(email) = LOWER(?)", adminEmail).First(&adminUser)
	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		return nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

	hashedPassword, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	name := cfg.FirstAdmin.Name
	if name == "" {
		name = "Administrator"
	}
	newAdmin := &models.User{
		Name:         name,
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Department:   events.NormalizeDepartment(cfg.FirstAdmin.Department),
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}
	if err := tx.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user in database: %w", err)
	}

	logger.Info("✅ Successfully created first admin user", "email", adminEmail, "department", newAdmin.Department)
	return tx.Commit().Error
}
