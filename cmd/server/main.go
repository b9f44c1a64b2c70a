package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/studmarket/studmarket-backend/internal/config"
	"github.com/studmarket/studmarket-backend/internal/db"
	httpHandlers "github.com/studmarket/studmarket-backend/internal/http/handlers"
	httpRouter "github.com/studmarket/studmarket-backend/internal/http/router"
	"github.com/studmarket/studmarket-backend/internal/logger"
	"github.com/studmarket/studmarket-backend/internal/repository"
	"github.com/studmarket/studmarket-backend/internal/repository/common"
	"github.com/studmarket/studmarket-backend/internal/service"
	"github.com/studmarket/studmarket-backend/internal/storage"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)

	evidenceStorage, err := storage.NewEvidenceStorage(cfg.EvidenceStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	txRunner := common.NewTxRunner(dbConn)
	userRepo := repository.NewUserRepository(dbConn)
	serviceRepo := repository.NewServiceRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	auditRepo := repository.NewAuditRepository(dbConn)
	evidenceRepo := repository.NewEvidenceRepository(dbConn)

	// Сервисы.
	editGuard := service.NewEditGuard(auditRepo, orderRepo.HasActiveOrdersTx)
	catalogService := service.NewCatalogService(txRunner, serviceRepo, editGuard)
	orderService := service.NewOrderService(txRunner, orderRepo, serviceRepo)
	disputeService := service.NewDisputeService(txRunner, disputeRepo, orderRepo, evidenceRepo, evidenceStorage, service.NewSettlementLogger())
	historyService := service.NewHistoryService(auditRepo, userRepo)

	// HTTP хэндлеры.
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	csrfHandler := httpHandlers.NewCSRFHandler([]byte(cfg.CSRFSecret), cfg.CSRFTokenTTL)
	catalogHandler := httpHandlers.NewCatalogHandler(catalogService)
	orderHandler := httpHandlers.NewOrderHandler(orderService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService)
	historyHandler := httpHandlers.NewHistoryHandler(historyService)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, healthHandler, csrfHandler, catalogHandler, orderHandler, disputeHandler, historyHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
