package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"log/slog"

	"github.com/nebulap8/teams-automation/internal/common/metrics"
	"github.com/nebulap8/teams-automation/internal/common/middleware"
	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/database"
	"github.com/nebulap8/teams-automation/internal/gateway"
	meetinghandler "github.com/nebulap8/teams-automation/internal/meeting/handler"
	meetingkafka "github.com/nebulap8/teams-automation/internal/meeting/clients/kafka"
	meetingrepo "github.com/nebulap8/teams-automation/internal/meeting/repository"
	meetingservice "github.com/nebulap8/teams-automation/internal/meeting/service"
	"github.com/nebulap8/teams-automation/internal/reminder/cache"
	reminderhandler "github.com/nebulap8/teams-automation/internal/reminder/handler"
	reminderrepo "github.com/nebulap8/teams-automation/internal/reminder/repository"
	reminderservice "github.com/nebulap8/teams-automation/internal/reminder/service"
	"github.com/nebulap8/teams-automation/internal/scheduler"
	"github.com/nebulap8/teams-automation/pkg"
	"github.com/nebulap8/teams-automation/pkg/txs"
)

type Scheduler interface {
	Start()
	Stop()
}

func gracefulShutdown(
	ctx context.Context,
	server *http.Server,
	metricsServer *metrics.MetricsServer,
	schedulers []Scheduler,
	consumer *meetingkafka.Consumer,
	stopCh <-chan struct{},
	appLogger *slog.Logger,
) {
	<-stopCh
	appLogger.Info("Получен сигнал завершения")

	for _, sch := range schedulers {
		sch.Stop()
	}

	if consumer != nil {
		if err := consumer.Close(); err != nil {
			appLogger.Error("Ошибка при остановке потребителя Kafka",
				"error", err,
			)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Ошибка при остановке HTTP сервера",
			"error", err,
		)
	}

	if err := metricsServer.Stop(shutdownCtx); err != nil {
		appLogger.Error("Ошибка при остановке сервера метрик",
			"error", err,
		)
	}

	appLogger.Info("Сервер успешно остановлен")
}

func startHTTPServer(_ context.Context, server *http.Server, port int, stopCh chan<- struct{}, appLogger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLogger.Info("Получен системный сигнал",
			"signal", sig.String(),
		)
		close(stopCh)
	}()

	go func() {
		appLogger.Info("Запуск HTTP сервера",
			"port", port,
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Ошибка при запуске HTTP сервера",
				"error", err,
			)
			close(stopCh)
		}
	}()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка запуска сервиса: %v\n", err)
		os.Exit(1)
	}
}

//nolint:funlen // Длина функции обусловлена необходимостью последовательной инициализации всех компонентов.
func run() error {
	appLogger := pkg.NewLogger(os.Stdout)

	cfg := config.LoadConfig()

	ctx := context.Background()

	db, err := database.NewPostgresDB(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Ошибка при подключении к базе данных",
			"error", err,
		)

		return fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		appLogger.Error("Ошибка при применении миграций",
			"error", err,
		)

		return err
	}

	txManager := txs.NewTxManager(db.Pool, appLogger)

	meetingFactory := meetingrepo.NewFactory(db, cfg, appLogger)

	meetingRepo, err := meetingFactory.CreateMeetingRepository()
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория встреч",
			"error", err,
		)

		return err
	}

	reminderFactory := reminderrepo.NewFactory(db, cfg, appLogger)

	notificationRepo, err := reminderFactory.CreateNotificationRepository()
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория уведомлений",
			"error", err,
		)

		return err
	}

	trackedFileRepo, err := reminderFactory.CreateTrackedFileRepository()
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория отслеживаемых файлов",
			"error", err,
		)

		return err
	}

	chatClient := gateway.NewChatClient(cfg, appLogger)
	identityClient := gateway.NewIdentityClient(cfg, appLogger)
	calendarClient := gateway.NewCalendarClient(cfg, appLogger)
	sheetClient := gateway.NewSheetClient(cfg, appLogger)

	identityCache, err := cache.NewRedisIdentityCache(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB, cfg.RedisCacheTTL, appLogger)
	if err != nil {
		appLogger.Error("Ошибка при подключении к Redis",
			"error", err,
		)

		return err
	}

	defer func() {
		if closeErr := identityCache.Close(); closeErr != nil {
			appLogger.Error("Ошибка при закрытии соединения с Redis",
				"error", closeErr,
			)
		}
	}()

	negotiator := meetingservice.NewNegotiator(
		meetingRepo,
		chatClient,
		identityClient,
		calendarClient,
		txManager,
		cfg,
		appLogger,
	)

	triggerStore := scheduler.NewTriggerStore(appLogger)

	scanner := reminderservice.NewScanner(
		notificationRepo,
		trackedFileRepo,
		sheetClient,
		identityClient,
		chatClient,
		identityCache,
		cfg,
		appLogger,
	)

	dispatcher := reminderservice.NewDispatcher(notificationRepo, chatClient, cfg, appLogger)
	reconciler := reminderservice.NewReconciler(notificationRepo, chatClient, sheetClient, appLogger)

	cycle := reminderservice.NewCycle(
		reconciler,
		scanner,
		dispatcher,
		notificationRepo,
		trackedFileRepo,
		triggerStore,
		appLogger,
	)

	mux := http.NewServeMux()

	meetingHandler := meetinghandler.NewHandler(negotiator, appLogger)
	meetingHandler.RegisterRoutes(mux)

	reminderHandler := reminderhandler.NewHandler(scanner, cycle, trackedFileRepo, notificationRepo, appLogger)
	reminderHandler.RegisterRoutes(mux)

	rateLimiter := middleware.NewRateLimiterMiddleware(
		ctx,
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		appLogger,
	)

	metricsMiddleware := middleware.NewMetricsMiddleware("automation")

	serverWithMiddleware := rateLimiter.Middleware(metricsMiddleware.Middleware(mux))

	var consumer *meetingkafka.Consumer

	if cfg.KafkaEventsEnabled {
		consumer = meetingkafka.NewConsumer(
			strings.Split(cfg.KafkaBrokers, ","),
			cfg.ResponsesGroupID,
			cfg.TopicResponses,
			cfg.TopicDeadLetter,
			negotiator,
			appLogger,
		)
		consumer.Start(ctx)
	} else {
		appLogger.Info("Приём ответов из Kafka отключён в конфигурации")
	}

	safetyNet := scheduler.NewSafetyNetScheduler(negotiator, cfg.MeetingCheckInterval, appLogger)

	triggerStore.Start()
	safetyNet.Start()

	if err := rescheduleTrackedFiles(ctx, trackedFileRepo, cycle, triggerStore, appLogger); err != nil {
		appLogger.Error("Ошибка при восстановлении триггеров после рестарта",
			"error", err,
		)
	}

	metricsServer := metrics.NewMetricsServer(cfg.MetricsPort, appLogger)

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			appLogger.Error("Ошибка при запуске сервера метрик",
				"error", err,
			)
		}
	}()

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           serverWithMiddleware,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCh := make(chan struct{})

	startHTTPServer(ctx, httpServer, cfg.ServerPort, stopCh, appLogger)

	gracefulShutdown(ctx, httpServer, metricsServer, []Scheduler{triggerStore, safetyNet}, consumer, stopCh, appLogger)

	return nil
}

// rescheduleTrackedFiles восстанавливает одноразовые триггеры, потерянные при
// перезапуске процесса: каждый файл получает новый триггер на сохранённое
// время следующего запуска либо запускается немедленно, если оно уже прошло.
func rescheduleTrackedFiles(
	ctx context.Context,
	trackedFileRepo reminderrepo.TrackedFileRepository,
	cycle *reminderservice.Cycle,
	triggerStore *scheduler.TriggerStore,
	appLogger *slog.Logger,
) error {
	files, err := trackedFileRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, file := range files {
		runAt := time.Now()
		if file.NextNotifyAt != nil && file.NextNotifyAt.After(runAt) {
			runAt = *file.NextNotifyAt
		}

		fileID := file.ID

		triggerID, err := triggerStore.ScheduleAt(ctx, runAt, func() {
			if runErr := cycle.Run(context.Background(), fileID); runErr != nil {
				appLogger.Error("Ошибка в цикле напоминаний",
					"fileID", fileID,
					"error", runErr,
				)
			}
		})
		if err != nil {
			appLogger.Error("Ошибка при восстановлении триггера файла",
				"fileID", fileID,
				"error", err,
			)

			continue
		}

		if err := trackedFileRepo.SetTriggerID(ctx, fileID, triggerID); err != nil {
			appLogger.Error("Ошибка при сохранении триггера файла",
				"fileID", fileID,
				"error", err,
			)
		}
	}

	return nil
}
