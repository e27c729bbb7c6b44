package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

type MeetingAdvancer interface {
	AdvanceAll(ctx context.Context) error
}

// SafetyNetScheduler периодически пересматривает все ожидающие встречи:
// если вебхук был пропущен, встреча всё равно продвинется по ответам.
type SafetyNetScheduler struct {
	scheduler *gocron.Scheduler
	advancer  MeetingAdvancer
	logger    *slog.Logger
	interval  time.Duration
}

func NewSafetyNetScheduler(advancer MeetingAdvancer, interval time.Duration, logger *slog.Logger) *SafetyNetScheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	return &SafetyNetScheduler{
		scheduler: scheduler,
		advancer:  advancer,
		logger:    logger,
		interval:  interval,
	}
}

func (s *SafetyNetScheduler) Start() {
	s.logger.Info("Запуск планировщика пересмотра встреч",
		"interval", s.interval.String(),
	)

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx := context.Background()
		if err := s.advancer.AdvanceAll(ctx); err != nil {
			s.logger.Error("Ошибка при пересмотре ожидающих встреч",
				"error", err,
			)
		}
	})
	if err != nil {
		s.logger.Error("Ошибка при настройке планировщика",
			"error", err,
		)

		return
	}

	s.scheduler.StartAsync()
}

func (s *SafetyNetScheduler) Stop() {
	s.logger.Info("Остановка планировщика пересмотра встреч")
	s.scheduler.Stop()
}
