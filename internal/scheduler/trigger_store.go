package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

// TriggerStore управляет одноразовыми триггерами: у каждого отслеживаемого
// файла в любой момент есть не больше одного активного триггера, замена
// старого на новый атомарна.
type TriggerStore struct {
	scheduler *gocron.Scheduler
	logger    *slog.Logger
	mu        sync.Mutex
}

func NewTriggerStore(logger *slog.Logger) *TriggerStore {
	scheduler := gocron.NewScheduler(time.UTC)

	return &TriggerStore{
		scheduler: scheduler,
		logger:    logger,
	}
}

func (s *TriggerStore) Start() {
	s.scheduler.StartAsync()
}

func (s *TriggerStore) Stop() {
	s.logger.Info("Остановка хранилища триггеров")
	s.scheduler.Stop()
}

// ScheduleAt ставит одноразовый триггер на указанное время и возвращает его
// идентификатор.
func (s *TriggerStore) ScheduleAt(ctx context.Context, runAt time.Time, job func()) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.scheduleLocked(runAt, job)
}

// Reschedule атомарно заменяет старый триггер новым. Пустой oldTriggerID
// означает первую постановку.
func (s *TriggerStore) Reschedule(ctx context.Context, oldTriggerID string, runAt time.Time, job func()) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldTriggerID != "" {
		if err := s.scheduler.RemoveByTag(oldTriggerID); err != nil {
			s.logger.Warn("Старый триггер не найден при замене",
				"triggerID", oldTriggerID,
				"error", err)
		}
	}

	return s.scheduleLocked(runAt, job)
}

func (s *TriggerStore) Cancel(triggerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scheduler.RemoveByTag(triggerID); err != nil {
		return fmt.Errorf("ошибка при отмене триггера %s: %w", triggerID, err)
	}

	s.logger.Info("Триггер отменён", "triggerID", triggerID)

	return nil
}

func (s *TriggerStore) scheduleLocked(runAt time.Time, job func()) (string, error) {
	triggerID := uuid.NewString()

	_, err := s.scheduler.Every(1).Day().
		StartAt(runAt).
		LimitRunsTo(1).
		Tag(triggerID).
		Do(job)
	if err != nil {
		return "", fmt.Errorf("ошибка при постановке триггера: %w", err)
	}

	s.logger.Info("Триггер поставлен",
		"triggerID", triggerID,
		"runAt", runAt)

	return triggerID, nil
}
