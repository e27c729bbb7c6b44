package scheduler_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nebulap8/teams-automation/internal/scheduler"
	"github.com/nebulap8/teams-automation/internal/scheduler/mocks"
)

func TestSafetyNetScheduler_Start(t *testing.T) {
	mockAdvancer := new(mocks.MeetingAdvancer)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	interval := 100 * time.Millisecond

	mockAdvancer.On("AdvanceAll", mock.MatchedBy(func(ctx context.Context) bool {
		return true
	})).Return(nil)

	safetyNet := scheduler.NewSafetyNetScheduler(mockAdvancer, interval, logger)
	safetyNet.Start()

	time.Sleep(150 * time.Millisecond)
	safetyNet.Stop()

	mockAdvancer.AssertExpectations(t)
}

func TestSafetyNetScheduler_Stop(t *testing.T) {
	mockAdvancer := new(mocks.MeetingAdvancer)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	interval := 1 * time.Second

	safetyNet := scheduler.NewSafetyNetScheduler(mockAdvancer, interval, logger)

	safetyNet.Start()
	safetyNet.Stop()

	mockAdvancer.AssertNotCalled(t, "AdvanceAll", mock.Anything)
}

func TestSafetyNetScheduler_AdvanceAllWithError(t *testing.T) {
	mockAdvancer := new(mocks.MeetingAdvancer)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	interval := 100 * time.Millisecond

	mockAdvancer.On("AdvanceAll", mock.MatchedBy(func(ctx context.Context) bool {
		return true
	})).Return(assert.AnError)

	safetyNet := scheduler.NewSafetyNetScheduler(mockAdvancer, interval, logger)
	safetyNet.Start()

	time.Sleep(150 * time.Millisecond)
	safetyNet.Stop()

	mockAdvancer.AssertExpectations(t)
}
