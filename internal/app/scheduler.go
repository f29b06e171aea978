package app

import (
	"context"
	"time"

	"github.com/expertbridge/consult_platform/internal/service"
	"go.uber.org/zap"
)

// Scheduler runs the background horizon task that keeps every expert's slot
// calendar materialized over the rolling window.
type Scheduler struct {
	availability *service.AvailabilityService
	horizonDays  int
	logger       *zap.Logger
	stopChan     chan struct{}
}

func NewScheduler(availability *service.AvailabilityService, horizonDays int, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		availability: availability,
		horizonDays:  horizonDays,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler")
	go s.runHorizonTask(ctx)
}

func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
}

// runHorizonTask extends the slot horizon once at startup and then every 24
// hours, so the bookable window always covers the full horizon.
func (s *Scheduler) runHorizonTask(ctx context.Context) {
	s.extendHorizon(ctx)

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.extendHorizon(ctx)
		case <-s.stopChan:
			s.logger.Info("Slot horizon task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Slot horizon task cancelled")
			return
		}
	}
}

func (s *Scheduler) extendHorizon(ctx context.Context) {
	s.logger.Info("Starting slot horizon extension", zap.Int("horizon_days", s.horizonDays))

	if err := s.availability.GenerateSlotsForAllExperts(ctx, s.horizonDays); err != nil {
		s.logger.Error("Failed to extend slot horizon", zap.Error(err))
		return
	}

	s.logger.Info("Slot horizon extension completed")
}
