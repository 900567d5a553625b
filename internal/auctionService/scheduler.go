package auction

import (
	"context"
	"errors"
	"time"

	"reverse-auction/internal/auctionerrors"
	"reverse-auction/internal/clock"
	"reverse-auction/internal/models"
	"reverse-auction/utils"
)

// DefaultTick is how often the scheduler sweeps when no interval is configured.
const DefaultTick = 250 * time.Millisecond

// Scheduler starts scheduled auctions and expires running ones once their end time
// has passed. Every sweep re-reads the published end time, so an extension made by a
// concurrent bid is always honoured.
type Scheduler struct {
	coord    *Coordinator
	clock    clock.Clock
	interval time.Duration
}

// NewScheduler creates a Scheduler sweeping coord every interval
func NewScheduler(coord *Coordinator, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultTick
	}
	return &Scheduler{coord: coord, clock: coord.clock, interval: interval}
}

// Run sweeps until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	utils.Info("scheduler started", map[string]any{"interval": s.interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.Info("scheduler stopped", nil)
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs one pass and returns how many transitions it made.
func (s *Scheduler) Sweep(ctx context.Context) int {
	now := s.clock.Now()
	done := 0

	for _, p := range s.coord.Active() {
		if ctx.Err() != nil {
			return done
		}
		switch {
		case p.Status == models.StatusScheduled && !now.Before(p.StartTime):
			if err := s.coord.Activate(ctx, p.AuctionID); err != nil {
				s.report("activate", p.AuctionID, err)
				continue
			}
			done++
		case p.Status == models.StatusRunning && !now.Before(p.EndTime):
			if _, err := s.coord.Expire(ctx, p.AuctionID); err != nil {
				s.report("expire", p.AuctionID, err)
				continue
			}
			done++
		}
	}
	return done
}

// report logs sweep failures. Losing a race to a bid or an end request is expected.
func (s *Scheduler) report(op, auctionID string, err error) {
	switch {
	case errors.Is(err, auctionerrors.ErrNotDue), errors.Is(err, auctionerrors.ErrAuctionTerminal):
		utils.Debug("scheduler skipped auction", map[string]any{
			"operation":  op,
			"auction_id": auctionID,
			"reason":     err.Error(),
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
	default:
		utils.Error("scheduler transition failed", map[string]any{
			"operation":  op,
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}
}
