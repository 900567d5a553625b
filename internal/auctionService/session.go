package auction

import (
	"context"
	"sync/atomic"

	"reverse-auction/internal/engine"
	"reverse-auction/internal/models"
	"reverse-auction/internal/receipt"
)

// session is the serialization unit of one auction. Only the holder of slot may
// touch auction, ledger, log, bids or outcome. Readers use view.
type session struct {
	slot chan struct{}

	auction models.Auction
	ledger  *engine.Ledger
	log     *receipt.Log
	bids    int
	outcome *models.Outcome

	view atomic.Pointer[snapshot]
}

// snapshot is an immutable copy of a session's state, published after every change.
type snapshot struct {
	auction  models.Auction
	ranked   []models.Participant
	byVendor map[string]int
	lowest   *float64
	accepted int
	bids     int
	receipt  []models.ReceiptEntry
	outcome  *models.Outcome
}

func newSession(a models.Auction, ledger *engine.Ledger, log *receipt.Log) *session {
	s := &session{
		slot:    make(chan struct{}, 1),
		auction: a,
		ledger:  ledger,
		log:     log,
	}
	s.publishView()
	return s
}

// acquire waits for the slot. A caller may give up while waiting; once the slot
// is held the operation runs to completion.
func (s *session) acquire(ctx context.Context) error {
	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) release() {
	<-s.slot
}

// publishView must be called with the slot held, or before the session is shared.
func (s *session) publishView() {
	ranked := s.ledger.Ranked()
	byVendor := make(map[string]int, len(ranked))
	for i, p := range ranked {
		byVendor[p.VendorID] = i
	}
	var outcome *models.Outcome
	if s.outcome != nil {
		o := *s.outcome
		outcome = &o
	}
	s.view.Store(&snapshot{
		auction:  s.auction.Clone(),
		ranked:   ranked,
		byVendor: byVendor,
		lowest:   s.ledger.Best(),
		accepted: s.ledger.AcceptedCount(),
		bids:     s.bids,
		receipt:  s.log.View(),
		outcome:  outcome,
	})
}

func (s *session) current() *snapshot {
	return s.view.Load()
}
