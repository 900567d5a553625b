package auction

import (
	"context"
	"fmt"
	"sort"
	"time"

	"reverse-auction/internal/auctionerrors"
	"reverse-auction/internal/engine"
	"reverse-auction/internal/models"
	"reverse-auction/internal/receipt"
	"reverse-auction/utils"
)

// Reads below never take the per-auction slot. They see the snapshot published by
// the last completed operation, so a half-applied bid is never visible.

// Get returns the current state of an auction
func (c *Coordinator) Get(auctionID string) (models.Auction, error) {
	s, err := c.session(auctionID)
	if err != nil {
		return models.Auction{}, err
	}
	return s.current().auction.Clone(), nil
}

// Leaderboard is the buyer's ranked view, limited to the best limit rows. limit <= 0 means all.
func (c *Coordinator) Leaderboard(auctionID string, limit int) (models.Leaderboard, error) {
	s, err := c.session(auctionID)
	if err != nil {
		return models.Leaderboard{}, err
	}
	snap := s.current()
	now := c.clock.Now()

	board := models.Leaderboard{
		AuctionID:        auctionID,
		Status:           snap.auction.Status,
		TimeRemainingSec: remainingSec(snap.auction, now),
		LowestBid:        copyAmount(snap.lowest),
		Participants:     len(snap.ranked),
		Entries:          make([]models.LeaderboardEntry, 0, len(snap.ranked)),
	}
	if snap.lowest != nil && !snap.auction.Status.Terminal() {
		next, _ := engine.Ceiling(*snap.lowest, snap.auction.Rule).Float64()
		board.NextMaxBid = &next
	}
	for _, p := range snap.ranked {
		if limit > 0 && len(board.Entries) == limit {
			break
		}
		if p.BestBid == nil || p.Rank == nil {
			continue
		}
		board.Entries = append(board.Entries, models.LeaderboardEntry{Rank: *p.Rank, VendorID: p.VendorID, BestBid: *p.BestBid})
	}
	return board, nil
}

// MyRank is a vendor's own standing. A vendor without accepted bids gets nil rank and best bid.
func (c *Coordinator) MyRank(auctionID, vendorID string) (models.VendorRank, error) {
	s, err := c.session(auctionID)
	if err != nil {
		return models.VendorRank{}, err
	}
	snap := s.current()
	view := models.VendorRank{
		AuctionID:        auctionID,
		VendorID:         vendorID,
		TimeRemainingSec: remainingSec(snap.auction, c.clock.Now()),
		Status:           snap.auction.Status,
	}
	if i, ok := snap.byVendor[vendorID]; ok {
		p := snap.ranked[i]
		view.BestBid = copyAmount(p.BestBid)
		if p.Rank != nil {
			r := *p.Rank
			view.Rank = &r
		}
	}
	return view, nil
}

// Outcome returns the recorded result of a terminal auction.
func (c *Coordinator) Outcome(auctionID string) (models.Outcome, error) {
	s, err := c.session(auctionID)
	if err != nil {
		return models.Outcome{}, err
	}
	snap := s.current()
	if snap.outcome == nil {
		return models.Outcome{}, fmt.Errorf("coordinator: outcome of %s: %w (%s)", auctionID, auctionerrors.ErrAuctionNotRunning, snap.auction.Status)
	}
	return *snap.outcome, nil
}

// Receipt returns the ordered receipt log of an auction
func (c *Coordinator) Receipt(auctionID string) ([]models.ReceiptEntry, error) {
	s, err := c.session(auctionID)
	if err != nil {
		return nil, err
	}
	return append([]models.ReceiptEntry(nil), s.current().receipt...), nil
}

// VerifyReceipt checks the hash chain of an auction's receipt and that replaying it
// reproduces the live standings. It returns the number of entries it checked, all
// taken from one snapshot.
func (c *Coordinator) VerifyReceipt(auctionID string) (int, error) {
	s, err := c.session(auctionID)
	if err != nil {
		return 0, err
	}
	snap := s.current()
	checked := len(snap.receipt)
	if err := receipt.Verify(snap.receipt); err != nil {
		return checked, err
	}
	ledger, err := engine.Replay(snap.receipt)
	if err != nil {
		return checked, err
	}
	replayed := ledger.Ranked()
	if len(replayed) != len(snap.ranked) {
		return checked, fmt.Errorf("coordinator: verify %s: %w - %d participants replayed, %d live",
			auctionID, engine.ErrReplayDiverged, len(replayed), len(snap.ranked))
	}
	for i := range replayed {
		if !sameStanding(replayed[i], snap.ranked[i]) {
			return checked, fmt.Errorf("coordinator: verify %s: %w - standing %d differs", auctionID, engine.ErrReplayDiverged, i+1)
		}
	}
	return checked, nil
}

// Bids returns every recorded bid attempt, accepted or not, from the store.
func (c *Coordinator) Bids(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if _, err := c.session(auctionID); err != nil {
		return nil, err
	}
	bids, err := c.store.GetBids(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("coordinator: bids of %s: %w: %w", auctionID, auctionerrors.ErrStoreUnavailable, err)
	}
	return bids, nil
}

// Pending is a non-terminal auction as last published.
type Pending struct {
	AuctionID string
	Status    models.Status
	StartTime time.Time
	EndTime   time.Time
}

// Active returns every auction that still needs a lifecycle transition, soonest deadline first.
func (c *Coordinator) Active() []Pending {
	c.mu.RLock()
	out := make([]Pending, 0, len(c.sessions))
	for id, s := range c.sessions {
		a := s.current().auction
		if a.Status.Terminal() {
			continue
		}
		out = append(out, Pending{AuctionID: id, Status: a.Status, StartTime: a.StartTime, EndTime: a.EndTime})
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	return out
}

// Restore loads every stored auction and rebuilds its standings by replaying its
// receipt. It must run before the coordinator serves traffic.
func (c *Coordinator) Restore(ctx context.Context) (int, error) {
	auctions, err := c.store.ListAuctions(ctx)
	if err != nil {
		return 0, fmt.Errorf("coordinator: restore: %w: %w", auctionerrors.ErrStoreUnavailable, err)
	}

	sessions := make(map[string]*session, len(auctions))
	for _, a := range auctions {
		entries, err := c.store.GetReceipt(ctx, a.ID)
		if err != nil {
			return 0, fmt.Errorf("coordinator: restore %s: %w: %w", a.ID, auctionerrors.ErrStoreUnavailable, err)
		}
		log, err := receipt.Restore(a.ID, entries)
		if err != nil {
			return 0, fmt.Errorf("coordinator: restore %s: %w", a.ID, err)
		}
		ledger, err := engine.Replay(entries)
		if err != nil {
			return 0, fmt.Errorf("coordinator: restore %s: %w", a.ID, err)
		}

		s := &session{slot: make(chan struct{}, 1), auction: a, ledger: ledger, log: log}
		for _, e := range entries {
			switch e.Event {
			case models.EventBidPlaced:
				s.bids++
			case models.EventEnded:
				o := outcomeFrom(a.ID, e)
				s.outcome = &o
			}
		}
		s.publishView()
		sessions[a.ID] = s
	}

	c.mu.Lock()
	for id, s := range sessions {
		c.sessions[id] = s
	}
	c.mu.Unlock()

	utils.Info("auctions restored", map[string]any{"count": len(sessions)})
	return len(sessions), nil
}

func remainingSec(a models.Auction, now time.Time) int64 {
	return int64(engine.TimeRemaining(a, now).Round(time.Second) / time.Second)
}

func copyAmount(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func sameStanding(a, b models.Participant) bool {
	if a.VendorID != b.VendorID || a.BidCount != b.BidCount || a.AchievedSeq != b.AchievedSeq {
		return false
	}
	if (a.BestBid == nil) != (b.BestBid == nil) || (a.Rank == nil) != (b.Rank == nil) {
		return false
	}
	if a.BestBid != nil && *a.BestBid != *b.BestBid {
		return false
	}
	return a.Rank == nil || *a.Rank == *b.Rank
}
