package engine

import (
	"fmt"
	"sort"

	"reverse-auction/internal/auctionerrors"
	"reverse-auction/internal/models"
)

// Ledger tracks every vendor's best accepted bid in one auction and keeps them ranked.
// A Ledger is not safe for concurrent use; the coordinator owns it.
type Ledger struct {
	auctionID    string
	participants map[string]*models.Participant
	history      map[string][]models.Bid
	ranked       []*models.Participant
	accepted     int
}

// NewLedger returns an empty ledger for auctionID.
func NewLedger(auctionID string) *Ledger {
	return &Ledger{
		auctionID:    auctionID,
		participants: make(map[string]*models.Participant),
		history:      make(map[string][]models.Bid),
	}
}

// AuctionID returns the auction this ledger belongs to.
func (l *Ledger) AuctionID() string { return l.auctionID }

// Best is the lowest accepted bid so far, nil before the first one.
func (l *Ledger) Best() *float64 {
	if len(l.ranked) == 0 || l.ranked[0].BestBid == nil {
		return nil
	}
	v := *l.ranked[0].BestBid
	return &v
}

// Apply records an accepted bid and re-ranks all participants.
func (l *Ledger) Apply(bid models.Bid) error {
	if !bid.Valid {
		return fmt.Errorf("ledger: %w - bid %s was not accepted", auctionerrors.ErrInvalidInput, bid.BidID)
	}
	if bid.AuctionID != l.auctionID {
		return fmt.Errorf("ledger: %w - bid %s belongs to auction %s", auctionerrors.ErrInvalidInput, bid.BidID, bid.AuctionID)
	}

	p, ok := l.participants[bid.VendorID]
	if !ok {
		p = &models.Participant{AuctionID: l.auctionID, VendorID: bid.VendorID}
		l.participants[bid.VendorID] = p
		l.ranked = append(l.ranked, p)
	}
	if p.BestBid != nil && bid.Amount > *p.BestBid {
		return fmt.Errorf("ledger: %w - bid %s raises vendor %s best from %v to %v",
			auctionerrors.ErrInvalidInput, bid.BidID, bid.VendorID, *p.BestBid, bid.Amount)
	}

	amount := bid.Amount
	p.BestBid = &amount
	p.BidCount++
	p.AchievedAt = bid.Timestamp
	p.AchievedSeq = bid.Seq
	l.history[bid.VendorID] = append(l.history[bid.VendorID], bid)
	l.accepted++

	l.rerank()
	return nil
}

// rerank sorts by best bid ascending with no-bid participants last. Equal amounts keep
// whoever reached them first, by timestamp and then by arrival order.
func (l *Ledger) rerank() {
	sort.SliceStable(l.ranked, func(i, j int) bool {
		a, b := l.ranked[i], l.ranked[j]
		switch {
		case a.BestBid == nil || b.BestBid == nil:
			return a.BestBid != nil && b.BestBid == nil
		case *a.BestBid != *b.BestBid:
			return *a.BestBid < *b.BestBid
		case !a.AchievedAt.Equal(b.AchievedAt):
			return a.AchievedAt.Before(b.AchievedAt)
		default:
			return a.AchievedSeq < b.AchievedSeq
		}
	})
	for i, p := range l.ranked {
		rank := i + 1
		p.Rank = &rank
	}
}

// Clone returns a deep copy that can be mutated independently.
func (l *Ledger) Clone() *Ledger {
	c := &Ledger{
		auctionID:    l.auctionID,
		participants: make(map[string]*models.Participant, len(l.participants)),
		history:      make(map[string][]models.Bid, len(l.history)),
		ranked:       make([]*models.Participant, 0, len(l.ranked)),
		accepted:     l.accepted,
	}
	for _, p := range l.ranked {
		cp := copyParticipant(*p)
		c.participants[cp.VendorID] = &cp
		c.ranked = append(c.ranked, &cp)
	}
	for vendor, bids := range l.history {
		c.history[vendor] = append([]models.Bid(nil), bids...)
	}
	return c
}

// Ranked returns copies of all participants, best first.
func (l *Ledger) Ranked() []models.Participant {
	out := make([]models.Participant, 0, len(l.ranked))
	for _, p := range l.ranked {
		out = append(out, copyParticipant(*p))
	}
	return out
}

// Top returns the first k leaderboard rows. k <= 0 returns all of them.
func (l *Ledger) Top(k int) []models.LeaderboardEntry {
	n := len(l.ranked)
	if k > 0 && k < n {
		n = k
	}
	out := make([]models.LeaderboardEntry, 0, n)
	for _, p := range l.ranked[:n] {
		if p.BestBid == nil {
			break
		}
		out = append(out, models.LeaderboardEntry{Rank: *p.Rank, VendorID: p.VendorID, BestBid: *p.BestBid})
	}
	return out
}

// Lookup returns a copy of vendorID's standing.
func (l *Ledger) Lookup(vendorID string) (models.Participant, bool) {
	p, ok := l.participants[vendorID]
	if !ok {
		return models.Participant{}, false
	}
	return copyParticipant(*p), true
}

// History returns vendorID's accepted bids in the order they were applied.
func (l *Ledger) History(vendorID string) []models.Bid {
	return append([]models.Bid(nil), l.history[vendorID]...)
}

// Winner is the rank 1 participant, if any bid was accepted.
func (l *Ledger) Winner() (models.Participant, bool) {
	if len(l.ranked) == 0 || l.ranked[0].BestBid == nil {
		return models.Participant{}, false
	}
	return copyParticipant(*l.ranked[0]), true
}

// Len is the number of participants.
func (l *Ledger) Len() int { return len(l.ranked) }

// AcceptedCount is the number of bids applied.
func (l *Ledger) AcceptedCount() int { return l.accepted }

func copyParticipant(p models.Participant) models.Participant {
	if p.BestBid != nil {
		v := *p.BestBid
		p.BestBid = &v
	}
	if p.Rank != nil {
		r := *p.Rank
		p.Rank = &r
	}
	return p
}
