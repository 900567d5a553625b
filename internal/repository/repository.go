package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"reverse-auction/internal/auctionerrors"
	model "reverse-auction/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// Mutation is everything one coordinator operation changes. A store must apply it
// completely or not at all.
type Mutation struct {
	Auction model.Auction
	Bids    []model.Bid
	// Participants replaces the stored standings when non-nil.
	Participants []model.Participant
	Entries      []model.ReceiptEntry
}

// AuctionStore defines durable storage for auctions, standings, bids and receipts
type AuctionStore interface {
	CreateAuction(ctx context.Context, auction model.Auction, entry model.ReceiptEntry) error
	Commit(ctx context.Context, m Mutation) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)
	GetParticipants(ctx context.Context, auctionID string) ([]model.Participant, error)
	GetBids(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetReceipt(ctx context.Context, auctionID string) ([]model.ReceiptEntry, error)
}

// QuoteSource resolves which vendors quoted on a listing
type QuoteSource interface {
	EligibleVendors(ctx context.Context, listingID string) ([]string, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionStore and QuoteSource
type MemoryRepo struct {
	mu           sync.RWMutex
	auctions     map[string]model.Auction        // key: auctionID
	participants map[string][]model.Participant  // key: auctionID
	bids         map[string][]model.Bid          // key: auctionID
	receipts     map[string][]model.ReceiptEntry // key: auctionID
	quotes       map[string]map[string]struct{}  // key: listingID -> set of vendorIDs
	quoteOrder   map[string][]string             // key: listingID -> vendors in insertion order
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		auctions:     make(map[string]model.Auction),
		participants: make(map[string][]model.Participant),
		bids:         make(map[string][]model.Bid),
		receipts:     make(map[string][]model.ReceiptEntry),
		quotes:       make(map[string]map[string]struct{}),
		quoteOrder:   make(map[string][]string),
	}
}

// CreateAuction stores a new auction together with its created receipt entry
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction, entry model.ReceiptEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.auctions[auction.ID]; exists {
		return fmt.Errorf("create auction %s: %w - duplicate id", auction.ID, auctionerrors.ErrInvalidInput)
	}
	if entry.Seq != 1 || entry.AuctionID != auction.ID {
		return fmt.Errorf("create auction %s: %w - first receipt entry must have seq 1", auction.ID, auctionerrors.ErrInvalidInput)
	}
	r.auctions[auction.ID] = auction.Clone()
	r.receipts[auction.ID] = []model.ReceiptEntry{entry}
	return nil
}

// Commit applies a mutation atomically
func (r *MemoryRepo) Commit(_ context.Context, m Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := m.Auction.ID
	if _, ok := r.auctions[id]; !ok {
		return fmt.Errorf("commit auction %s: %w", id, auctionerrors.ErrAuctionNotFound)
	}
	next := int64(len(r.receipts[id]) + 1)
	for _, e := range m.Entries {
		if e.AuctionID != id || e.Seq != next {
			return fmt.Errorf("commit auction %s: %w - receipt seq %d, expected %d", id, auctionerrors.ErrInvalidInput, e.Seq, next)
		}
		next++
	}

	r.auctions[id] = m.Auction.Clone()
	r.bids[id] = append(r.bids[id], m.Bids...)
	if m.Participants != nil {
		r.participants[id] = append([]model.Participant(nil), m.Participants...)
	}
	r.receipts[id] = append(r.receipts[id], m.Entries...)
	return nil
}

// GetAuction returns one auction
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return a.Clone(), nil
}

// ListAuctions returns all auctions ordered by creation time
func (r *MemoryRepo) ListAuctions(_ context.Context) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetParticipants returns the stored standings of an auction, best first
func (r *MemoryRepo) GetParticipants(_ context.Context, auctionID string) ([]model.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get participants %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return append([]model.Participant(nil), r.participants[auctionID]...), nil
}

// GetBids returns every bid attempt of an auction in arrival order
func (r *MemoryRepo) GetBids(_ context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("get bids %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return append([]model.Bid(nil), r.bids[auctionID]...), nil
}

// GetReceipt returns the receipt log of an auction
func (r *MemoryRepo) GetReceipt(_ context.Context, auctionID string) ([]model.ReceiptEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries, ok := r.receipts[auctionID]
	if !ok {
		return nil, fmt.Errorf("get receipt %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return append([]model.ReceiptEntry(nil), entries...), nil
}

// EligibleVendors returns the vendors that quoted on a listing
func (r *MemoryRepo) EligibleVendors(_ context.Context, listingID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vendors, ok := r.quoteOrder[listingID]
	if !ok {
		return nil, fmt.Errorf("eligible vendors for %s: %w", listingID, auctionerrors.ErrListingNotFound)
	}
	return append([]string(nil), vendors...), nil
}

// AddQuote registers a vendor's quote on a listing. It stands in for the listing service.
func (r *MemoryRepo) AddQuote(listingID, vendorID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.quotes[listingID]
	if !ok {
		set = make(map[string]struct{})
		r.quotes[listingID] = set
	}
	if _, dup := set[vendorID]; dup {
		return
	}
	set[vendorID] = struct{}{}
	r.quoteOrder[listingID] = append(r.quoteOrder[listingID], vendorID)
}
