package helpers

import (
	"time"

	model "reverse-auction/internal/models"
)

// Request/Response DTOs

type DecrementRuleRequest struct {
	Kind  string  `json:"kind" binding:"required,oneof=percent fixed"`
	Value float64 `json:"value" binding:"required,gt=0"`
}

type CreateAuctionRequest struct {
	ListingID            string               `json:"listing_id" binding:"required"`
	BuyerID              string               `json:"buyer_id" binding:"required"`
	DurationMinutes      int                  `json:"duration_minutes" binding:"omitempty,gt=0"`
	DecrementRule        DecrementRuleRequest `json:"decrement_rule" binding:"required"`
	ExtensionWindowSec   *int                 `json:"extension_window_sec" binding:"omitempty,gte=0"`
	ExtensionDurationSec *int                 `json:"extension_duration_sec" binding:"omitempty,gte=0"`
	StartAt              *time.Time           `json:"start_at"`
}

// PlaceBidRequest keeps Amount as a pointer so zero and negative bids reach the
// engine and are recorded as rejected instead of failing binding.
type PlaceBidRequest struct {
	VendorID string   `json:"vendor_id" binding:"required"`
	Amount   *float64 `json:"amount" binding:"required"`
}

type EndAuctionRequest struct {
	RequesterID string `json:"requester_id" binding:"required"`
}

type CancelAuctionRequest struct {
	RequesterID string `json:"requester_id" binding:"required"`
	Reason      string `json:"reason"`
}

type AuctionResponse struct {
	AuctionID            string              `json:"auction_id"`
	ListingID            string              `json:"listing_id"`
	BuyerID              string              `json:"buyer_id"`
	Status               model.Status        `json:"status"`
	StartTime            string              `json:"start_time"`
	EndTime              string              `json:"end_time"`
	DecrementRule        model.DecrementRule `json:"decrement_rule"`
	ExtensionWindowSec   int64               `json:"extension_window_sec"`
	ExtensionDurationSec int64               `json:"extension_duration_sec"`
	ExtensionCount       int                 `json:"extension_count"`
	EligibleVendors      int                 `json:"eligible_vendors"`
	EndedAt              *string             `json:"ended_at,omitempty"`
}

type BidResponse struct {
	BidID    string   `json:"bid_id"`
	Accepted bool     `json:"accepted"`
	Reason   string   `json:"reason,omitempty"`
	Rank     *int     `json:"rank,omitempty"`
	Amount   float64  `json:"amount"`
	EndTime  string   `json:"end_time"`
	Extended bool     `json:"extended"`
}

type VerifyResponse struct {
	AuctionID string `json:"auction_id"`
	Entries   int    `json:"entries"`
	Valid     bool   `json:"valid"`
	Problem   string `json:"problem,omitempty"`
}

// NewAuctionResponse flattens an auction for clients
func NewAuctionResponse(a model.Auction) AuctionResponse {
	resp := AuctionResponse{
		AuctionID:            a.ID,
		ListingID:            a.ListingID,
		BuyerID:              a.BuyerID,
		Status:               a.Status,
		StartTime:            a.StartTime.UTC().Format(time.RFC3339),
		EndTime:              a.EndTime.UTC().Format(time.RFC3339),
		DecrementRule:        a.Rule,
		ExtensionWindowSec:   int64(a.ExtensionWindow / time.Second),
		ExtensionDurationSec: int64(a.ExtensionDuration / time.Second),
		ExtensionCount:       a.ExtensionCount,
		EligibleVendors:      len(a.EligibleVendors),
	}
	if a.EndedAt != nil {
		ended := a.EndedAt.UTC().Format(time.RFC3339)
		resp.EndedAt = &ended
	}
	return resp
}

// NewBidResponse is what a vendor sees about its own bid
func NewBidResponse(r model.BidResult) BidResponse {
	return BidResponse{
		BidID:    r.Bid.BidID,
		Accepted: r.Accepted,
		Reason:   string(r.Reason),
		Rank:     r.Rank,
		Amount:   r.Bid.Amount,
		EndTime:  r.EndTime.UTC().Format(time.RFC3339),
		Extended: r.Extended,
	}
}
