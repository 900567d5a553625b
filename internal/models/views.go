package models

import "time"

// BidResult is what a vendor learns about its own bid
type BidResult struct {
	Bid      Bid             `json:"bid"`
	Accepted bool            `json:"accepted"`
	Reason   RejectionReason `json:"reason,omitempty"`
	Rank     *int            `json:"rank,omitempty"`
	EndTime  time.Time       `json:"end_time"`
	Extended bool            `json:"extended"`
}

// Outcome summarises a terminal auction
type Outcome struct {
	AuctionID        string    `json:"auction_id"`
	Status           Status    `json:"status"`
	Reason           EndReason `json:"reason,omitempty"`
	Winner           *string   `json:"winner"`
	WinningAmount    *float64  `json:"winning_amount"`
	BidCount         int       `json:"bid_count"`
	AcceptedBidCount int       `json:"accepted_bid_count"`
	EndedAt          time.Time `json:"ended_at"`
}

// LeaderboardEntry is one row of the buyer's ranked view
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	VendorID string  `json:"vendor_id"`
	BestBid  float64 `json:"best_bid"`
}

// Leaderboard is the buyer's view of an auction
type Leaderboard struct {
	AuctionID        string             `json:"auction_id"`
	Status           Status             `json:"status"`
	TimeRemainingSec int64              `json:"time_remaining_sec"`
	LowestBid        *float64           `json:"lowest_bid"`
	NextMaxBid       *float64           `json:"next_max_bid"`
	Participants     int                `json:"participants"`
	Entries          []LeaderboardEntry `json:"entries"`
}

// VendorRank is a vendor's view of its own standing. It never names other vendors.
type VendorRank struct {
	AuctionID        string   `json:"auction_id"`
	VendorID         string   `json:"vendor_id"`
	Rank             *int     `json:"rank"`
	BestBid          *float64 `json:"best_bid"`
	TimeRemainingSec int64    `json:"time_remaining_sec"`
	Status           Status   `json:"status"`
}
