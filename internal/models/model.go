package models

import "time"

// Status is the lifecycle state of an auction
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// RuleKind selects how the minimum improvement of a new bid is computed
type RuleKind string

const (
	RulePercent RuleKind = "percent"
	RuleFixed   RuleKind = "fixed"
)

// DecrementRule is the minimum improvement every new bid must offer over the current best
type DecrementRule struct {
	Kind  RuleKind `json:"kind"`
	Value float64  `json:"value"`
}

// Auction is a reverse auction over one listing. Lower bids are better.
type Auction struct {
	ID                string        `json:"auction_id"`
	ListingID         string        `json:"listing_id"`
	BuyerID           string        `json:"buyer_id"`
	StartTime         time.Time     `json:"start_time"`
	EndTime           time.Time     `json:"end_time"`
	Rule              DecrementRule `json:"decrement_rule"`
	ExtensionWindow   time.Duration `json:"extension_window"`
	ExtensionDuration time.Duration `json:"extension_duration"`
	Status            Status        `json:"status"`
	EligibleVendors   []string      `json:"eligible_vendors,omitempty"`
	ExtensionCount    int           `json:"extension_count"`
	CreatedAt         time.Time     `json:"created_at"`
	EndedAt           *time.Time    `json:"ended_at,omitempty"`
}

// Participant is a vendor's standing in one auction
type Participant struct {
	AuctionID string   `json:"auction_id"`
	VendorID  string   `json:"vendor_id"`
	BestBid   *float64 `json:"best_bid"`
	Rank      *int     `json:"rank"`
	BidCount  int      `json:"bid_count"`
	// AchievedAt and AchievedSeq identify the bid that set BestBid; they break rank ties.
	AchievedAt  time.Time `json:"achieved_at"`
	AchievedSeq int64     `json:"achieved_seq"`
}

// RejectionReason explains why a bid was not accepted
type RejectionReason string

const (
	ReasonNone                  RejectionReason = ""
	ReasonNonPositiveAmount     RejectionReason = "bid amount must be positive"
	ReasonInvalidAmount         RejectionReason = "bid amount is not a finite number"
	ReasonInsufficientDecrement RejectionReason = "bid does not beat current best by the required decrement"
	ReasonNotRunning            RejectionReason = "auction not running"
	ReasonNotEligible           RejectionReason = "vendor is not eligible for this auction"
)

// Bid is one bid attempt. Rejected bids are kept for audit.
type Bid struct {
	BidID           string          `json:"bid_id"`
	AuctionID       string          `json:"auction_id"`
	VendorID        string          `json:"vendor_id"`
	Amount          float64         `json:"amount"`
	Timestamp       time.Time       `json:"timestamp"`
	Seq             int64           `json:"seq"`
	Valid           bool            `json:"valid"`
	RejectionReason RejectionReason `json:"rejection_reason,omitempty"`
}

// ReceiptEvent names an entry in the receipt log
type ReceiptEvent string

const (
	EventCreated   ReceiptEvent = "created"
	EventBidPlaced ReceiptEvent = "bid_placed"
	EventEnded     ReceiptEvent = "ended"
)

// EndReason records what moved an auction into a terminal state
type EndReason string

const (
	EndManual    EndReason = "manual"
	EndExpired   EndReason = "expired"
	EndCancelled EndReason = "cancelled"
)

// ReceiptEntry is one immutable, hash-chained audit record
type ReceiptEntry struct {
	AuctionID string         `json:"auction_id"`
	Seq       int64          `json:"seq"`
	Event     ReceiptEvent   `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
	Details   ReceiptDetails `json:"details"`
	PrevHash  string         `json:"prev_hash"`
	Hash      string         `json:"hash"`
}

// ReceiptDetails holds exactly one of its members, matching the entry's event.
type ReceiptDetails struct {
	Created *CreatedDetails `json:"created,omitempty"`
	Bid     *BidDetails     `json:"bid,omitempty"`
	Ended   *EndedDetails   `json:"ended,omitempty"`
}

// CreatedDetails describes the auction as it was opened
type CreatedDetails struct {
	ListingID            string        `json:"listing_id"`
	BuyerID              string        `json:"buyer_id"`
	StartTime            time.Time     `json:"start_time"`
	EndTime              time.Time     `json:"end_time"`
	Rule                 DecrementRule `json:"decrement_rule"`
	ExtensionWindowSec   int64         `json:"extension_window_sec"`
	ExtensionDurationSec int64         `json:"extension_duration_sec"`
	EligibleVendors      []string      `json:"eligible_vendors,omitempty"`
}

// BidDetails describes one bid attempt and its effect
type BidDetails struct {
	BidID    string          `json:"bid_id"`
	VendorID string          `json:"vendor_id"`
	Amount   float64         `json:"amount"`
	Accepted bool            `json:"accepted"`
	Reason   RejectionReason `json:"reason,omitempty"`
	Rank     *int            `json:"rank,omitempty"`
	EndTime  time.Time       `json:"end_time"`
	Extended bool            `json:"extended,omitempty"`
}

// EndedDetails carries the resolved outcome of an auction
type EndedDetails struct {
	Status           Status    `json:"status"`
	Reason           EndReason `json:"reason"`
	RequesterID      string    `json:"requester_id,omitempty"`
	Note             string    `json:"note,omitempty"`
	Winner           *string   `json:"winner"`
	WinningAmount    *float64  `json:"winning_amount"`
	BidCount         int       `json:"bid_count"`
	AcceptedBidCount int       `json:"accepted_bid_count"`
	ParticipantCount int       `json:"participant_count"`
}

// Clone returns a copy of a that shares no memory with it.
func (a Auction) Clone() Auction {
	if a.EligibleVendors != nil {
		a.EligibleVendors = append([]string(nil), a.EligibleVendors...)
	}
	if a.EndedAt != nil {
		t := *a.EndedAt
		a.EndedAt = &t
	}
	return a
}
