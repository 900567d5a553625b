package engine

import (
	"fmt"
	"strings"
	"time"

	"reverse-auction/internal/auctionerrors"
	"reverse-auction/internal/models"
)

// CreateParams describes a new auction.
type CreateParams struct {
	ListingID         string
	BuyerID           string
	Duration          time.Duration
	StartAt           time.Time // zero means start immediately
	Rule              models.DecrementRule
	ExtensionWindow   time.Duration
	ExtensionDuration time.Duration
	EligibleVendors   []string
}

// NewAuction builds an auction from p. It starts running immediately unless
// StartAt lies in the future, in which case it is scheduled.
func NewAuction(id string, p CreateParams, now time.Time) (models.Auction, error) {
	if strings.TrimSpace(p.ListingID) == "" || strings.TrimSpace(p.BuyerID) == "" {
		return models.Auction{}, fmt.Errorf("engine: %w - missing listing or buyer", auctionerrors.ErrInvalidInput)
	}
	if p.Duration <= 0 {
		return models.Auction{}, fmt.Errorf("engine: %w - duration must be positive", auctionerrors.ErrInvalidInput)
	}
	if p.ExtensionWindow < 0 || p.ExtensionDuration < 0 {
		return models.Auction{}, fmt.Errorf("engine: %w - negative extension settings", auctionerrors.ErrInvalidInput)
	}
	if err := ValidateRule(p.Rule); err != nil {
		return models.Auction{}, err
	}

	start := p.StartAt.UTC()
	status := models.StatusScheduled
	if p.StartAt.IsZero() || !start.After(now) {
		start = now
		status = models.StatusRunning
	}

	return models.Auction{
		ID:                id,
		ListingID:         p.ListingID,
		BuyerID:           p.BuyerID,
		StartTime:         start,
		EndTime:           start.Add(p.Duration),
		Rule:              p.Rule,
		ExtensionWindow:   p.ExtensionWindow,
		ExtensionDuration: p.ExtensionDuration,
		Status:            status,
		EligibleVendors:   dedupe(p.EligibleVendors),
		CreatedAt:         now,
	}, nil
}

// Activate moves a scheduled auction to running once its start time has come.
func Activate(a *models.Auction, now time.Time) error {
	switch {
	case a.Status.Terminal():
		return fmt.Errorf("engine: activate %s: %w (%s)", a.ID, auctionerrors.ErrAuctionTerminal, a.Status)
	case a.Status == models.StatusRunning:
		return nil
	case now.Before(a.StartTime):
		return fmt.Errorf("engine: activate %s: %w - starts at %s", a.ID, auctionerrors.ErrNotDue, a.StartTime.Format(time.RFC3339))
	}
	a.Status = models.StatusRunning
	return nil
}

// Complete ends a running auction.
func Complete(a *models.Auction, now time.Time) error {
	switch {
	case a.Status.Terminal():
		return fmt.Errorf("engine: complete %s: %w (%s)", a.ID, auctionerrors.ErrAuctionTerminal, a.Status)
	case a.Status != models.StatusRunning:
		return fmt.Errorf("engine: complete %s: %w (%s)", a.ID, auctionerrors.ErrAuctionNotRunning, a.Status)
	}
	a.Status = models.StatusCompleted
	a.EndedAt = &now
	return nil
}

// Cancel aborts a scheduled or running auction without a winner.
func Cancel(a *models.Auction, now time.Time) error {
	if a.Status.Terminal() {
		return fmt.Errorf("engine: cancel %s: %w (%s)", a.ID, auctionerrors.ErrAuctionTerminal, a.Status)
	}
	a.Status = models.StatusCancelled
	a.EndedAt = &now
	return nil
}

// MaybeExtend applies the anti-snipe rule after an accepted bid at now. When the
// remaining time is within the extension window the end is reset to
// now+ExtensionDuration. EndTime never moves backwards.
func MaybeExtend(a *models.Auction, now time.Time) bool {
	if a.ExtensionWindow <= 0 || a.Status != models.StatusRunning {
		return false
	}
	if a.EndTime.Sub(now) > a.ExtensionWindow {
		return false
	}
	candidate := now.Add(a.ExtensionDuration)
	if !candidate.After(a.EndTime) {
		return false
	}
	a.EndTime = candidate
	a.ExtensionCount++
	return true
}

// Due reports whether a running auction has reached its end time.
func Due(a models.Auction, now time.Time) bool {
	return a.Status == models.StatusRunning && !now.Before(a.EndTime)
}

// Open reports whether a bid arriving at now may be considered at all.
func Open(a models.Auction, now time.Time) bool {
	return a.Status == models.StatusRunning && now.Before(a.EndTime)
}

// TimeRemaining is the time left until EndTime, zero for terminal auctions.
func TimeRemaining(a models.Auction, now time.Time) time.Duration {
	if a.Status.Terminal() || !now.Before(a.EndTime) {
		return 0
	}
	return a.EndTime.Sub(now)
}

// Eligible reports whether vendorID may bid. An empty snapshot admits everyone.
func Eligible(a models.Auction, vendorID string) bool {
	if len(a.EligibleVendors) == 0 {
		return true
	}
	for _, v := range a.EligibleVendors {
		if v == vendorID {
			return true
		}
	}
	return false
}

func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
