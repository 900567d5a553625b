package engine

import (
	"errors"
	"fmt"

	"reverse-auction/internal/models"
)

// ErrReplayDiverged means a receipt log cannot be re-derived by the validator and ledger.
var ErrReplayDiverged = errors.New("receipt replay diverged")

// Replay rebuilds the ledger of one auction purely from its receipt entries, in order.
// Every recorded verdict is re-checked: an accepted bid the validator would refuse, or a
// decrement rejection it would accept, is reported as ErrReplayDiverged.
func Replay(entries []models.ReceiptEntry) (*Ledger, error) {
	if len(entries) == 0 || entries[0].Event != models.EventCreated || entries[0].Details.Created == nil {
		return nil, fmt.Errorf("replay: %w - log must start with a created entry", ErrReplayDiverged)
	}
	created := entries[0].Details.Created
	ledger := NewLedger(entries[0].AuctionID)
	ended := false

	for _, e := range entries[1:] {
		switch e.Event {
		case models.EventEnded:
			if ended {
				return nil, fmt.Errorf("replay: %w - second ended entry at seq %d", ErrReplayDiverged, e.Seq)
			}
			ended = true
		case models.EventBidPlaced:
			d := e.Details.Bid
			if d == nil {
				return nil, fmt.Errorf("replay: %w - bid entry %d has no details", ErrReplayDiverged, e.Seq)
			}
			if err := replayBid(ledger, created.Rule, e, *d, ended); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("replay: %w - unexpected %s entry at seq %d", ErrReplayDiverged, e.Event, e.Seq)
		}
	}
	return ledger, nil
}

func replayBid(ledger *Ledger, rule models.DecrementRule, e models.ReceiptEntry, d models.BidDetails, ended bool) error {
	verdict := ValidateBid(ledger.Best(), d.Amount, rule)

	if !d.Accepted {
		switch d.Reason {
		case models.ReasonInsufficientDecrement, models.ReasonNonPositiveAmount, models.ReasonInvalidAmount:
			if verdict.Accepted {
				return fmt.Errorf("replay: %w - seq %d recorded as rejected (%s) but validator accepts", ErrReplayDiverged, e.Seq, d.Reason)
			}
		}
		return nil
	}

	if ended {
		return fmt.Errorf("replay: %w - seq %d accepted after the auction ended", ErrReplayDiverged, e.Seq)
	}
	if !verdict.Accepted {
		return fmt.Errorf("replay: %w - seq %d recorded as accepted but validator says %q", ErrReplayDiverged, e.Seq, verdict.Reason)
	}

	bid := models.Bid{
		BidID:     d.BidID,
		AuctionID: e.AuctionID,
		VendorID:  d.VendorID,
		Amount:    d.Amount,
		Timestamp: e.Timestamp,
		Seq:       e.Seq,
		Valid:     true,
	}
	if err := ledger.Apply(bid); err != nil {
		return fmt.Errorf("replay: %w - seq %d: %v", ErrReplayDiverged, e.Seq, err)
	}
	return nil
}
