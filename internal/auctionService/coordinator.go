package auction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"reverse-auction/internal/auctionerrors"
	"reverse-auction/internal/clock"
	"reverse-auction/internal/engine"
	"reverse-auction/internal/models"
	"reverse-auction/internal/receipt"
	"reverse-auction/internal/repository"
	"reverse-auction/utils"
)

// Coordinator is the only entry point that mutates auctions. Operations on one
// auction are serialized; operations on different auctions run in parallel.
type Coordinator struct {
	store     repository.AuctionStore
	clock     clock.Clock
	publisher receipt.Subscriber
	newID     func() string
	tracer    trace.Tracer

	mu       sync.RWMutex
	sessions map[string]*session
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithClock sets the time source
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithPublisher fans out every durable receipt entry to p
func WithPublisher(p receipt.Subscriber) Option {
	return func(co *Coordinator) { co.publisher = p }
}

// WithIDGenerator overrides how auction and bid ids are generated
func WithIDGenerator(f func() string) Option {
	return func(co *Coordinator) { co.newID = f }
}

// WithTracer sets the tracer used for operation spans
func WithTracer(t trace.Tracer) Option {
	return func(co *Coordinator) { co.tracer = t }
}

// NewCoordinator creates a Coordinator persisting to store
func NewCoordinator(store repository.AuctionStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		clock:    clock.System(),
		newID:    utils.GenerateID,
		tracer:   otel.Tracer("reverse-auction/coordinator"),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateAuction opens a new auction and records its created receipt entry
func (c *Coordinator) CreateAuction(ctx context.Context, p engine.CreateParams) (models.Auction, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.CreateAuction", trace.WithAttributes(
		attribute.String("listing.id", p.ListingID),
	))
	defer span.End()

	now := c.clock.Now()
	a, err := engine.NewAuction(c.newID(), p, now)
	if err != nil {
		return models.Auction{}, fmt.Errorf("coordinator: create auction: %w", err)
	}

	log := receipt.NewLog(a.ID)
	draft := log.Draft()
	entry := draft.Add(models.EventCreated, now, models.ReceiptDetails{Created: &models.CreatedDetails{
		ListingID:            a.ListingID,
		BuyerID:              a.BuyerID,
		StartTime:            a.StartTime,
		EndTime:              a.EndTime,
		Rule:                 a.Rule,
		ExtensionWindowSec:   int64(a.ExtensionWindow / time.Second),
		ExtensionDurationSec: int64(a.ExtensionDuration / time.Second),
		EligibleVendors:      a.EligibleVendors,
	}})

	if err := c.store.CreateAuction(ctx, a, entry); err != nil {
		c.infraFailure(span, "CreateAuction", a.ID, err)
		return models.Auction{}, fmt.Errorf("coordinator: create auction %s: %w: %w", a.ID, auctionerrors.ErrStoreUnavailable, err)
	}
	if err := log.Commit(draft); err != nil {
		return models.Auction{}, fmt.Errorf("coordinator: create auction %s: %w", a.ID, err)
	}

	c.mu.Lock()
	c.sessions[a.ID] = newSession(a, engine.NewLedger(a.ID), log)
	c.mu.Unlock()
	c.publish(entry)

	utils.Info("auction created", map[string]any{
		"auction_id": a.ID,
		"listing_id": a.ListingID,
		"buyer_id":   a.BuyerID,
		"status":     a.Status,
		"end_time":   a.EndTime.Format(time.RFC3339),
	})
	return a.Clone(), nil
}

// PlaceBid submits a bid. Validation rejections are returned as a result with
// Accepted=false and a nil error. A bid that reaches a closed auction is recorded as
// rejected and ErrAuctionNotRunning is returned together with the result.
func (c *Coordinator) PlaceBid(ctx context.Context, auctionID, vendorID string, amount float64) (models.BidResult, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator.PlaceBid", trace.WithAttributes(
		attribute.String("auction.id", auctionID),
		attribute.String("vendor.id", vendorID),
	))
	defer span.End()

	if strings.TrimSpace(vendorID) == "" {
		return models.BidResult{}, fmt.Errorf("coordinator: %w - missing vendor id", auctionerrors.ErrInvalidInput)
	}
	s, err := c.session(auctionID)
	if err != nil {
		return models.BidResult{}, err
	}
	if err := s.acquire(ctx); err != nil {
		return models.BidResult{}, fmt.Errorf("coordinator: place bid on %s: %w", auctionID, err)
	}
	defer s.release()

	now := c.clock.Now()
	next := s.auction.Clone()
	draft := s.log.Draft()
	ch := change{auction: next, draft: draft}

	if next.Status == models.StatusScheduled && !now.Before(next.StartTime) {
		if err := engine.Activate(&ch.auction, now); err != nil {
			return models.BidResult{}, fmt.Errorf("coordinator: %w", err)
		}
	}
	if engine.Due(ch.auction, now) {
		outcome, err := c.close(&ch.auction, s.ledger, draft, s.bids, now, models.EndExpired, "", "")
		if err != nil {
			return models.BidResult{}, err
		}
		ch.outcome = &outcome
		ch.fixRanks = true
	}

	bid := models.Bid{
		BidID:     c.newID(),
		AuctionID: auctionID,
		VendorID:  vendorID,
		Amount:    amount,
		Timestamp: now,
		Seq:       draft.NextSeq(),
	}
	result := models.BidResult{}

	switch {
	case !engine.Open(ch.auction, now):
		bid.RejectionReason = models.ReasonNotRunning
	case !engine.Eligible(ch.auction, vendorID):
		bid.RejectionReason = models.ReasonNotEligible
	default:
		verdict := engine.ValidateBid(s.ledger.Best(), amount, ch.auction.Rule)
		if !verdict.Accepted {
			bid.RejectionReason = verdict.Reason
			break
		}
		bid.Valid = true
		ch.ledger = s.ledger.Clone()
		if err := ch.ledger.Apply(bid); err != nil {
			return models.BidResult{}, fmt.Errorf("coordinator: place bid on %s: %w", auctionID, err)
		}
		result.Extended = engine.MaybeExtend(&ch.auction, now)
		if p, ok := ch.ledger.Lookup(vendorID); ok {
			result.Rank = p.Rank
		}
	}

	draft.Add(models.EventBidPlaced, now, models.ReceiptDetails{Bid: &models.BidDetails{
		BidID:    bid.BidID,
		VendorID: vendorID,
		Amount:   amount,
		Accepted: bid.Valid,
		Reason:   bid.RejectionReason,
		Rank:     result.Rank,
		EndTime:  ch.auction.EndTime,
		Extended: result.Extended,
	}})
	ch.bids = []models.Bid{bid}

	if err := c.apply(ctx, s, ch); err != nil {
		c.infraFailure(span, "PlaceBid", auctionID, err)
		return models.BidResult{}, err
	}

	result.Bid = bid
	result.Accepted = bid.Valid
	result.Reason = bid.RejectionReason
	result.EndTime = ch.auction.EndTime

	fields := map[string]any{
		"auction_id": auctionID,
		"vendor_id":  vendorID,
		"amount":     amount,
		"seq":        bid.Seq,
	}
	if !bid.Valid {
		fields["reason"] = string(bid.RejectionReason)
		utils.Info("bid rejected", fields)
		span.SetAttributes(attribute.String("bid.rejection", string(bid.RejectionReason)))
		if bid.RejectionReason == models.ReasonNotRunning {
			return result, fmt.Errorf("coordinator: bid on %s: %w (%s)", auctionID, auctionerrors.ErrAuctionNotRunning, ch.auction.Status)
		}
		return result, nil
	}

	fields["rank"] = *result.Rank
	if result.Extended {
		fields["end_time"] = ch.auction.EndTime.Format(time.RFC3339)
		utils.Info("auction extended by late bid", fields)
	}
	utils.Info("bid accepted", fields)
	return result, nil
}

// EndNow completes a running auction on behalf of its buyer. Repeating the call on
// an ended auction returns the recorded outcome with ErrAuctionTerminal.
func (c *Coordinator) EndNow(ctx context.Context, auctionID, requesterID string) (models.Outcome, error) {
	return c.terminate(ctx, "EndNow", auctionID, requesterID, models.EndManual, "")
}

// Cancel aborts a scheduled or running auction without a winner. Only the buyer may cancel.
func (c *Coordinator) Cancel(ctx context.Context, auctionID, requesterID, note string) (models.Outcome, error) {
	return c.terminate(ctx, "Cancel", auctionID, requesterID, models.EndCancelled, note)
}

// Expire completes a running auction whose end time has passed. It is called by the
// Scheduler and performs no authorization check. ErrNotDue is returned if the end
// time moved forward since the caller looked.
func (c *Coordinator) Expire(ctx context.Context, auctionID string) (models.Outcome, error) {
	return c.terminate(ctx, "Expire", auctionID, "", models.EndExpired, "")
}

func (c *Coordinator) terminate(ctx context.Context, op, auctionID, requesterID string, reason models.EndReason, note string) (models.Outcome, error) {
	ctx, span := c.tracer.Start(ctx, "coordinator."+op, trace.WithAttributes(
		attribute.String("auction.id", auctionID),
	))
	defer span.End()

	s, err := c.session(auctionID)
	if err != nil {
		return models.Outcome{}, err
	}
	if err := s.acquire(ctx); err != nil {
		return models.Outcome{}, fmt.Errorf("coordinator: %s %s: %w", strings.ToLower(op), auctionID, err)
	}
	defer s.release()

	if reason != models.EndExpired && requesterID != s.auction.BuyerID {
		utils.Warn("unauthorized termination attempt", map[string]any{
			"auction_id":   auctionID,
			"requester_id": requesterID,
			"operation":    op,
		})
		return models.Outcome{}, fmt.Errorf("coordinator: %s %s: %w", strings.ToLower(op), auctionID, auctionerrors.ErrNotAuctionOwner)
	}
	if s.auction.Status.Terminal() {
		return s.terminalOutcome(), fmt.Errorf("coordinator: %s %s: %w (%s)", strings.ToLower(op), auctionID, auctionerrors.ErrAuctionTerminal, s.auction.Status)
	}

	now := c.clock.Now()
	if reason == models.EndExpired && !engine.Due(s.auction, now) {
		return models.Outcome{}, fmt.Errorf("coordinator: expire %s: %w - ends at %s",
			auctionID, auctionerrors.ErrNotDue, s.auction.EndTime.Format(time.RFC3339Nano))
	}

	ch := change{auction: s.auction.Clone(), draft: s.log.Draft(), fixRanks: true}
	outcome, err := c.close(&ch.auction, s.ledger, ch.draft, s.bids, now, reason, requesterID, note)
	if err != nil {
		return models.Outcome{}, err
	}
	ch.outcome = &outcome

	if err := c.apply(ctx, s, ch); err != nil {
		c.infraFailure(span, op, auctionID, err)
		return models.Outcome{}, err
	}

	fields := map[string]any{
		"auction_id": auctionID,
		"status":     outcome.Status,
		"reason":     outcome.Reason,
		"bid_count":  outcome.BidCount,
	}
	if outcome.Winner != nil {
		fields["winner"] = *outcome.Winner
		fields["winning_amount"] = *outcome.WinningAmount
	}
	utils.Info("auction ended", fields)
	return outcome, nil
}

// Activate starts a scheduled auction whose start time has come
func (c *Coordinator) Activate(ctx context.Context, auctionID string) error {
	ctx, span := c.tracer.Start(ctx, "coordinator.Activate", trace.WithAttributes(
		attribute.String("auction.id", auctionID),
	))
	defer span.End()

	s, err := c.session(auctionID)
	if err != nil {
		return err
	}
	if err := s.acquire(ctx); err != nil {
		return fmt.Errorf("coordinator: activate %s: %w", auctionID, err)
	}
	defer s.release()

	if s.auction.Status == models.StatusRunning {
		return nil
	}
	ch := change{auction: s.auction.Clone(), draft: s.log.Draft()}
	if err := engine.Activate(&ch.auction, c.clock.Now()); err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}
	if err := c.apply(ctx, s, ch); err != nil {
		c.infraFailure(span, "Activate", auctionID, err)
		return err
	}
	utils.Info("auction started", map[string]any{"auction_id": auctionID})
	return nil
}

// close moves a to its terminal state and drafts the ended receipt entry.
func (c *Coordinator) close(a *models.Auction, ledger *engine.Ledger, draft *receipt.Draft, bids int, now time.Time, reason models.EndReason, requesterID, note string) (models.Outcome, error) {
	var err error
	if reason == models.EndCancelled {
		err = engine.Cancel(a, now)
	} else {
		err = engine.Complete(a, now)
	}
	if err != nil {
		return models.Outcome{}, fmt.Errorf("coordinator: %w", err)
	}

	details := &models.EndedDetails{
		Status:           a.Status,
		Reason:           reason,
		RequesterID:      requesterID,
		Note:             note,
		BidCount:         bids,
		AcceptedBidCount: ledger.AcceptedCount(),
		ParticipantCount: ledger.Len(),
	}
	if a.Status == models.StatusCompleted {
		if w, ok := ledger.Winner(); ok {
			id := w.VendorID
			details.Winner = &id
			details.WinningAmount = w.BestBid
		}
	}
	entry := draft.Add(models.EventEnded, now, models.ReceiptDetails{Ended: details})
	return outcomeFrom(a.ID, entry), nil
}

// change is the next state of a session, computed before it is made durable.
type change struct {
	auction models.Auction
	ledger  *engine.Ledger // nil when unchanged
	draft   *receipt.Draft
	bids    []models.Bid
	outcome *models.Outcome
	// fixRanks writes final standings even if the ledger did not change
	fixRanks bool
}

// apply persists ch in one store call and only then swaps it into the session.
// A failed write leaves the session exactly as it was.
func (c *Coordinator) apply(ctx context.Context, s *session, ch change) error {
	ledger := s.ledger
	if ch.ledger != nil {
		ledger = ch.ledger
	}
	m := repository.Mutation{
		Auction: ch.auction,
		Bids:    ch.bids,
		Entries: ch.draft.Entries(),
	}
	if ch.ledger != nil || ch.fixRanks {
		m.Participants = ledger.Ranked()
	}

	if err := c.store.Commit(ctx, m); err != nil {
		return fmt.Errorf("coordinator: commit %s: %w: %w", ch.auction.ID, auctionerrors.ErrStoreUnavailable, err)
	}
	if err := s.log.Commit(ch.draft); err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}

	s.auction = ch.auction
	s.ledger = ledger
	s.bids += len(ch.bids)
	if ch.outcome != nil {
		s.outcome = ch.outcome
	}
	s.publishView()

	for _, e := range m.Entries {
		c.publish(e)
	}
	return nil
}

func (c *Coordinator) publish(e models.ReceiptEntry) {
	if c.publisher != nil {
		c.publisher.Publish(e)
	}
}

func (c *Coordinator) infraFailure(span trace.Span, op, auctionID string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	utils.Error("auction store write failed", map[string]any{
		"operation":  op,
		"auction_id": auctionID,
		"error":      err.Error(),
	})
}

func (c *Coordinator) session(auctionID string) (*session, error) {
	c.mu.RLock()
	s, ok := c.sessions[auctionID]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("coordinator: auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return s, nil
}

func (s *session) terminalOutcome() models.Outcome {
	if s.outcome != nil {
		return *s.outcome
	}
	o := models.Outcome{AuctionID: s.auction.ID, Status: s.auction.Status}
	if s.auction.EndedAt != nil {
		o.EndedAt = s.auction.EndedAt.UTC()
	}
	return o
}

func outcomeFrom(auctionID string, e models.ReceiptEntry) models.Outcome {
	d := e.Details.Ended
	o := models.Outcome{AuctionID: auctionID, EndedAt: e.Timestamp}
	if d == nil {
		return o
	}
	o.Status = d.Status
	o.Reason = d.Reason
	o.Winner = d.Winner
	o.WinningAmount = d.WinningAmount
	o.BidCount = d.BidCount
	o.AcceptedBidCount = d.AcceptedBidCount
	return o
}

// IsTerminal reports whether err says the auction had already ended.
func IsTerminal(err error) bool {
	return errors.Is(err, auctionerrors.ErrAuctionTerminal)
}
