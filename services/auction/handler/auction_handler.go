package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"reverse-auction/internal/auctionerrors"
	"reverse-auction/internal/engine"
	model "reverse-auction/internal/models"
	"reverse-auction/internal/repository"
	"reverse-auction/services/auction/helpers"
	"reverse-auction/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=auction_handler.go -destination=mock_handler.go -package=handler

type AuctionServiceInterface interface {
	CreateAuction(ctx context.Context, p engine.CreateParams) (model.Auction, error)
	Get(auctionID string) (model.Auction, error)
	PlaceBid(ctx context.Context, auctionID, vendorID string, amount float64) (model.BidResult, error)
	Leaderboard(auctionID string, limit int) (model.Leaderboard, error)
	MyRank(auctionID, vendorID string) (model.VendorRank, error)
	EndNow(ctx context.Context, auctionID, requesterID string) (model.Outcome, error)
	Cancel(ctx context.Context, auctionID, requesterID, note string) (model.Outcome, error)
	Outcome(auctionID string) (model.Outcome, error)
	Receipt(auctionID string) ([]model.ReceiptEntry, error)
	VerifyReceipt(auctionID string) (int, error)
	Bids(ctx context.Context, auctionID string) ([]model.Bid, error)
}

// Defaults fill in what a create request leaves out.
type Defaults struct {
	DurationMinutes   int
	ExtensionWindow   time.Duration
	ExtensionDuration time.Duration
	LeaderboardLimit  int
	MinEligibleQuotes int
}

type AuctionHandler struct {
	service  AuctionServiceInterface
	quotes   repository.QuoteSource
	defaults Defaults
}

func NewAuctionHandler(service AuctionServiceInterface, quotes repository.QuoteSource, defaults Defaults) *AuctionHandler {
	return &AuctionHandler{service: service, quotes: quotes, defaults: defaults}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	eligible, err := h.eligibleVendors(c.Request.Context(), req.ListingID)
	if err != nil {
		h.fail(c, "CreateAuctionHandler", "failed to create auction", err, map[string]any{
			"listing_id": req.ListingID,
			"buyer_id":   req.BuyerID,
		})
		return
	}

	auction, err := h.service.CreateAuction(c.Request.Context(), h.createParams(req, eligible))
	if err != nil {
		h.fail(c, "CreateAuctionHandler", "failed to create auction", err, map[string]any{
			"listing_id": req.ListingID,
			"buyer_id":   req.BuyerID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.NewAuctionResponse(auction), "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": auction.ID,
		"listing_id": auction.ListingID,
		"vendors":    len(auction.EligibleVendors),
	})
}

// GetAuctionHandler handles GET /auctions/:auction_id
func (h *AuctionHandler) GetAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	auction, err := h.service.Get(auctionID)
	if err != nil {
		h.warn(c, "GetAuctionHandler", "error retrieving auction", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, helpers.NewAuctionResponse(auction), "auction retrieved successfully")
}

// PlaceBidHandler handles POST /auctions/:auction_id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	result, err := h.service.PlaceBid(c.Request.Context(), auctionID, req.VendorID, *req.Amount)
	fields := map[string]any{
		"auction_id": auctionID,
		"vendor_id":  req.VendorID,
		"amount":     *req.Amount,
	}
	if err != nil {
		if errors.Is(err, auctionerrors.ErrAuctionNotRunning) && result.Bid.BidID != "" {
			status, message := helpers.MapErrorToHTTP(err)
			utils.JSONErrorWithData(c, status, fmt.Errorf("%s: %w", message, err), message, helpers.NewBidResponse(result))
			utils.Warn("PlaceBidHandler: bid on closed auction", fields)
			return
		}
		h.fail(c, "PlaceBidHandler", "failed to place bid", err, fields)
		return
	}

	resp := helpers.NewBidResponse(result)
	if !result.Accepted {
		utils.JSONResponse(c, http.StatusOK, resp, "bid rejected")
		fields["reason"] = resp.Reason
		helpers.LogSuccess("PlaceBidHandler", "bid rejected", fields)
		return
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid accepted")
	fields["bid_id"] = resp.BidID
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", fields)
}

// LeaderboardHandler handles GET /auctions/:auction_id/leaderboard
func (h *AuctionHandler) LeaderboardHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	limit := h.defaults.LeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			helpers.HandleBindError(c, "LeaderboardHandler", fmt.Errorf("limit must be a positive integer, got %q", raw))
			return
		}
		limit = n
	}

	board, err := h.service.Leaderboard(auctionID, limit)
	if err != nil {
		h.warn(c, "LeaderboardHandler", "error retrieving leaderboard", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, board, "leaderboard retrieved successfully")
}

// MyRankHandler handles GET /auctions/:auction_id/vendors/:vendor_id/rank
func (h *AuctionHandler) MyRankHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	vendorID := c.Param("vendor_id")

	rank, err := h.service.MyRank(auctionID, vendorID)
	if err != nil {
		h.warn(c, "MyRankHandler", "error retrieving rank", err, map[string]any{
			"auction_id": auctionID,
			"vendor_id":  vendorID,
		})
		return
	}
	utils.JSONResponse(c, http.StatusOK, rank, "rank retrieved successfully")
}

// EndAuctionHandler handles POST /auctions/:auction_id/end
func (h *AuctionHandler) EndAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.EndAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "EndAuctionHandler", err)
		return
	}

	outcome, err := h.service.EndNow(c.Request.Context(), auctionID, req.RequesterID)
	h.respondOutcome(c, "EndAuctionHandler", "auction ended successfully", outcome, err, map[string]any{
		"auction_id":   auctionID,
		"requester_id": req.RequesterID,
	})
}

// CancelAuctionHandler handles POST /auctions/:auction_id/cancel
func (h *AuctionHandler) CancelAuctionHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	var req helpers.CancelAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CancelAuctionHandler", err)
		return
	}

	outcome, err := h.service.Cancel(c.Request.Context(), auctionID, req.RequesterID, req.Reason)
	h.respondOutcome(c, "CancelAuctionHandler", "auction cancelled successfully", outcome, err, map[string]any{
		"auction_id":   auctionID,
		"requester_id": req.RequesterID,
	})
}

// OutcomeHandler handles GET /auctions/:auction_id/outcome
func (h *AuctionHandler) OutcomeHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	outcome, err := h.service.Outcome(auctionID)
	if err != nil {
		h.warn(c, "OutcomeHandler", "error retrieving outcome", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, outcome, "outcome retrieved successfully")
}

// ReceiptHandler handles GET /auctions/:auction_id/receipt
func (h *AuctionHandler) ReceiptHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	entries, err := h.service.Receipt(auctionID)
	if err != nil {
		h.warn(c, "ReceiptHandler", "error retrieving receipt", err, map[string]any{"auction_id": auctionID})
		return
	}
	utils.JSONResponse(c, http.StatusOK, entries, "receipt retrieved successfully")
}

// VerifyReceiptHandler handles GET /auctions/:auction_id/receipt/verify
func (h *AuctionHandler) VerifyReceiptHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	checked, err := h.service.VerifyReceipt(auctionID)
	if errors.Is(err, auctionerrors.ErrAuctionNotFound) {
		h.warn(c, "VerifyReceiptHandler", "error retrieving receipt", err, map[string]any{"auction_id": auctionID})
		return
	}

	resp := helpers.VerifyResponse{AuctionID: auctionID, Entries: checked, Valid: true}
	if err != nil {
		resp.Valid = false
		resp.Problem = err.Error()
		utils.Error("VerifyReceiptHandler: receipt failed verification", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}
	utils.JSONResponse(c, http.StatusOK, resp, "receipt verified")
}

// BidsHandler handles GET /auctions/:auction_id/bids
func (h *AuctionHandler) BidsHandler(c *gin.Context) {
	auctionID := c.Param("auction_id")
	bids, err := h.service.Bids(c.Request.Context(), auctionID)
	if err != nil {
		h.warn(c, "BidsHandler", "error retrieving bids", err, map[string]any{"auction_id": auctionID})
		return
	}
	if len(bids) == 0 {
		utils.JSONResponse(c, http.StatusOK, []model.Bid{}, "no bids found for auction")
		return
	}
	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
}

// HealthHandler handles GET /healthz
func HealthHandler(c *gin.Context) {
	utils.JSONResponse(c, http.StatusOK, gin.H{"time": time.Now().UTC().Format(time.RFC3339)}, "ok")
}

func (h *AuctionHandler) eligibleVendors(ctx context.Context, listingID string) ([]string, error) {
	vendors, err := h.quotes.EligibleVendors(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if len(vendors) < h.defaults.MinEligibleQuotes {
		return nil, fmt.Errorf("listing %s has %d quotes, need %d: %w",
			listingID, len(vendors), h.defaults.MinEligibleQuotes, auctionerrors.ErrInsufficientQuotes)
	}
	return vendors, nil
}

func (h *AuctionHandler) createParams(req helpers.CreateAuctionRequest, eligible []string) engine.CreateParams {
	minutes := req.DurationMinutes
	if minutes == 0 {
		minutes = h.defaults.DurationMinutes
	}
	p := engine.CreateParams{
		ListingID:         req.ListingID,
		BuyerID:           req.BuyerID,
		Duration:          time.Duration(minutes) * time.Minute,
		Rule:              model.DecrementRule{Kind: model.RuleKind(req.DecrementRule.Kind), Value: req.DecrementRule.Value},
		ExtensionWindow:   h.defaults.ExtensionWindow,
		ExtensionDuration: h.defaults.ExtensionDuration,
		EligibleVendors:   eligible,
	}
	if req.ExtensionWindowSec != nil {
		p.ExtensionWindow = time.Duration(*req.ExtensionWindowSec) * time.Second
	}
	if req.ExtensionDurationSec != nil {
		p.ExtensionDuration = time.Duration(*req.ExtensionDurationSec) * time.Second
	}
	if req.StartAt != nil {
		p.StartAt = *req.StartAt
	}
	return p
}

// respondOutcome answers end and cancel. A retry on an already ended auction gets
// the recorded outcome alongside the conflict.
func (h *AuctionHandler) respondOutcome(c *gin.Context, handlerName, message string, outcome model.Outcome, err error, fields map[string]any) {
	if err != nil {
		if errors.Is(err, auctionerrors.ErrAuctionTerminal) && outcome.AuctionID != "" {
			status, msg := helpers.MapErrorToHTTP(err)
			utils.JSONErrorWithData(c, status, fmt.Errorf("%s: %w", msg, err), msg, outcome)
			fields["status"] = string(outcome.Status)
			utils.Warn(handlerName+": auction already ended", fields)
			return
		}
		h.fail(c, handlerName, "failed to end auction", err, fields)
		return
	}

	utils.JSONResponse(c, http.StatusOK, outcome, message)
	fields["status"] = string(outcome.Status)
	if outcome.Winner != nil {
		fields["winner"] = *outcome.Winner
	}
	helpers.LogSuccess(handlerName, message, fields)
}

// fail reports a failed mutation. Server-side failures log at error, the rest at warn.
func (h *AuctionHandler) fail(c *gin.Context, handlerName, logMessage string, err error, fields map[string]any) {
	status, message := helpers.MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
	fields["handler"] = handlerName
	fields["error"] = err.Error()
	if status >= http.StatusInternalServerError {
		utils.Error(handlerName+": "+logMessage, fields)
		return
	}
	utils.Warn(handlerName+": "+logMessage, fields)
}

func (h *AuctionHandler) warn(c *gin.Context, handlerName, logMessage string, err error, fields map[string]any) {
	status, message := helpers.MapErrorToHTTP(err)
	utils.JSONError(c, status, fmt.Errorf("%s: %w", message, err), message)
	fields["error"] = err.Error()
	utils.Warn(handlerName+": "+logMessage, fields)
}
