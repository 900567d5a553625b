package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reverse-auction/internal/auctionerrors"
	"reverse-auction/internal/engine"
	model "reverse-auction/internal/models"
	"reverse-auction/internal/repository"
	"reverse-auction/services/auction/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testDefaults = Defaults{
	DurationMinutes:   30,
	ExtensionWindow:   60 * time.Second,
	ExtensionDuration: 60 * time.Second,
	LeaderboardLimit:  10,
	MinEligibleQuotes: 2,
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *MockAuctionServiceInterface, *repository.MockQuoteSource) {
	ctrl := gomock.NewController(t)
	mockService := NewMockAuctionServiceInterface(ctrl)
	mockQuotes := repository.NewMockQuoteSource(ctrl)
	h := NewAuctionHandler(mockService, mockQuotes, testDefaults)

	router := gin.New()
	router.GET("/healthz", HealthHandler)
	router.POST("/auctions", h.CreateAuctionHandler)
	router.GET("/auctions/:auction_id", h.GetAuctionHandler)
	router.POST("/auctions/:auction_id/bids", h.PlaceBidHandler)
	router.GET("/auctions/:auction_id/bids", h.BidsHandler)
	router.GET("/auctions/:auction_id/leaderboard", h.LeaderboardHandler)
	router.GET("/auctions/:auction_id/vendors/:vendor_id/rank", h.MyRankHandler)
	router.POST("/auctions/:auction_id/end", h.EndAuctionHandler)
	router.POST("/auctions/:auction_id/cancel", h.CancelAuctionHandler)
	router.GET("/auctions/:auction_id/outcome", h.OutcomeHandler)
	router.GET("/auctions/:auction_id/receipt", h.ReceiptHandler)
	router.GET("/auctions/:auction_id/receipt/verify", h.VerifyReceiptHandler)
	return router, mockService, mockQuotes
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func amount(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func sampleAuction(now time.Time) model.Auction {
	return model.Auction{
		ID:                uuid.NewString(),
		ListingID:         "listing1",
		BuyerID:           "buyer1",
		StartTime:         now,
		EndTime:           now.Add(30 * time.Minute),
		Rule:              model.DecrementRule{Kind: model.RulePercent, Value: 5},
		ExtensionWindow:   time.Minute,
		ExtensionDuration: time.Minute,
		Status:            model.StatusRunning,
		EligibleVendors:   []string{"v1", "v2"},
		CreatedAt:         now,
	}
}

// Test CreateAuctionHandler
func TestCreateAuctionHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(svc *MockAuctionServiceInterface, quotes *repository.MockQuoteSource)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name: "success_defaults_applied",
			requestBody: helpers.CreateAuctionRequest{
				ListingID:     "listing1",
				BuyerID:       "buyer1",
				DecrementRule: helpers.DecrementRuleRequest{Kind: "percent", Value: 5},
			},
			mockSetup: func(svc *MockAuctionServiceInterface, quotes *repository.MockQuoteSource) {
				quotes.EXPECT().EligibleVendors(gomock.Any(), "listing1").Return([]string{"v1", "v2"}, nil)
				svc.EXPECT().
					CreateAuction(gomock.Any(), engine.CreateParams{
						ListingID:         "listing1",
						BuyerID:           "buyer1",
						Duration:          30 * time.Minute,
						Rule:              model.DecrementRule{Kind: model.RulePercent, Value: 5},
						ExtensionWindow:   60 * time.Second,
						ExtensionDuration: 60 * time.Second,
						EligibleVendors:   []string{"v1", "v2"},
					}).
					Return(sampleAuction(now), nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
			validateData: func(t *testing.T, data map[string]any) {
				_, err := uuid.Parse(data["auction_id"].(string))
				require.NoError(t, err)
				require.Equal(t, "running", data["status"])
				require.Equal(t, 2.0, data["eligible_vendors"])
			},
		},
		{
			name: "success_explicit_extension_overrides",
			requestBody: helpers.CreateAuctionRequest{
				ListingID:            "listing1",
				BuyerID:              "buyer1",
				DurationMinutes:      5,
				DecrementRule:        helpers.DecrementRuleRequest{Kind: "fixed", Value: 10},
				ExtensionWindowSec:   intPtr(0),
				ExtensionDurationSec: intPtr(0),
			},
			mockSetup: func(svc *MockAuctionServiceInterface, quotes *repository.MockQuoteSource) {
				quotes.EXPECT().EligibleVendors(gomock.Any(), "listing1").Return([]string{"v1", "v2", "v3"}, nil)
				svc.EXPECT().
					CreateAuction(gomock.Any(), engine.CreateParams{
						ListingID:       "listing1",
						BuyerID:         "buyer1",
						Duration:        5 * time.Minute,
						Rule:            model.DecrementRule{Kind: model.RuleFixed, Value: 10},
						EligibleVendors: []string{"v1", "v2", "v3"},
					}).
					Return(sampleAuction(now), nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "auction created successfully",
		},
		{
			name:           "invalid_json",
			requestBody:    `{invalid json}`,
			mockSetup:      func(*MockAuctionServiceInterface, *repository.MockQuoteSource) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "missing_buyer_id",
			requestBody: helpers.CreateAuctionRequest{
				ListingID:     "listing1",
				DecrementRule: helpers.DecrementRuleRequest{Kind: "percent", Value: 5},
			},
			mockSetup:      func(*MockAuctionServiceInterface, *repository.MockQuoteSource) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "unknown_rule_kind",
			requestBody: helpers.CreateAuctionRequest{
				ListingID:     "listing1",
				BuyerID:       "buyer1",
				DecrementRule: helpers.DecrementRuleRequest{Kind: "ratio", Value: 5},
			},
			mockSetup:      func(*MockAuctionServiceInterface, *repository.MockQuoteSource) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name: "unknown_listing",
			requestBody: helpers.CreateAuctionRequest{
				ListingID:     "nope",
				BuyerID:       "buyer1",
				DecrementRule: helpers.DecrementRuleRequest{Kind: "percent", Value: 5},
			},
			mockSetup: func(_ *MockAuctionServiceInterface, quotes *repository.MockQuoteSource) {
				quotes.EXPECT().EligibleVendors(gomock.Any(), "nope").Return(nil, auctionerrors.ErrListingNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "listing not found",
		},
		{
			name: "too_few_quotes",
			requestBody: helpers.CreateAuctionRequest{
				ListingID:     "listing1",
				BuyerID:       "buyer1",
				DecrementRule: helpers.DecrementRuleRequest{Kind: "percent", Value: 5},
			},
			mockSetup: func(_ *MockAuctionServiceInterface, quotes *repository.MockQuoteSource) {
				quotes.EXPECT().EligibleVendors(gomock.Any(), "listing1").Return([]string{"v1"}, nil)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedMsg:    "too few eligible quotes",
		},
		{
			name: "service_invalid_rule",
			requestBody: helpers.CreateAuctionRequest{
				ListingID:     "listing1",
				BuyerID:       "buyer1",
				DecrementRule: helpers.DecrementRuleRequest{Kind: "percent", Value: 150},
			},
			mockSetup: func(svc *MockAuctionServiceInterface, quotes *repository.MockQuoteSource) {
				quotes.EXPECT().EligibleVendors(gomock.Any(), "listing1").Return([]string{"v1", "v2"}, nil)
				svc.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).Return(model.Auction{}, auctionerrors.ErrInvalidRule)
			},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid decrement rule",
		},
		{
			name: "service_store_failure",
			requestBody: helpers.CreateAuctionRequest{
				ListingID:     "listing1",
				BuyerID:       "buyer1",
				DecrementRule: helpers.DecrementRuleRequest{Kind: "percent", Value: 5},
			},
			mockSetup: func(svc *MockAuctionServiceInterface, quotes *repository.MockQuoteSource) {
				quotes.EXPECT().EligibleVendors(gomock.Any(), "listing1").Return([]string{"v1", "v2"}, nil)
				svc.EXPECT().CreateAuction(gomock.Any(), gomock.Any()).
					Return(model.Auction{}, fmt.Errorf("%w: disk full", auctionerrors.ErrStoreUnavailable))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, svc, quotes := newTestRouter(t)
			tc.mockSetup(svc, quotes)

			status, resp := doRequest(t, router, http.MethodPost, "/auctions", tc.requestBody)

			require.Equal(t, tc.expectedStatus, status)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil && status == http.StatusCreated {
				tc.validateData(t, resp["data"].(map[string]any))
			}
		})
	}
}

// Test PlaceBidHandler
func TestPlaceBidHandler(t *testing.T) {
	now := time.Now().UTC()
	end := now.Add(30 * time.Minute)

	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(svc *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
		validateData   func(t *testing.T, data map[string]any)
	}{
		{
			name:        "success_accepted",
			requestBody: helpers.PlaceBidRequest{VendorID: "v1", Amount: amount(950)},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a1", "v1", 950.0).
					Return(model.BidResult{
						Bid:      model.Bid{BidID: uuid.NewString(), AuctionID: "a1", VendorID: "v1", Amount: 950, Valid: true},
						Accepted: true,
						Rank:     intPtr(1),
						EndTime:  end,
					}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "bid accepted",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, true, data["accepted"])
				require.Equal(t, 1.0, data["rank"])
				require.Equal(t, 950.0, data["amount"])
				require.NotContains(t, data, "reason")
			},
		},
		{
			name:        "insufficient_decrement_rejected",
			requestBody: helpers.PlaceBidRequest{VendorID: "v2", Amount: amount(960)},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a1", "v2", 960.0).
					Return(model.BidResult{
						Bid:     model.Bid{BidID: uuid.NewString(), VendorID: "v2", Amount: 960},
						Reason:  model.ReasonInsufficientDecrement,
						EndTime: end,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bid rejected",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, false, data["accepted"])
				require.Equal(t, string(model.ReasonInsufficientDecrement), data["reason"])
				require.NotContains(t, data, "rank")
			},
		},
		{
			name:        "zero_amount_reaches_service",
			requestBody: helpers.PlaceBidRequest{VendorID: "v1", Amount: amount(0)},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a1", "v1", 0.0).
					Return(model.BidResult{
						Bid:    model.Bid{BidID: uuid.NewString(), VendorID: "v1"},
						Reason: model.ReasonNonPositiveAmount,
					}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "bid rejected",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, string(model.ReasonNonPositiveAmount), data["reason"])
			},
		},
		{
			name:        "auction_not_running",
			requestBody: helpers.PlaceBidRequest{VendorID: "v1", Amount: amount(800)},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().
					PlaceBid(gomock.Any(), "a1", "v1", 800.0).
					Return(model.BidResult{
						Bid:    model.Bid{BidID: uuid.NewString(), VendorID: "v1", Amount: 800},
						Reason: model.ReasonNotRunning,
					}, fmt.Errorf("bid: %w", auctionerrors.ErrAuctionNotRunning))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction not running",
			validateData: func(t *testing.T, data map[string]any) {
				require.Equal(t, false, data["accepted"])
				require.Equal(t, string(model.ReasonNotRunning), data["reason"])
			},
		},
		{
			name:           "missing_amount",
			requestBody:    `{"vendor_id":"v1"}`,
			mockSetup:      func(*MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "missing_vendor_id",
			requestBody:    helpers.PlaceBidRequest{Amount: amount(10)},
			mockSetup:      func(*MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "unknown_auction",
			requestBody: helpers.PlaceBidRequest{VendorID: "v1", Amount: amount(10)},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().PlaceBid(gomock.Any(), "a1", "v1", 10.0).Return(model.BidResult{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
		{
			name:        "service_generic_error",
			requestBody: helpers.PlaceBidRequest{VendorID: "v1", Amount: amount(10)},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().PlaceBid(gomock.Any(), "a1", "v1", 10.0).Return(model.BidResult{}, errors.New("database failure"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, svc, _ := newTestRouter(t)
			tc.mockSetup(svc)

			status, resp := doRequest(t, router, http.MethodPost, "/auctions/a1/bids", tc.requestBody)

			require.Equal(t, tc.expectedStatus, status)
			require.Contains(t, resp["message"], tc.expectedMsg)

			if tc.validateData != nil {
				tc.validateData(t, resp["data"].(map[string]any))
			}
		})
	}
}

// Test LeaderboardHandler
func TestLeaderboardHandler(t *testing.T) {
	lowest := 900.0
	board := model.Leaderboard{
		AuctionID:        "a1",
		Status:           model.StatusRunning,
		TimeRemainingSec: 120,
		LowestBid:        &lowest,
		Participants:     2,
		Entries: []model.LeaderboardEntry{
			{Rank: 1, VendorID: "v2", BestBid: 900},
			{Rank: 2, VendorID: "v1", BestBid: 950},
		},
	}

	tests := []struct {
		name           string
		query          string
		mockSetup      func(svc *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:  "default_limit",
			query: "",
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().Leaderboard("a1", 10).Return(board, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "leaderboard retrieved successfully",
		},
		{
			name:  "explicit_limit",
			query: "?limit=1",
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().Leaderboard("a1", 1).Return(board, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "leaderboard retrieved successfully",
		},
		{
			name:           "bad_limit",
			query:          "?limit=zero",
			mockSetup:      func(*MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:  "unknown_auction",
			query: "",
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().Leaderboard("a1", 10).Return(model.Leaderboard{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, svc, _ := newTestRouter(t)
			tc.mockSetup(svc)

			status, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/leaderboard"+tc.query, nil)

			require.Equal(t, tc.expectedStatus, status)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if status == http.StatusOK {
				data := resp["data"].(map[string]any)
				require.Len(t, data["entries"], 2)
				require.Equal(t, 900.0, data["lowest_bid"])
			}
		})
	}
}

// Test MyRankHandler
func TestMyRankHandler(t *testing.T) {
	t.Parallel()

	router, svc, _ := newTestRouter(t)
	best := 950.0
	svc.EXPECT().MyRank("a1", "v1").Return(model.VendorRank{
		AuctionID: "a1", VendorID: "v1", Rank: intPtr(2), BestBid: &best, Status: model.StatusRunning,
	}, nil)
	svc.EXPECT().MyRank("a1", "ghost").Return(model.VendorRank{AuctionID: "a1", VendorID: "ghost", Status: model.StatusRunning}, nil)

	status, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/vendors/v1/rank", nil)
	require.Equal(t, http.StatusOK, status)
	data := resp["data"].(map[string]any)
	require.Equal(t, 2.0, data["rank"])
	require.Equal(t, 950.0, data["best_bid"])
	require.NotContains(t, data, "entries", "vendor view never lists other vendors")

	status, resp = doRequest(t, router, http.MethodGet, "/auctions/a1/vendors/ghost/rank", nil)
	require.Equal(t, http.StatusOK, status)
	data = resp["data"].(map[string]any)
	require.Nil(t, data["rank"])
	require.Nil(t, data["best_bid"])
}

// Test EndAuctionHandler and CancelAuctionHandler
func TestTerminateHandlers(t *testing.T) {
	winner := "v2"
	winning := 900.0
	completed := model.Outcome{
		AuctionID:     "a1",
		Status:        model.StatusCompleted,
		Reason:        model.EndManual,
		Winner:        &winner,
		WinningAmount: &winning,
		BidCount:      3,
	}
	cancelled := model.Outcome{AuctionID: "a1", Status: model.StatusCancelled, Reason: model.EndCancelled}

	tests := []struct {
		name           string
		path           string
		requestBody    any
		mockSetup      func(svc *MockAuctionServiceInterface)
		expectedStatus int
		expectedMsg    string
		expectData     bool
	}{
		{
			name:        "end_success",
			path:        "/auctions/a1/end",
			requestBody: helpers.EndAuctionRequest{RequesterID: "buyer1"},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().EndNow(gomock.Any(), "a1", "buyer1").Return(completed, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction ended successfully",
			expectData:     true,
		},
		{
			name:        "end_retry_reports_outcome",
			path:        "/auctions/a1/end",
			requestBody: helpers.EndAuctionRequest{RequesterID: "buyer1"},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().EndNow(gomock.Any(), "a1", "buyer1").
					Return(completed, fmt.Errorf("end: %w", auctionerrors.ErrAuctionTerminal))
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "auction already ended",
			expectData:     true,
		},
		{
			name:        "end_not_owner",
			path:        "/auctions/a1/end",
			requestBody: helpers.EndAuctionRequest{RequesterID: "v1"},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().EndNow(gomock.Any(), "a1", "v1").Return(model.Outcome{}, auctionerrors.ErrNotAuctionOwner)
			},
			expectedStatus: http.StatusForbidden,
			expectedMsg:    "requester does not own auction",
		},
		{
			name:           "end_missing_requester",
			path:           "/auctions/a1/end",
			requestBody:    map[string]string{},
			mockSetup:      func(*MockAuctionServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:        "cancel_success",
			path:        "/auctions/a1/cancel",
			requestBody: helpers.CancelAuctionRequest{RequesterID: "buyer1", Reason: "listing withdrawn"},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().Cancel(gomock.Any(), "a1", "buyer1", "listing withdrawn").Return(cancelled, nil)
			},
			expectedStatus: http.StatusOK,
			expectedMsg:    "auction cancelled successfully",
			expectData:     true,
		},
		{
			name:        "cancel_unknown_auction",
			path:        "/auctions/a1/cancel",
			requestBody: helpers.CancelAuctionRequest{RequesterID: "buyer1"},
			mockSetup: func(svc *MockAuctionServiceInterface) {
				svc.EXPECT().Cancel(gomock.Any(), "a1", "buyer1", "").Return(model.Outcome{}, auctionerrors.ErrAuctionNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "auction not found",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			router, svc, _ := newTestRouter(t)
			tc.mockSetup(svc)

			status, resp := doRequest(t, router, http.MethodPost, tc.path, tc.requestBody)

			require.Equal(t, tc.expectedStatus, status)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if tc.expectData {
				data := resp["data"].(map[string]any)
				require.Equal(t, "a1", data["auction_id"])
			}
		})
	}
}

// Test receipt, verification, outcome and audit endpoints
func TestReadHandlers(t *testing.T) {
	t.Parallel()

	entries := []model.ReceiptEntry{
		{AuctionID: "a1", Seq: 1, Event: model.EventCreated, Hash: "h1"},
		{AuctionID: "a1", Seq: 2, Event: model.EventBidPlaced, PrevHash: "h1", Hash: "h2"},
	}

	t.Run("receipt", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newTestRouter(t)
		svc.EXPECT().Receipt("a1").Return(entries, nil)

		status, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/receipt", nil)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, resp["data"], 2)
	})

	t.Run("verify_valid", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newTestRouter(t)
		svc.EXPECT().VerifyReceipt("a1").Return(len(entries), nil)

		status, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/receipt/verify", nil)
		require.Equal(t, http.StatusOK, status)
		data := resp["data"].(map[string]any)
		require.Equal(t, true, data["valid"])
		require.Equal(t, 2.0, data["entries"])
	})

	t.Run("verify_broken", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newTestRouter(t)
		svc.EXPECT().VerifyReceipt("a1").Return(len(entries), errors.New("receipt chain broken at seq 2"))

		status, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/receipt/verify", nil)
		require.Equal(t, http.StatusOK, status)
		data := resp["data"].(map[string]any)
		require.Equal(t, false, data["valid"])
		require.Contains(t, data["problem"], "seq 2")
		require.Equal(t, 2.0, data["entries"])
	})

	t.Run("verify_unknown_auction", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newTestRouter(t)
		svc.EXPECT().VerifyReceipt("missing").Return(0, auctionerrors.ErrAuctionNotFound)

		status, resp := doRequest(t, router, http.MethodGet, "/auctions/missing/receipt/verify", nil)
		require.Equal(t, http.StatusNotFound, status)
		require.Contains(t, resp["message"], "auction not found")
	})

	t.Run("outcome_not_ended", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newTestRouter(t)
		svc.EXPECT().Outcome("a1").Return(model.Outcome{}, auctionerrors.ErrAuctionNotRunning)

		status, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/outcome", nil)
		require.Equal(t, http.StatusConflict, status)
		require.Contains(t, resp["message"], "auction not running")
	})

	t.Run("bids_empty", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newTestRouter(t)
		svc.EXPECT().Bids(gomock.Any(), "a1").Return(nil, nil)

		status, resp := doRequest(t, router, http.MethodGet, "/auctions/a1/bids", nil)
		require.Equal(t, http.StatusOK, status)
		require.Contains(t, resp["message"], "no bids found")
		require.Len(t, resp["data"], 0)
	})

	t.Run("get_auction", func(t *testing.T) {
		t.Parallel()
		router, svc, _ := newTestRouter(t)
		a := sampleAuction(time.Now().UTC())
		svc.EXPECT().Get("a1").Return(a, nil)

		status, resp := doRequest(t, router, http.MethodGet, "/auctions/a1", nil)
		require.Equal(t, http.StatusOK, status)
		data := resp["data"].(map[string]any)
		require.Equal(t, a.ID, data["auction_id"])
		require.Equal(t, 60.0, data["extension_window_sec"])
	})

	t.Run("healthz", func(t *testing.T) {
		t.Parallel()
		router, _, _ := newTestRouter(t)

		status, resp := doRequest(t, router, http.MethodGet, "/healthz", nil)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "ok", resp["message"])
	})
}
