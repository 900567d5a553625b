package integrationtests

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reverse-auction/internal/models"
	"reverse-auction/services/auction/helpers"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var quotedListings = map[string][]string{
	"listing1": {"v1", "v2", "v3"},
	"lonely":   {"v1"},
}

func bid(vendor string, amount float64) helpers.PlaceBidRequest {
	return helpers.PlaceBidRequest{VendorID: vendor, Amount: &amount}
}

func createAuction(t *testing.T, env *testEnv, req helpers.CreateAuctionRequest) string {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions", req)
	require.Equal(t, http.StatusCreated, w.Code, "create failed: %v", resp)
	return data(t, resp)["auction_id"].(string)
}

func percentAuction(pct float64) helpers.CreateAuctionRequest {
	return helpers.CreateAuctionRequest{
		ListingID:     "listing1",
		BuyerID:       "buyer1",
		DecrementRule: helpers.DecrementRuleRequest{Kind: "percent", Value: pct},
	}
}

// Full lifecycle, buyer and vendor views, manual end and late bids
func TestAuctionLifecycle(t *testing.T) {
	env := SetupTestRouter(quotedListings)
	id := createAuction(t, env, percentAuction(5))
	base := "/auctions/" + id

	steps := []struct {
		req        helpers.PlaceBidRequest
		wantStatus int
		accepted   bool
		reason     models.RejectionReason
	}{
		{req: bid("v1", 1000), wantStatus: http.StatusCreated, accepted: true},
		{req: bid("v2", 960), wantStatus: http.StatusOK, reason: models.ReasonInsufficientDecrement},
		{req: bid("v2", 950), wantStatus: http.StatusCreated, accepted: true},
		{req: bid("v3", -5), wantStatus: http.StatusOK, reason: models.ReasonNonPositiveAmount},
		{req: bid("outsider", 100), wantStatus: http.StatusOK, reason: models.ReasonNotEligible},
	}
	for i, s := range steps {
		s := s
		t.Run(fmt.Sprintf("bid_%d_%s", i, s.req.VendorID), func(t *testing.T) {
			resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, base+"/bids", s.req)
			require.Equal(t, s.wantStatus, w.Code)
			d := data(t, resp)
			require.Equal(t, s.accepted, d["accepted"])
			if !s.accepted {
				require.Equal(t, string(s.reason), d["reason"])
			}
		})
	}

	t.Run("leaderboard", func(t *testing.T) {
		resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, base+"/leaderboard", nil)
		require.Equal(t, http.StatusOK, w.Code)
		d := data(t, resp)
		require.Equal(t, 950.0, d["lowest_bid"])
		require.Equal(t, 902.5, d["next_max_bid"])
		require.Equal(t, 2.0, d["participants"])

		entries := d["entries"].([]any)
		require.Len(t, entries, 2)
		require.Equal(t, "v2", entries[0].(map[string]any)["vendor_id"])
		require.Equal(t, "v1", entries[1].(map[string]any)["vendor_id"])
	})

	t.Run("vendor_rank", func(t *testing.T) {
		resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, base+"/vendors/v1/rank", nil)
		require.Equal(t, http.StatusOK, w.Code)
		d := data(t, resp)
		require.Equal(t, 2.0, d["rank"])
		require.Equal(t, 1000.0, d["best_bid"])

		resp, _ = ExecuteRequestAndParse(t, env.router, http.MethodGet, base+"/vendors/v3/rank", nil)
		require.Nil(t, data(t, resp)["rank"], "a vendor without a valid bid is unranked")
	})

	t.Run("outcome_before_end", func(t *testing.T) {
		_, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, base+"/outcome", nil)
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("end_by_vendor_forbidden", func(t *testing.T) {
		_, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, base+"/end", helpers.EndAuctionRequest{RequesterID: "v1"})
		require.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("end_by_buyer", func(t *testing.T) {
		env.clock.Advance(time.Minute)
		resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, base+"/end", helpers.EndAuctionRequest{RequesterID: "buyer1"})
		require.Equal(t, http.StatusOK, w.Code)
		d := data(t, resp)
		require.Equal(t, "completed", d["status"])
		require.Equal(t, "v2", d["winner"])
		require.Equal(t, 950.0, d["winning_amount"])
	})

	t.Run("end_retry_is_harmless", func(t *testing.T) {
		resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, base+"/end", helpers.EndAuctionRequest{RequesterID: "buyer1"})
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, "v2", data(t, resp)["winner"])
	})

	t.Run("late_bid_recorded_and_rejected", func(t *testing.T) {
		resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, base+"/bids", bid("v1", 500))
		require.Equal(t, http.StatusConflict, w.Code)
		require.Contains(t, resp["message"], "auction not running")
		d := data(t, resp)
		require.Equal(t, false, d["accepted"])
		require.Equal(t, string(models.ReasonNotRunning), d["reason"])

		resp, _ = ExecuteRequestAndParse(t, env.router, http.MethodGet, base+"/leaderboard", nil)
		require.Equal(t, 950.0, data(t, resp)["lowest_bid"], "ledger unchanged after the end")
	})

	t.Run("receipt_and_audit", func(t *testing.T) {
		resp, w := ExecuteRequestAndParse(t, env.router, http.MethodGet, base+"/receipt", nil)
		require.Equal(t, http.StatusOK, w.Code)
		entries := resp["data"].([]any)
		// created, five bids, ended, late bid
		require.Len(t, entries, 8)
		require.Equal(t, "created", entries[0].(map[string]any)["event"])
		require.Equal(t, "ended", entries[6].(map[string]any)["event"])
		require.Equal(t, "bid_placed", entries[7].(map[string]any)["event"])

		resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, base+"/receipt/verify", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, true, data(t, resp)["valid"])

		resp, _ = ExecuteRequestAndParse(t, env.router, http.MethodGet, base+"/bids", nil)
		require.Len(t, resp["data"], 6, "rejected bids are kept for audit")

		resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, base+"/outcome", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "manual", data(t, resp)["reason"])
	})
}

func TestAntiSnipeExtension(t *testing.T) {
	env := SetupTestRouter(quotedListings)
	req := percentAuction(1)
	req.DurationMinutes = 10
	window, extension := 60, 120
	req.ExtensionWindowSec = &window
	req.ExtensionDurationSec = &extension
	id := createAuction(t, env, req)

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/"+id+"/bids", bid("v1", 500))
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, false, data(t, resp)["extended"], "bid outside the window does not extend")

	env.clock.Advance(9*time.Minute + 30*time.Second)
	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/"+id+"/bids", bid("v2", 400))
	require.Equal(t, http.StatusCreated, w.Code)
	d := data(t, resp)
	require.Equal(t, true, d["extended"])
	require.Equal(t, "2026-03-01T12:11:30Z", d["end_time"])

	// the scheduler does not close the auction at the original deadline
	env.clock.Set(t0.Add(10*time.Minute + time.Second))
	require.Equal(t, 0, env.scheduler.Sweep(context.Background()))

	resp, _ = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/"+id, nil)
	require.Equal(t, "running", data(t, resp)["status"])
	require.Equal(t, 1.0, data(t, resp)["extension_count"])
}

func TestExpiryBySchedulerAndDeadlineBid(t *testing.T) {
	env := SetupTestRouter(quotedListings)
	expiring := createAuction(t, env, percentAuction(5))
	deadline := createAuction(t, env, percentAuction(5))

	_, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/"+expiring+"/bids", bid("v3", 700))
	require.Equal(t, http.StatusCreated, w.Code)

	env.clock.Advance(30 * time.Minute)

	// a bid that lands exactly at the deadline closes the auction first
	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/"+deadline+"/bids", bid("v1", 10))
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, string(models.ReasonNotRunning), data(t, resp)["reason"])

	require.Equal(t, 1, env.scheduler.Sweep(context.Background()))

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/"+expiring+"/outcome", nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := data(t, resp)
	require.Equal(t, "expired", d["reason"])
	require.Equal(t, "v3", d["winner"])

	resp, _ = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/"+deadline+"/outcome", nil)
	d = data(t, resp)
	require.Equal(t, "completed", d["status"])
	require.Nil(t, d["winner"], "no valid bids means no winner")
}

func TestCreateAuctionErrors(t *testing.T) {
	tests := []struct {
		name       string
		request    any
		wantStatus int
	}{
		{
			name:       "Invalid_JSON",
			request:    "{listing_id: 'missing quotes'}",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Unknown_Listing",
			request:    helpers.CreateAuctionRequest{ListingID: "nope", BuyerID: "b", DecrementRule: helpers.DecrementRuleRequest{Kind: "fixed", Value: 1}},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "Too_Few_Quotes",
			request:    helpers.CreateAuctionRequest{ListingID: "lonely", BuyerID: "b", DecrementRule: helpers.DecrementRuleRequest{Kind: "fixed", Value: 1}},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "Percent_Out_Of_Range",
			request:    helpers.CreateAuctionRequest{ListingID: "listing1", BuyerID: "b", DecrementRule: helpers.DecrementRuleRequest{Kind: "percent", Value: 100}},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := SetupTestRouter(quotedListings)
			_, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions", tt.request)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCancelScheduledAuction(t *testing.T) {
	env := SetupTestRouter(quotedListings)
	req := percentAuction(5)
	start := t0.Add(time.Hour)
	req.StartAt = &start
	id := createAuction(t, env, req)

	resp, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/"+id+"/bids", bid("v1", 100))
	require.Equal(t, http.StatusConflict, w.Code, "scheduled auctions take no bids")
	require.Equal(t, string(models.ReasonNotRunning), data(t, resp)["reason"])

	resp, w = ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/"+id+"/cancel",
		helpers.CancelAuctionRequest{RequesterID: "buyer1", Reason: "listing withdrawn"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "cancelled", data(t, resp)["status"])

	_, w = ExecuteRequestAndParse(t, env.router, http.MethodGet, "/auctions/missing/leaderboard", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestReceiptStream(t *testing.T) {
	env := SetupTestRouter(quotedListings)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = env.hub.Run(ctx) }()

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	id := createAuction(t, env, percentAuction(5))
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/auctions/"+id+"/stream", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() models.ReceiptEntry {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var e models.ReceiptEntry
		require.NoError(t, conn.ReadJSON(&e))
		return e
	}

	require.Equal(t, models.EventCreated, read().Event)
	require.Eventually(t, func() bool { return env.hub.Clients(id) == 1 }, time.Second, 10*time.Millisecond)

	_, w := ExecuteRequestAndParse(t, env.router, http.MethodPost, "/auctions/"+id+"/bids", bid("v1", 800))
	require.Equal(t, http.StatusCreated, w.Code)

	e := read()
	require.Equal(t, models.EventBidPlaced, e.Event)
	require.Equal(t, int64(2), e.Seq)
	require.NotNil(t, e.Details.Bid)
	require.Equal(t, 800.0, e.Details.Bid.Amount)
}
