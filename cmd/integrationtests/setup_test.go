package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "reverse-auction/internal/auctionService"
	"reverse-auction/internal/clock"
	"reverse-auction/internal/repository"
	"reverse-auction/internal/server"
	handler "reverse-auction/services/auction/handler"
	"reverse-auction/services/auction/stream"

	"github.com/gin-gonic/gin"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testEnv is a fully wired service over an in-memory store and a manual clock.
type testEnv struct {
	router    *gin.Engine
	clock     *clock.Manual
	coord     *auction.Coordinator
	scheduler *auction.Scheduler
	hub       *stream.Hub
}

// SetupTestRouter initializes the router with in-memory repository for integration testing.
// listings maps a listing id to the vendors that quoted on it.
func SetupTestRouter(listings map[string][]string) *testEnv {
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemoryRepo()
	for listingID, vendors := range listings {
		for _, v := range vendors {
			repo.AddQuote(listingID, v)
		}
	}

	clk := clock.NewManual(t0)
	hub := stream.NewHub()
	coord := auction.NewCoordinator(repo, auction.WithClock(clk), auction.WithPublisher(hub))
	router := server.SetupRouter(server.Deps{
		Coordinator: coord,
		Quotes:      repo,
		Hub:         hub,
		Defaults: handler.Defaults{
			DurationMinutes:   30,
			ExtensionWindow:   60 * time.Second,
			ExtensionDuration: 60 * time.Second,
			LeaderboardLimit:  10,
			MinEligibleQuotes: 2,
		},
	})

	return &testEnv{
		router:    router,
		clock:     clk,
		coord:     coord,
		scheduler: auction.NewScheduler(coord, time.Second),
		hub:       hub,
	}
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}

// data returns the payload of an envelope that carries an object.
func data(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	d, ok := resp["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no object payload: %v", resp)
	}
	return d
}
