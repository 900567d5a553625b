package server

import (
	auction "reverse-auction/internal/auctionService"
	"reverse-auction/internal/repository"
	handler "reverse-auction/services/auction/handler"
	"reverse-auction/services/auction/stream"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Coordinator *auction.Coordinator
	Quotes      repository.QuoteSource
	Hub         *stream.Hub
	Tracer      trace.Tracer
	Defaults    handler.Defaults
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery()) // recover from panics
	if d.Tracer != nil {
		router.Use(TracingMiddleware(d.Tracer))
	}
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(d.Coordinator, d.Quotes, d.Defaults)

	router.GET("/healthz", handler.HealthHandler)

	auctions := router.Group("/auctions")
	{
		auctions.POST("", auctionHandler.CreateAuctionHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.BidsHandler)
		auctions.GET("/:auction_id/leaderboard", auctionHandler.LeaderboardHandler)
		auctions.GET("/:auction_id/vendors/:vendor_id/rank", auctionHandler.MyRankHandler)
		auctions.POST("/:auction_id/end", auctionHandler.EndAuctionHandler)
		auctions.POST("/:auction_id/cancel", auctionHandler.CancelAuctionHandler)
		auctions.GET("/:auction_id/outcome", auctionHandler.OutcomeHandler)
		auctions.GET("/:auction_id/receipt", auctionHandler.ReceiptHandler)
		auctions.GET("/:auction_id/receipt/verify", auctionHandler.VerifyReceiptHandler)
		if d.Hub != nil {
			auctions.GET("/:auction_id/stream", d.Hub.ServeWS(d.Coordinator))
		}
	}

	return router
}
