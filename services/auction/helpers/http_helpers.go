package helpers

import (
	"errors"
	"fmt"
	"net/http"

	"reverse-auction/internal/auctionerrors"
	"reverse-auction/utils"

	"github.com/gin-gonic/gin"
)

// HandleBindError sends a standardized JSON error for binding failures
func HandleBindError(c *gin.Context, handlerName string, err error) {
	wrappedErr := fmt.Errorf("invalid request payload: %w", err)
	utils.JSONError(c, http.StatusBadRequest, wrappedErr, "invalid request payload")
	utils.Warn(handlerName+": binding error", map[string]any{"error": err.Error()})
}

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch auctionerrors.KindOf(err) {
	case auctionerrors.KindNotFound:
		if errors.Is(err, auctionerrors.ErrListingNotFound) {
			return http.StatusNotFound, "listing not found"
		}
		return http.StatusNotFound, "auction not found"
	case auctionerrors.KindInvalidInput:
		switch {
		case errors.Is(err, auctionerrors.ErrInvalidRule):
			return http.StatusBadRequest, "invalid decrement rule"
		case errors.Is(err, auctionerrors.ErrInsufficientQuotes):
			return http.StatusUnprocessableEntity, "listing has too few eligible quotes"
		}
		return http.StatusBadRequest, "invalid auction details"
	case auctionerrors.KindPrecondition:
		switch {
		case errors.Is(err, auctionerrors.ErrAuctionTerminal):
			return http.StatusConflict, "auction already ended"
		case errors.Is(err, auctionerrors.ErrNotDue):
			return http.StatusConflict, "auction end time not reached"
		}
		return http.StatusConflict, "auction not running"
	case auctionerrors.KindAuthorization:
		return http.StatusForbidden, "requester does not own auction"
	case auctionerrors.KindValidation:
		return http.StatusUnprocessableEntity, "bid rejected"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// LogSuccess is a small helper to standardize logging of successful operations
func LogSuccess(handlerName, message string, ctx map[string]any) {
	utils.Info(handlerName+": "+message, ctx)
}
