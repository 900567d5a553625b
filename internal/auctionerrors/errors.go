package auctionerrors

import "errors"

// Lookup errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrListingNotFound = errors.New("listing not found")
)

// Input errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidRule        = errors.New("invalid decrement rule")
	ErrInsufficientQuotes = errors.New("listing has too few eligible quotes")
)

// State errors
var (
	ErrAuctionNotRunning = errors.New("auction not running")
	ErrAuctionTerminal   = errors.New("auction already in terminal state")
	ErrNotDue            = errors.New("auction end time not reached")
)

// Authorization errors
var (
	ErrNotAuctionOwner = errors.New("requester does not own auction")
)

// Validation errors
var (
	ErrBidRejected = errors.New("bid rejected")
)

// Infrastructure errors
var (
	ErrStoreUnavailable = errors.New("auction store unavailable")
)

// Kind groups errors by how callers are expected to react to them.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindInvalidInput   Kind = "invalid_input"
	KindPrecondition   Kind = "precondition_failed"
	KindAuthorization  Kind = "unauthorized"
	KindValidation     Kind = "validation"
	KindInfrastructure Kind = "infrastructure"
)

// KindOf classifies err. Anything unrecognised is treated as infrastructure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrStoreUnavailable):
		return KindInfrastructure
	case errors.Is(err, ErrAuctionNotFound), errors.Is(err, ErrListingNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidRule), errors.Is(err, ErrInsufficientQuotes):
		return KindInvalidInput
	case errors.Is(err, ErrAuctionNotRunning), errors.Is(err, ErrAuctionTerminal), errors.Is(err, ErrNotDue):
		return KindPrecondition
	case errors.Is(err, ErrNotAuctionOwner):
		return KindAuthorization
	case errors.Is(err, ErrBidRejected):
		return KindValidation
	default:
		return KindInfrastructure
	}
}
