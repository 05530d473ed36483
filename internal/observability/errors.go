package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/baxromumarov/review-monitor/internal/httpx"
	"github.com/baxromumarov/review-monitor/internal/notify"
	"github.com/baxromumarov/review-monitor/internal/scraper"
	"github.com/baxromumarov/review-monitor/internal/store"
)

const (
	ErrorNetwork   = "network"
	ErrorParsing   = "parsing"
	ErrorRateLimit = "rate_limit"
	ErrorStore     = "store"
	ErrorDelivery  = "delivery"
	ErrorUnknown   = "unknown"
)

// Classify maps a tick failure to the error type used in logs and counters.
func Classify(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		if fe.Status == http.StatusTooManyRequests {
			return ErrorRateLimit
		}
		return ErrorNetwork
	}
	var se *store.StorageError
	if errors.As(err, &se) {
		return ErrorStore
	}
	var de *notify.DeliveryError
	if errors.As(err, &de) {
		return ErrorDelivery
	}
	if errors.Is(err, scraper.ErrCounterMissing) {
		return ErrorParsing
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	return ErrorUnknown
}
