package submitter

import (
	"errors"
	"strings"

	"github.com/flowstate-hq/flowstate-intents/pkg/models"
)

// classifyFailure labels an item error for metrics and reports whether
// submitting a fresh intent for the same window could succeed
func classifyFailure(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	switch {
	case errors.Is(err, models.ErrCancelled):
		return true, "cancelled"
	case errors.Is(err, models.ErrSignatureRejected):
		return false, "signature_rejected"
	case errors.Is(err, models.ErrCircuitOpen):
		return true, "circuit_open"
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, models.ErrRelayerRejected) {
		switch {
		case strings.Contains(errStr, "nonce"):
			return true, "nonce_error"
		case strings.Contains(errStr, "signature"):
			return false, "invalid_signature"
		case strings.Contains(errStr, "expired") ||
			strings.Contains(errStr, "maxblock") ||
			strings.Contains(errStr, "window"):
			return true, "window_error"
		case strings.Contains(errStr, "status 5"):
			return true, "relayer_unavailable"
		}
		return false, "relayer_rejected"
	}

	// Network errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "timed out") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "eof") {
		return true, "network_error"
	}

	return true, "unknown_error"
}
