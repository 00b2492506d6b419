package swapper

import (
	"math/rand"
	"strings"
	"time"
)

// MaxAttempts caps the quote-fetch → validate → build → submit sequence
// for a single leg.
const MaxAttempts = 5

// retriableSubstrings enumerates the upstream error texts that indicate a
// transient or quote-staleness condition worth retrying with a fresh quote.
// The aggregator reports revert reasons as free text only; if it ever grows
// structured error codes this list should be replaced by them.
var retriableSubstrings = []string{
	"return amount is not enough",
	"cannot estimate gas",
	"always failing transaction",
	"execution reverted",
}

// IsRetriable classifies a swap-attempt error. Matching is case-insensitive
// over the full error chain text.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, substring := range retriableSubstrings {
		if strings.Contains(msg, substring) {
			return true
		}
	}
	return false
}

// retryDelay returns the jittered wait before the next attempt,
// uniform over 2–5 whole seconds.
func retryDelay(rng *rand.Rand) time.Duration {
	return time.Duration(2+rng.Intn(4)) * time.Second
}
