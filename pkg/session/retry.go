package session

import "time"

// delayRetry runs fn after delay, or immediately if delay is zero.
// Every retry loop in this package (accept retry, batch restart,
// manual reconnect) uses a single fixed delay rather than an
// exponential-backoff-with-jitter calculator: outbound batches and
// manual connects both retry after exactly connect_timeout, not a
// growing window.
func delayRetry(delay time.Duration, fn func()) {
	if delay <= 0 {
		fn()
		return
	}
	time.AfterFunc(delay, fn)
}
