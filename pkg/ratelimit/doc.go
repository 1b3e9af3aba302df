// Package ratelimit provides request throttling for the payroll portal client.
//
// FixedInterval is a plain fixed-rate throttle: every request waits until
// the configured interval has passed since the previous request completed.
// It is deliberately not a token bucket; an idle period never earns a burst.
//
// Usage:
//
//	limiter := ratelimit.NewFixedInterval(time.Second)
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	resp, err := httpClient.Do(req)
//	// ... read and close resp.Body
//	limiter.Done()
package ratelimit
