package iam

import (
	"sync"
	"time"
)

// LoginLimiter throttles password guessing with a token bucket per username.
// Every attempt spends a token; a successful login refills the bucket.
type LoginLimiter struct {
	buckets map[string]*tokenBucket
	mu      sync.Mutex
	limit   int
	period  time.Duration
	now     func() time.Time
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
}

// NewLoginLimiter allows limit attempts per period. A limit of zero or less
// disables throttling.
func NewLoginLimiter(limit int, period time.Duration) *LoginLimiter {
	return &LoginLimiter{
		buckets: make(map[string]*tokenBucket),
		limit:   limit,
		period:  period,
		now:     time.Now,
	}
}

// Allow spends a token for key and reports whether the attempt may proceed
func (ll *LoginLimiter) Allow(key string) bool {
	if ll.limit <= 0 {
		return true
	}

	ll.mu.Lock()
	defer ll.mu.Unlock()

	now := ll.now()
	ll.prune(now)

	bucket, ok := ll.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: ll.limit, lastRefill: now}
		ll.buckets[key] = bucket
	}

	elapsed := now.Sub(bucket.lastRefill)
	if elapsed >= ll.period {
		bucket.tokens = ll.limit
		bucket.lastRefill = now
	} else if refill := int(elapsed.Nanoseconds() * int64(ll.limit) / ll.period.Nanoseconds()); refill > 0 {
		bucket.tokens += refill
		if bucket.tokens > ll.limit {
			bucket.tokens = ll.limit
		}
		bucket.lastRefill = now
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}
	return false
}

// Reset forgets key's attempts
func (ll *LoginLimiter) Reset(key string) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	delete(ll.buckets, key)
}

// prune drops buckets that have been full again for a whole period
func (ll *LoginLimiter) prune(now time.Time) {
	cutoff := now.Add(-2 * ll.period)
	for key, bucket := range ll.buckets {
		if bucket.lastRefill.Before(cutoff) {
			delete(ll.buckets, key)
		}
	}
}
