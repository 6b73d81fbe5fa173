// Package ratelimit provides per-client request rate limiting using the
// token bucket algorithm.
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// TokenBucket allows a number of requests per time window, with tokens
// refilling at a steady rate.
type TokenBucket struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

func newTokenBucket(capacity int, refillRate float64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// allow consumes one token if available.
func (tb *TokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tb.tokens = min(float64(tb.capacity), tb.tokens+elapsed.Seconds()*tb.refillRate)
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Limiter tracks one bucket per (client, endpoint class) pair.
type Limiter struct {
	config  *Config
	mu      sync.Mutex
	buckets map[string]*TokenBucket
	done    chan struct{}
}

// NewLimiter creates a limiter and starts its idle-bucket cleanup.
func NewLimiter(config *Config) *Limiter {
	l := &Limiter{
		config:  config,
		buckets: make(map[string]*TokenBucket),
		done:    make(chan struct{}),
	}
	if config.Enabled {
		go l.cleanupLoop()
	}
	return l
}

// Allow reports whether the client may issue this request.
func (l *Limiter) Allow(clientID, path, method string) bool {
	if !l.config.Enabled {
		return true
	}

	ec := l.config.match(path, method)
	key := clientID + "|" + ec.Path + "|" + ec.Method

	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		burst := ec.Burst
		if burst == 0 {
			burst = ec.Limit
		}
		bucket = newTokenBucket(burst, float64(ec.Limit)/ec.Window.Seconds())
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	return bucket.allow()
}

// Stop terminates the cleanup goroutine.
func (l *Limiter) Stop() {
	close(l.done)
}

// cleanupLoop drops full buckets so idle clients do not accumulate state.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.mu.Lock()
			for key, bucket := range l.buckets {
				bucket.mu.Lock()
				full := bucket.tokens >= float64(bucket.capacity)
				bucket.mu.Unlock()
				if full {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (c *Config) match(path, method string) EndpointConfig {
	for _, ec := range c.EndpointConfigs {
		if ec.Method == method && strings.HasPrefix(path, ec.Path) {
			return ec
		}
	}
	return EndpointConfig{
		Path:   "",
		Method: method,
		Limit:  c.DefaultLimit,
		Window: c.DefaultWindow,
	}
}
