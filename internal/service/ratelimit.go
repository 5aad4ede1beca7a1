package service

import (
	"context"
	"sync"
	"time"

	"marketplace/internal/logger"

	"golang.org/x/time/rate"
)

const maxTrackedIPs = 10000

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	ips map[string]*rate.Limiter
	mu  sync.Mutex
	r   rate.Limit
	b   int
	log *logger.Logger
}

// NewIPRateLimiter allows perMinute events per IP with the given burst.
func NewIPRateLimiter(perMinute float64, burst int, log *logger.Logger) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		ips: make(map[string]*rate.Limiter),
		r:   rate.Limit(perMinute / 60),
		b:   burst,
		log: log,
	}
}

func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.r, i.b)
		i.ips[ip] = limiter
	}
	return limiter
}

// Allow consumes one event for ip.
func (i *IPRateLimiter) Allow(ip string) bool {
	ok := i.GetLimiter(ip).Allow()
	if !ok && i.log != nil {
		i.log.Infow("rate_limited", "ip", ip)
	}
	return ok
}

// StartCleanup drops all buckets every interval once too many IPs are
// tracked. It stops when ctx is done.
func (i *IPRateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				i.cleanup()
			}
		}
	}()
}

func (i *IPRateLimiter) cleanup() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.ips) > maxTrackedIPs {
		if i.log != nil {
			i.log.Infow("rate_limiter_reset", "count", len(i.ips))
		}
		i.ips = make(map[string]*rate.Limiter)
	}
}
