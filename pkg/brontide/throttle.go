// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package brontide

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// peerThrottle paces inbound handshakes per source IP. Answering an act
// costs two ECDH operations before the peer has proven anything, so an
// unpaced address could grind the listener down with garbage acts.
//
// Each IP gets its own token bucket. Instead of a background sweeper, the
// table prunes itself lazily: whenever a handshake arrives and the last
// sweep is old enough, buckets that have been idle past idleAfter are
// dropped in the same locked section.
type peerThrottle struct {
	mu        sync.Mutex
	buckets   map[string]*peerBucket
	perSecond rate.Limit
	burst     int
	idleAfter time.Duration
	sweepEach time.Duration
	lastSweep time.Time

	// now is a test seam for the clock.
	now func() time.Time
}

// peerBucket pairs a token bucket with its last activity, which drives
// pruning.
type peerBucket struct {
	tokens *rate.Limiter
	active time.Time
}

func newPeerThrottle(perSecond float64, burst int, idleAfter, sweepEach time.Duration) *peerThrottle {
	return &peerThrottle{
		buckets:   make(map[string]*peerBucket),
		perSecond: rate.Limit(perSecond),
		burst:     burst,
		idleAfter: idleAfter,
		sweepEach: sweepEach,
		now:       time.Now,
	}
}

// allow reports whether a handshake from ip may proceed, creating the
// bucket on first contact and opportunistically pruning idle ones.
func (pt *peerThrottle) allow(ip string) bool {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	now := pt.now()
	if now.Sub(pt.lastSweep) >= pt.sweepEach {
		pt.sweepLocked(now)
	}

	b, ok := pt.buckets[ip]
	if !ok {
		b = &peerBucket{tokens: rate.NewLimiter(pt.perSecond, pt.burst)}
		pt.buckets[ip] = b
	}
	b.active = now
	return b.tokens.Allow()
}

// sweepLocked drops buckets idle past idleAfter. Callers hold pt.mu.
func (pt *peerThrottle) sweepLocked(now time.Time) {
	pt.lastSweep = now
	for ip, b := range pt.buckets {
		if now.Sub(b.active) > pt.idleAfter {
			delete(pt.buckets, ip)
		}
	}
}
