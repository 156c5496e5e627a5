// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package brontide

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeerThrottle_BurstThenDeny(t *testing.T) {
	pt := newPeerThrottle(1.0, 3, time.Minute, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, pt.allow("192.0.2.1"), "handshake %d within burst", i)
	}
	assert.False(t, pt.allow("192.0.2.1"), "burst exhausted")
}

func TestPeerThrottle_BucketsAreIndependent(t *testing.T) {
	pt := newPeerThrottle(1.0, 1, time.Minute, time.Minute)

	assert.True(t, pt.allow("192.0.2.1"))
	assert.False(t, pt.allow("192.0.2.1"))

	// A different address is unaffected.
	assert.True(t, pt.allow("192.0.2.2"))
}

func TestPeerThrottle_PrunesIdleBuckets(t *testing.T) {
	pt := newPeerThrottle(1.0, 1, time.Minute, 10*time.Second)

	clock := time.Unix(1700000000, 0)
	pt.now = func() time.Time { return clock }

	assert.True(t, pt.allow("192.0.2.1"))

	// Two minutes later a different peer arrives; the sweep runs and the
	// idle bucket is dropped, so the first address starts fresh.
	clock = clock.Add(2 * time.Minute)
	assert.True(t, pt.allow("192.0.2.2"))

	pt.mu.Lock()
	_, stale := pt.buckets["192.0.2.1"]
	pt.mu.Unlock()
	assert.False(t, stale, "idle bucket should have been pruned")
}

func TestPeerThrottle_SweepKeepsActiveBuckets(t *testing.T) {
	pt := newPeerThrottle(1.0, 2, time.Minute, time.Nanosecond)

	clock := time.Unix(1700000000, 0)
	pt.now = func() time.Time { return clock }

	assert.True(t, pt.allow("192.0.2.1"))

	// The clock advance triggers a sweep, but a recently active bucket
	// survives it and keeps its token accounting.
	clock = clock.Add(time.Second)
	assert.True(t, pt.allow("192.0.2.1"))
	assert.False(t, pt.allow("192.0.2.1"), "bucket state must survive the sweep")
}
