package middleware

import (
	"testing"
	"time"
)

func TestTokenBucketExhaustion(t *testing.T) {
	tb := NewTokenBucket(3, 0.0001) // effectively no refill during the test

	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("request %d denied before bucket exhausted", i+1)
		}
	}
	if tb.Allow() {
		t.Fatal("request allowed after bucket exhausted")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 50) // refills fast enough to observe in a test

	if !tb.Allow() {
		t.Fatal("first request denied")
	}
	if tb.Allow() {
		t.Fatal("second immediate request allowed")
	}

	time.Sleep(50 * time.Millisecond)
	if !tb.Allow() {
		t.Fatal("request denied after refill window")
	}
}

func TestRateLimiterKeysClientsSeparately(t *testing.T) {
	rl := NewRateLimiter(1, 3600)

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client denied")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("first client not limited")
	}
	// A different client has its own bucket.
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second client denied by first client's bucket")
	}
}
