package auth

import (
	"testing"
	"time"
)

func TestLockoutThreshold(t *testing.T) {
	now := time.Now()
	var s LockoutState
	for i := 0; i < LockoutThreshold-1; i++ {
		s = s.Fail(now)
		if s.Locked(now) {
			t.Fatalf("locked after %d failures", i+1)
		}
	}
	s = s.Fail(now)
	if !s.Locked(now) {
		t.Fatalf("not locked after %d failures", LockoutThreshold)
	}
	if s.LockedUntil == nil || !s.LockedUntil.Equal(now.Add(LockoutWindow)) {
		t.Fatalf("unexpected lock expiry: %v", s.LockedUntil)
	}
}

func TestLockoutExpiresLazily(t *testing.T) {
	now := time.Now()
	var s LockoutState
	for i := 0; i < LockoutThreshold; i++ {
		s = s.Fail(now)
	}
	if !s.Locked(now) {
		t.Fatal("expected locked")
	}

	later := now.Add(LockoutWindow + time.Second)
	if s.Locked(later) {
		t.Fatal("lock should have lapsed")
	}

	// The first failure after the window restarts the counter from one.
	s = s.Fail(later)
	if s.FailedAttempts != 1 {
		t.Fatalf("counter not restarted, got %d", s.FailedAttempts)
	}
	if s.LockedUntil != nil {
		t.Fatal("expired lock not cleared")
	}
}

func TestLockoutReset(t *testing.T) {
	now := time.Now()
	s := LockoutState{}.Fail(now).Fail(now).Fail(now)
	r := s.Reset()
	if r.FailedAttempts != 0 || r.LockedUntil != nil {
		t.Fatalf("reset left state behind: %+v", r)
	}
	if !r.Dirty(s) {
		t.Fatal("reset over failures must be dirty")
	}
	if r.Dirty(LockoutState{}) {
		t.Fatal("clean reset over clean state must not be dirty")
	}
}
