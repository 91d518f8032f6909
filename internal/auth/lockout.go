package auth

import "time"

const (
	// LockoutThreshold is the number of consecutive failed password checks
	// that locks an account.
	LockoutThreshold = 5
	// LockoutWindow is how long a lock lasts from the moment of transition.
	LockoutWindow = 30 * time.Minute
)

// LockoutState mirrors the lockout columns on the user row. Transitions are
// computed here and persisted by the caller before any response is sent.
type LockoutState struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

// Locked reports whether the account is inside an active lock window.
// Expired locks are cleared lazily at the next attempt.
func (s LockoutState) Locked(now time.Time) bool {
	return s.LockedUntil != nil && now.Before(*s.LockedUntil)
}

// Fail records one failed attempt. Reaching the threshold starts a lock
// window. An expired lock is cleared first so the counter restarts fresh.
func (s LockoutState) Fail(now time.Time) LockoutState {
	if s.LockedUntil != nil && !now.Before(*s.LockedUntil) {
		s = LockoutState{}
	}
	s.FailedAttempts++
	if s.FailedAttempts >= LockoutThreshold {
		until := now.Add(LockoutWindow)
		s.LockedUntil = &until
	}
	return s
}

// Reset clears the counter and any lock, used on successful login and on
// administrative password reset.
func (s LockoutState) Reset() LockoutState {
	return LockoutState{}
}

// Dirty reports whether persisting the state is required relative to prev.
func (s LockoutState) Dirty(prev LockoutState) bool {
	if s.FailedAttempts != prev.FailedAttempts {
		return true
	}
	if (s.LockedUntil == nil) != (prev.LockedUntil == nil) {
		return true
	}
	if s.LockedUntil != nil && prev.LockedUntil != nil && !s.LockedUntil.Equal(*prev.LockedUntil) {
		return true
	}
	return false
}
