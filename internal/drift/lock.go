package drift

import "sync/atomic"

// auditLock lets one audit run at a time; a second caller fails fast
// instead of queueing.
type auditLock struct {
	running atomic.Bool
}

// TryAcquire reports whether the caller now holds the lock
func (l *auditLock) TryAcquire() bool {
	return l.running.CompareAndSwap(false, true)
}

// Release must only be called by the holder
func (l *auditLock) Release() {
	l.running.Store(false)
}
