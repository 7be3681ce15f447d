package app

import "sync/atomic"

// Latest hands out request tickets. Only the most recent ticket is current;
// a response arriving for an older ticket belongs to abandoned state.
type Latest struct {
	n atomic.Uint64
}

// Begin starts a request and supersedes every earlier one.
func (l *Latest) Begin() uint64 {
	return l.n.Add(1)
}

// Current reports whether ticket is still the latest request.
func (l *Latest) Current(ticket uint64) bool {
	return l.n.Load() == ticket
}
