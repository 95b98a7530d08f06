package annuaire

import (
	"sync"

	"github.com/agentstation/utc"

	"github.com/franceroutage/annuaire/pkg/reconcile"
)

// Session holds the state of one operator session: the last result produced
// and when it was recorded. The zero value is ready to use.
type Session struct {
	mu          sync.RWMutex
	last        *reconcile.Result
	lastUpdated utc.Time
	runs        int
}

// Record stores result as the session's latest. Nil results are ignored.
func (s *Session) Record(result *reconcile.Result) {
	if result == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = result
	s.lastUpdated = utc.Now()
	s.runs++
}

// LastResult returns the latest recorded result, if any.
func (s *Session) LastResult() (*reconcile.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}

// LastUpdated returns when the latest result was recorded.
func (s *Session) LastUpdated() utc.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdated
}

// Runs returns how many results were recorded.
func (s *Session) Runs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs
}

// Reset clears the session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = nil
	s.lastUpdated = utc.Time{}
	s.runs = 0
}
