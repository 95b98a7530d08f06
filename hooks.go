package annuaire

import (
	"sync"

	"github.com/franceroutage/annuaire/pkg/reconcile"
)

// Hook function types for run events
type (
	// RunCompletedHook is called after every successful run, cached or not
	RunCompletedHook func(result *reconcile.Result)

	// WarningHook is called once per data-quality warning of a run
	WarningHook func(runID string, warning reconcile.Warning)
)

// hooks manages event callbacks for runs
type hooks struct {
	mu             sync.RWMutex
	onRunCompleted []RunCompletedHook
	onWarning      []WarningHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnRunCompleted registers a callback for completed runs
func (h *hooks) OnRunCompleted(fn RunCompletedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRunCompleted = append(h.onRunCompleted, fn)
}

// OnWarning registers a callback for data-quality warnings
func (h *hooks) OnWarning(fn WarningHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onWarning = append(h.onWarning, fn)
}

// triggerRun fires the warning hooks then the completion hooks
func (h *hooks) triggerRun(result *reconcile.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, w := range result.Warnings {
		for _, hook := range h.onWarning {
			hook(result.RunID, w)
		}
	}
	for _, hook := range h.onRunCompleted {
		hook(result)
	}
}
