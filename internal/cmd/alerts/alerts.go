// Package alerts turns run outcomes into operator notifications: one alert
// for the quality classification and one per data-quality warning.
package alerts

import (
	"fmt"

	"github.com/agentstation/utc"

	"github.com/franceroutage/annuaire/pkg/quality"
	"github.com/franceroutage/annuaire/pkg/reconcile"
)

// Alert represents an operator notification.
type Alert struct {
	Level     Level
	Message   string
	Details   []string
	Timestamp utc.Time
	Err       error
}

// New creates a new alert with the given level and message.
func New(level Level, message string) *Alert {
	return &Alert{
		Level:     level,
		Message:   message,
		Timestamp: utc.Now(),
	}
}

// NewError creates a new error alert.
func NewError(message string) *Alert {
	return New(LevelError, message)
}

// NewWarning creates a new warning alert.
func NewWarning(message string) *Alert {
	return New(LevelWarning, message)
}

// NewInfo creates a new info alert.
func NewInfo(message string) *Alert {
	return New(LevelInfo, message)
}

// NewSuccess creates a new success alert.
func NewSuccess(message string) *Alert {
	return New(LevelSuccess, message)
}

// WithError adds an underlying error to the alert.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails adds additional context details to the alert.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String returns a string representation of the alert.
func (a *Alert) String() string {
	message := fmt.Sprintf("%s %s", a.Level.Icon(), a.Message)
	if a.Err != nil {
		message += fmt.Sprintf(": %v", a.Err)
	}
	return message
}

// LevelFor maps a quality classification to an alert level.
func LevelFor(status quality.Status) Level {
	switch status {
	case quality.StatusExact:
		return LevelSuccess
	case quality.StatusAcceptable:
		return LevelInfo
	default:
		return LevelWarning
	}
}

// FromResult builds the alerts of a run: the quality alert first, then one
// warning alert per data-quality warning.
func FromResult(res *reconcile.Result) []*Alert {
	s := res.Metadata.Stats
	q := New(LevelFor(res.Quality.Status), fmt.Sprintf("Directory %s: %d clients from %d roster rows (%.2f%% discrepancy)",
		res.Quality.Status, res.Quality.OutputCount, res.Quality.RosterCount, res.Quality.Discrepancy)).
		WithDetails(
			fmt.Sprintf("%d note lines out of %d order lines", s.Notes, s.OrderLines),
			fmt.Sprintf("%d matched, %d clients with titles", s.Matches(), s.TitledClients),
		)

	out := []*Alert{q}
	for _, w := range res.Warnings {
		out = append(out, NewWarning(w.Message).WithDetails("kind: "+string(w.Kind)))
	}
	return out
}

// Writer handles alert output to different formats and destinations.
type Writer interface {
	WriteAlert(alert *Alert) error
}

// WriterFunc is an adapter to allow functions to be used as Writers.
type WriterFunc func(*Alert) error

// WriteAlert calls the function.
func (f WriterFunc) WriteAlert(alert *Alert) error {
	return f(alert)
}

// WriteAll writes every alert, stopping at the first error.
func WriteAll(w Writer, alerts []*Alert) error {
	for _, a := range alerts {
		if err := w.WriteAlert(a); err != nil {
			return err
		}
	}
	return nil
}

// DiscardWriter is a Writer that discards all alerts.
var DiscardWriter Writer = WriterFunc(func(*Alert) error { return nil })
