// Package constants provides shared constants used throughout the annuaire codebase.
// This includes output markers, matching thresholds, file permissions and other
// values that must stay consistent between the pipeline, the CLI and exports.
package constants

import "time"

// Directory output constants
const (
	// NoTitle is the sentinel written in the titles column when a client has no resolved title
	NoTitle = "Aucun titre"

	// TitleSeparator joins the deduplicated, sorted titles of a client
	TitleSeparator = "; "

	// NoteTag is the reference-type tag (after trim and case folding) marking a note line
	NoteTag = "NOTE"

	// NotePlaceholder is the marker embedded in design fields ahead of the phase code
	NotePlaceholder = "{note}"
)

// Matching constants
const (
	// DefaultFuzzyThreshold is the minimum similarity score (0-100) accepted by the fallback matcher
	DefaultFuzzyThreshold = 98.0

	// MaxSimilarityScore is the score of two identical strings
	MaxSimilarityScore = 100.0
)

// Quality gate constants
const (
	// AcceptableDiscrepancyPercent is the upper bound of the "acceptable" classification
	AcceptableDiscrepancyPercent = 1.0
)

// Cache constants
const (
	// DefaultCacheTTL is how long a memoized run stays available
	DefaultCacheTTL = 30 * time.Minute

	// DefaultCacheCleanupInterval is how often expired runs are purged
	DefaultCacheCleanupInterval = 10 * time.Minute
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Timeout constants
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds graceful shutdown after a failed command
	ShutdownTimeout = 5 * time.Second
)
