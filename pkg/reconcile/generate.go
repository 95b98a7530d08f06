//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/franceroutage/annuaire --repository.default-branch main --repository.path /pkg/reconcile

// Package reconcile runs the directory pipeline end to end: column
// resolution, note extraction, phase-title resolution, aggregation, the
// roster merge and the quality gate.
//
// A run either fails with a configuration error (a required column could not
// be resolved) and produces nothing, or succeeds with a complete directory
// and the data-quality warnings collected along the way.
package reconcile
