//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/franceroutage/annuaire --repository.default-branch main --repository.path /

// Package annuaire builds a client directory from a client roster, order
// lines and a phase catalog: every roster client appears exactly once, with
// the titles of the phases referenced by its NOTE order lines.
//
// The facade memoizes identical runs and fires hooks when a run completes.
package annuaire
