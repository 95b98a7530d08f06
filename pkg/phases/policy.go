package phases

import (
	"fmt"
	"sort"
	"strings"
)

// AmbiguityPolicy decides what happens to a catalog phase code that resolved
// for order lines of more than one distinct client.
type AmbiguityPolicy interface {
	// Name identifies the policy
	Name() string

	// Apply filters assignments and reports the ambiguous codes it saw, sorted
	Apply(assignments []Assignment) (kept []Assignment, ambiguous []string)
}

// Policy names accepted by ParsePolicy.
const (
	PolicyStrict     = "strict"
	PolicyPermissive = "permissive"
)

// StrictExclusion drops every assignment of an ambiguous code, for all of the
// clients sharing it.
type StrictExclusion struct{}

// Name returns the policy name.
func (StrictExclusion) Name() string {
	return PolicyStrict
}

// Apply removes assignments whose code is shared by several clients.
func (StrictExclusion) Apply(assignments []Assignment) ([]Assignment, []string) {
	ambiguous := ambiguousCodes(assignments)
	if len(ambiguous) == 0 {
		return assignments, nil
	}
	excluded := make(map[string]bool, len(ambiguous))
	for _, code := range ambiguous {
		excluded[code] = true
	}
	kept := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if !excluded[a.PhaseCode] {
			kept = append(kept, a)
		}
	}
	return kept, ambiguous
}

// PermissiveSharing attributes a shared code's title to every client using it.
type PermissiveSharing struct{}

// Name returns the policy name.
func (PermissiveSharing) Name() string {
	return PolicyPermissive
}

// Apply keeps all assignments.
func (PermissiveSharing) Apply(assignments []Assignment) ([]Assignment, []string) {
	return assignments, ambiguousCodes(assignments)
}

// ParsePolicy maps a policy name to its implementation.
func ParsePolicy(name string) (AmbiguityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyStrict:
		return StrictExclusion{}, nil
	case PolicyPermissive:
		return PermissiveSharing{}, nil
	default:
		return nil, fmt.Errorf("unknown ambiguity policy %q (want %s or %s)", name, PolicyStrict, PolicyPermissive)
	}
}

func ambiguousCodes(assignments []Assignment) []string {
	clients := make(map[string]map[string]bool)
	for _, a := range assignments {
		if clients[a.PhaseCode] == nil {
			clients[a.PhaseCode] = make(map[string]bool)
		}
		clients[a.PhaseCode][a.ClientID] = true
	}
	var codes []string
	for code, ids := range clients {
		if len(ids) > 1 {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}
