// Package aggregate collapses (client, title) assignments into one display
// string per client.
package aggregate

import (
	"sort"
	"strings"

	"github.com/franceroutage/annuaire/pkg/constants"
	"github.com/franceroutage/annuaire/pkg/normalize"
	"github.com/franceroutage/annuaire/pkg/phases"
)

// Titles maps a normalized client id to its aggregated title string.
type Titles map[string]string

// Get returns the aggregated titles of a client.
func (t Titles) Get(clientID string) (string, bool) {
	s, ok := t[normalize.Key(clientID)]
	return s, ok
}

// Clients returns the aggregated client ids in lexical order.
func (t Titles) Clients() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ByClient groups assignments by client, drops duplicate titles, sorts the
// remaining ones lexically and joins them with "; ". Clients with no
// assignment are absent from the result.
func ByClient(assignments []phases.Assignment) Titles {
	sets := make(map[string]map[string]struct{})
	for _, a := range assignments {
		id := normalize.Key(a.ClientID)
		title := normalize.Title(a.Title)
		if id == "" || title == "" {
			continue
		}
		if sets[id] == nil {
			sets[id] = make(map[string]struct{})
		}
		sets[id][title] = struct{}{}
	}

	out := make(Titles, len(sets))
	for id, set := range sets {
		out[id] = Join(set)
	}
	return out
}

// Join sorts a title set and joins it with the title separator.
func Join(set map[string]struct{}) string {
	titles := make([]string, 0, len(set))
	for title := range set {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return strings.Join(titles, constants.TitleSeparator)
}
