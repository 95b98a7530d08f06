package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/franceroutage/annuaire/pkg/aggregate"
	"github.com/franceroutage/annuaire/pkg/phases"
)

func TestByClient(t *testing.T) {
	titles := aggregate.ByClient([]phases.Assignment{
		{ClientID: "c1", Title: "Zèbre"},
		{ClientID: "C1", Title: " Alpha "},
		{ClientID: "C1", Title: "Zèbre"},
		{ClientID: "C2", Title: "Beta"},
		{ClientID: "", Title: "Orphan"},
		{ClientID: "C3", Title: "  "},
	})

	assert.Equal(t, aggregate.Titles{"C1": "Alpha; Zèbre", "C2": "Beta"}, titles)
	assert.Equal(t, []string{"C1", "C2"}, titles.Clients())

	s, ok := titles.Get(" c1 ")
	assert.True(t, ok)
	assert.Equal(t, "Alpha; Zèbre", s)

	_, ok = titles.Get("C3")
	assert.False(t, ok, "a client without titles is absent, not empty")
}

func TestByClientIsOrderIndependent(t *testing.T) {
	a := []phases.Assignment{
		{ClientID: "C1", Title: "B"},
		{ClientID: "C1", Title: "A"},
		{ClientID: "C1", Title: "C"},
	}
	b := []phases.Assignment{a[2], a[0], a[1], a[0]}

	assert.Equal(t, aggregate.ByClient(a), aggregate.ByClient(b))
	assert.Equal(t, "A; B; C", aggregate.ByClient(a)["C1"])
}

func TestByClientEmpty(t *testing.T) {
	assert.Empty(t, aggregate.ByClient(nil))
}
