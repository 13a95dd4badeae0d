package domains

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogOrder(t *testing.T) {
	c := Default()

	require.Equal(t, 12, c.Len())
	labels := c.Labels()
	assert.Equal(t, "frontend developer", labels[0])
	assert.Equal(t, "cybersecurity", labels[len(labels)-1])

	spec, ok := c.Lookup("data scientist")
	require.True(t, ok)
	assert.Contains(t, spec.BioKeywords, "analytics")
}

func TestNewRejectsInvalidSpecs(t *testing.T) {
	tests := []struct {
		name  string
		specs []Spec
	}{
		{name: "empty catalog", specs: nil},
		{name: "blank label", specs: []Spec{{Label: "  "}}},
		{name: "duplicate label", specs: []Spec{{Label: "sre"}, {Label: " sre "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.specs)
			require.Error(t, err)
		})
	}
}

func TestNewCleansKeywords(t *testing.T) {
	c, err := New([]Spec{{Label: "sre", BioKeywords: []string{" sre ", "", "oncall"}}})
	require.NoError(t, err)

	spec, ok := c.Lookup("sre")
	require.True(t, ok)
	assert.Equal(t, []string{"sre", "oncall"}, spec.BioKeywords)
}

func TestAllReturnsCopy(t *testing.T) {
	c := Default()
	all := c.All()
	all[0].Label = "mutated"

	assert.Equal(t, "frontend developer", c.Labels()[0])
}

func TestKeywordQuery(t *testing.T) {
	spec := Spec{BioKeywords: []string{"frontend", "react", "vue"}}

	assert.Equal(t, "frontend OR react", spec.KeywordQuery(2))
	assert.Equal(t, "frontend OR react OR vue", spec.KeywordQuery(5))
	assert.Equal(t, "", Spec{}.KeywordQuery(2))
	assert.Equal(t, "", spec.KeywordQuery(0))
}
