// Package domains holds the role catalog that drives discovery and scoring.
package domains

import (
	"errors"
	"fmt"
	"strings"
)

// Spec lists the signals that make a profile relevant to one role label.
type Spec struct {
	Label        string   `mapstructure:"label" json:"label"`
	BioKeywords  []string `mapstructure:"bio-keywords" json:"bio_keywords"`
	RepoKeywords []string `mapstructure:"repo-keywords" json:"repo_keywords"`
	Languages    []string `mapstructure:"languages" json:"languages"`
}

// Catalog is an ordered, label-keyed set of domain specs. It is not modified after New.
type Catalog struct {
	specs []Spec
	index map[string]int
}

// New builds a catalog preserving the given order. Labels must be unique and non-empty.
func New(specs []Spec) (*Catalog, error) {
	if len(specs) == 0 {
		return nil, errors.New("domain catalog is empty")
	}

	c := &Catalog{
		specs: make([]Spec, 0, len(specs)),
		index: make(map[string]int, len(specs)),
	}

	for _, spec := range specs {
		spec.Label = strings.TrimSpace(spec.Label)
		if spec.Label == "" {
			return nil, errors.New("domain label must not be empty")
		}
		if _, ok := c.index[spec.Label]; ok {
			return nil, fmt.Errorf("duplicate domain label %q", spec.Label)
		}

		spec.BioKeywords = cleanList(spec.BioKeywords)
		spec.RepoKeywords = cleanList(spec.RepoKeywords)
		spec.Languages = cleanList(spec.Languages)

		c.index[spec.Label] = len(c.specs)
		c.specs = append(c.specs, spec)
	}

	return c, nil
}

// Lookup returns the spec registered under label.
func (c *Catalog) Lookup(label string) (Spec, bool) {
	idx, ok := c.index[strings.TrimSpace(label)]
	if !ok {
		return Spec{}, false
	}
	return c.specs[idx], true
}

// All returns a copy of the specs in declaration order.
func (c *Catalog) All() []Spec {
	out := make([]Spec, len(c.specs))
	copy(out, c.specs)
	return out
}

// Labels returns the domain labels in declaration order.
func (c *Catalog) Labels() []string {
	labels := make([]string, 0, len(c.specs))
	for _, spec := range c.specs {
		labels = append(labels, spec.Label)
	}
	return labels
}

func (c *Catalog) Len() int {
	return len(c.specs)
}

// KeywordQuery returns up to n leading bio keywords joined with OR.
func (s Spec) KeywordQuery(n int) string {
	if n <= 0 || len(s.BioKeywords) == 0 {
		return ""
	}
	if n > len(s.BioKeywords) {
		n = len(s.BioKeywords)
	}
	return strings.Join(s.BioKeywords[:n], " OR ")
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
