package catalog

import "sort"

// Coin is a coin type with its live samples.
type Coin struct {
	ID         int64
	IssuerID   int64
	IssuerSlug string
	Title      string
	Subtitle   string
	Slug       string
	Period     string
	Fixed      bool
	Samples    []Sample
}

// SortSamples orders reference samples first, then by id.
func (c *Coin) SortSamples() {
	sort.SliceStable(c.Samples, func(i, j int) bool {
		ri := c.Samples[i].Type == SampleReference
		rj := c.Samples[j].Type == SampleReference
		if ri != rj {
			return ri
		}
		return c.Samples[i].ID < c.Samples[j].ID
	})
}

// Sample returns the live sample with the given id.
func (c *Coin) Sample(id int64) (Sample, bool) {
	for _, s := range c.Samples {
		if s.ID == id && !s.Removed {
			return s, true
		}
	}
	return Sample{}, false
}

// Reference returns the live reference sample, if any.
func (c *Coin) Reference() (Sample, bool) {
	for _, s := range c.Samples {
		if s.Type == SampleReference && !s.Removed {
			return s, true
		}
	}
	return Sample{}, false
}

// CountType counts live samples of the given type.
func (c *Coin) CountType(t SampleType) int {
	n := 0
	for _, s := range c.Samples {
		if s.Type == t && !s.Removed {
			n++
		}
	}
	return n
}
