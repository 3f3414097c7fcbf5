package fetch

import (
	"fmt"

	"github.com/kjannette/market-data-fetcher/internal/catalog"
	"github.com/kjannette/market-data-fetcher/internal/external"
	"github.com/kjannette/market-data-fetcher/internal/guard"
)

// Source is one resolved live source of an indicator.
type Source struct {
	Name      string
	URL       string
	Headers   map[string]string
	Extractor external.Extractor
}

// Indicator is the fetch recipe for one entry of the indicator set.
type Indicator struct {
	Name    string
	Label   string
	Sources []Source
	Limits  guard.Limits
	// Integer truncates accepted values.
	Integer bool
	// RequireChange rejects a reading equal to the current default and
	// moves on to the next source.
	RequireChange bool
}

// Static reports whether the indicator has no live source.
func (ind Indicator) Static() bool {
	return len(ind.Sources) == 0
}

// Plan is the ordered list of indicators to refresh.
type Plan []Indicator

// NewPlan resolves every enabled catalog source to its extractor.
func NewPlan(cat *catalog.Catalog) (Plan, error) {
	plan := make(Plan, 0, len(cat.Indicators))
	for _, d := range cat.Indicators {
		ind := Indicator{
			Name:          d.Name,
			Label:         d.DisplayLabel(),
			Limits:        guard.Limits{MinValue: d.MinValue, MaxValue: d.MaxValue},
			Integer:       d.Integer,
			RequireChange: d.RequireChange,
		}
		for _, s := range d.LiveSources() {
			ex, err := external.ExtractorFor(s)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", d.Name, s.Name, err)
			}
			ind.Sources = append(ind.Sources, Source{
				Name:      s.Name,
				URL:       s.URL,
				Headers:   s.Headers,
				Extractor: ex,
			})
		}
		plan = append(plan, ind)
	}
	return plan, nil
}
