// Package catalog holds the indicator list, defaults and per-indicator source
// chains as data. The built-in catalog is embedded; CATALOG_FILE replaces it.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/kjannette/market-data-fetcher/internal/models"
)

// DateLayout is the DD/MM/YYYY layout used for rate dates.
const DateLayout = "02/01/2006"

// Parser kinds understood by the external package.
const (
	ParserBCBSeries       = "bcb_series"
	ParserYahooQuote      = "yahoo_quote"
	ParserCoinGeckoSimple = "coingecko_simple"
	ParserHTMLScrape      = "html_scrape"
)

//go:embed default.yaml
var defaultYAML []byte

var validate = validator.New()

type Catalog struct {
	Indicators []Definition `yaml:"indicators" validate:"required,min=1,unique=Name,dive"`
}

// Definition describes one indicator: its default record and where to refresh it from.
type Definition struct {
	Name       string   `yaml:"name" validate:"required"`
	Label      string   `yaml:"label"`
	Value      *float64 `yaml:"value"`
	Change     *float64 `yaml:"change"`
	Currency   string   `yaml:"currency"`
	Status     string   `yaml:"status"`
	StatusCode string   `yaml:"status_code"`

	Dated         bool    `yaml:"dated"`
	Integer       bool    `yaml:"integer"`
	MinValue      float64 `yaml:"min_value" validate:"gte=0"`
	MaxValue      float64 `yaml:"max_value" validate:"gte=0"`
	RequireChange bool    `yaml:"require_change"`

	Sources []SourceDef `yaml:"sources" validate:"dive"`
}

type SourceDef struct {
	Name     string            `yaml:"name" validate:"required"`
	Parser   string            `yaml:"parser" validate:"required,oneof=bcb_series yahoo_quote coingecko_simple html_scrape"`
	URL      string            `yaml:"url" validate:"required,url"`
	Headers  map[string]string `yaml:"headers"`
	Asset    string            `yaml:"asset" validate:"required_if=Parser coingecko_simple"`
	Currency string            `yaml:"currency" validate:"required_if=Parser coingecko_simple"`
	Selector string            `yaml:"selector" validate:"required_if=Parser html_scrape"`
	Enabled  *bool             `yaml:"enabled" default:"true"`
}

// IsEnabled reports whether the source takes part in the chain.
func (s SourceDef) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// DisplayLabel is the label used in progress lines.
func (d Definition) DisplayLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return strings.ToUpper(d.Name[:1]) + d.Name[1:]
}

// LiveSources returns the enabled sources in chain order.
func (d Definition) LiveSources() []SourceDef {
	var out []SourceDef
	for _, s := range d.Sources {
		if s.IsEnabled() {
			out = append(out, s)
		}
	}
	return out
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultYAML)
}

// Load reads the catalog at path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes a YAML catalog, applies field defaults and validates it.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i := range cat.Indicators {
		for j := range cat.Indicators[i].Sources {
			if err := defaults.Set(&cat.Indicators[i].Sources[j]); err != nil {
				return nil, fmt.Errorf("catalog defaults: %w", err)
			}
		}
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks struct rules and the cross-field rules the tags cannot express.
// All problems are reported together.
func (c *Catalog) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid catalog: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, describe(fe))
		}
	}

	for _, d := range c.Indicators {
		if len(d.Sources) > 0 && d.Value == nil {
			errs = append(errs, fmt.Sprintf("%s: indicator with sources needs a default value", d.Name))
		}
		if d.Value == nil && d.Status == "" {
			errs = append(errs, fmt.Sprintf("%s: needs a value or a status", d.Name))
		}
		if d.MaxValue != 0 && d.MaxValue <= d.MinValue {
			errs = append(errs, fmt.Sprintf("%s: max_value must exceed min_value", d.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_if":
		return fmt.Sprintf("%s is required when %s", field, strings.Replace(fe.Param(), " ", " is ", 1))
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "unique":
		return fmt.Sprintf("%s must have unique %s values", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// Defaults builds the default indicator set for a run captured at now.
// Dated indicators carry now's date.
func (c *Catalog) Defaults(now time.Time) *models.IndicatorSet {
	entries := make([]models.NamedIndicator, 0, len(c.Indicators))
	for _, d := range c.Indicators {
		ind := models.Indicator{
			Currency:   d.Currency,
			Status:     d.Status,
			StatusCode: d.StatusCode,
		}
		if d.Value != nil {
			ind.Value = models.Float(*d.Value)
		}
		if d.Change != nil {
			ind.Change = models.Float(*d.Change)
		}
		if d.Dated {
			ind.Date = now.Format(DateLayout)
		}
		entries = append(entries, models.NamedIndicator{Name: d.Name, Indicator: ind})
	}
	return models.NewIndicatorSet(entries...)
}
