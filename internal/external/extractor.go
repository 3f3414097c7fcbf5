// Package external turns upstream response bodies into readings. Each parser
// kind in the catalog maps to one Extractor.
package external

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kjannette/market-data-fetcher/internal/catalog"
	"github.com/kjannette/market-data-fetcher/internal/models"
)

// ErrEmptyPayload marks a 2xx response that lacks the expected shape.
var ErrEmptyPayload = errors.New("empty data")

// Extractor parses one source's response body.
type Extractor interface {
	Extract(body []byte) (models.Reading, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(body []byte) (models.Reading, error)

func (f ExtractorFunc) Extract(body []byte) (models.Reading, error) {
	return f(body)
}

// ExtractorFor resolves the extractor for a catalog source.
func ExtractorFor(src catalog.SourceDef) (Extractor, error) {
	switch src.Parser {
	case catalog.ParserBCBSeries:
		return BCBSeries{}, nil
	case catalog.ParserYahooQuote:
		return YahooQuote{}, nil
	case catalog.ParserCoinGeckoSimple:
		return CoinGeckoSimple{Asset: src.Asset, Currency: src.Currency}, nil
	case catalog.ParserHTMLScrape:
		return HTMLScrape{Selector: src.Selector}, nil
	default:
		return nil, fmt.Errorf("unknown parser %q", src.Parser)
	}
}

// flexFloat decodes a JSON number or a string-encoded number.
type flexFloat struct {
	value float64
	set   bool
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		str = strings.TrimSpace(str)
		if str == "" {
			return nil
		}
		val, err := strconv.ParseFloat(str, 64)
		if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
			return fmt.Errorf("not a number: %q", str)
		}
		f.value, f.set = val, true
		return nil
	}
	var val float64
	if err := json.Unmarshal(data, &val); err != nil {
		return err
	}
	f.value, f.set = val, true
	return nil
}

func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrEmptyPayload, err)
	}
	return nil
}
