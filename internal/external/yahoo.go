package external

import (
	"github.com/kjannette/market-data-fetcher/internal/models"
)

type yahooField struct {
	Raw *float64 `json:"raw"`
}

type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				RegularMarketPrice         yahooField `json:"regularMarketPrice"`
				RegularMarketChangePercent yahooField `json:"regularMarketChangePercent"`
			} `json:"price"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// YahooQuote reads quoteSummary?modules=price. The market price is required;
// the change percent is taken when present.
type YahooQuote struct{}

func (YahooQuote) Extract(body []byte) (models.Reading, error) {
	var data yahooQuoteSummary
	if err := decode(body, &data); err != nil {
		return models.Reading{}, err
	}
	if len(data.QuoteSummary.Result) == 0 {
		return models.Reading{}, ErrEmptyPayload
	}

	price := data.QuoteSummary.Result[0].Price
	if price.RegularMarketPrice.Raw == nil {
		return models.Reading{}, ErrEmptyPayload
	}
	return models.Reading{
		Value:  *price.RegularMarketPrice.Raw,
		Change: price.RegularMarketChangePercent.Raw,
	}, nil
}
