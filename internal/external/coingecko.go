package external

import (
	"encoding/json"

	"github.com/kjannette/market-data-fetcher/internal/models"
)

// CoinGeckoSimple reads /simple/price with include_24hr_change:
// {"<asset>":{"<currency>":n,"<currency>_24h_change":n}}.
type CoinGeckoSimple struct {
	Asset    string
	Currency string
}

func (c CoinGeckoSimple) Extract(body []byte) (models.Reading, error) {
	var data map[string]map[string]json.RawMessage
	if err := decode(body, &data); err != nil {
		return models.Reading{}, err
	}

	quote, ok := data[c.Asset]
	if !ok {
		return models.Reading{}, ErrEmptyPayload
	}
	price, err := number(quote[c.Currency])
	if err != nil || price == nil {
		return models.Reading{}, ErrEmptyPayload
	}

	r := models.Reading{Value: *price}
	if change, err := number(quote[c.Currency+"_24h_change"]); err == nil {
		r.Change = change
	}
	return r, nil
}

func number(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var f flexFloat
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	if !f.set {
		return nil, nil
	}
	return &f.value, nil
}
