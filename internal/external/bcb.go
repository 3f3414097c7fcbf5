package external

import (
	"bytes"

	"github.com/kjannette/market-data-fetcher/internal/models"
)

type bcbPoint struct {
	Data  string    `json:"data"`
	Valor flexFloat `json:"valor"`
}

// BCBSeries reads a Banco Central SGS series. The body is either
// {"serie":[...]} or a bare array; the last point is the most recent.
type BCBSeries struct{}

func (BCBSeries) Extract(body []byte) (models.Reading, error) {
	var points []bcbPoint
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := decode(trimmed, &points); err != nil {
			return models.Reading{}, err
		}
	} else {
		var wrapped struct {
			Serie []bcbPoint `json:"serie"`
		}
		if err := decode(trimmed, &wrapped); err != nil {
			return models.Reading{}, err
		}
		points = wrapped.Serie
	}

	if len(points) == 0 {
		return models.Reading{}, ErrEmptyPayload
	}
	latest := points[len(points)-1]
	if !latest.Valor.set {
		return models.Reading{}, ErrEmptyPayload
	}
	return models.Reading{Value: latest.Valor.value}, nil
}
