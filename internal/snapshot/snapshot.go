// Package snapshot packages an indicator set with its capture time and
// persists it as JSON.
package snapshot

import (
	"time"

	"github.com/kjannette/market-data-fetcher/internal/models"
)

// Assemble wraps a copy of set with both renderings of capturedAt.
func Assemble(set *models.IndicatorSet, capturedAt time.Time) *models.Snapshot {
	return &models.Snapshot{
		Timestamp:  capturedAt.Format(TimestampLayout),
		LastUpdate: capturedAt.Format(DisplayLayout),
		Data:       set.Clone(),
		CapturedAt: capturedAt,
	}
}
