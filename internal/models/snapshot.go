package models

import (
	"encoding/json"
	"time"
)

// Snapshot is the root document written to market_data.json.
type Snapshot struct {
	Timestamp  string        `json:"timestamp"`
	LastUpdate string        `json:"last_update"`
	Data       *IndicatorSet `json:"data"`

	CapturedAt time.Time `json:"-"`
}

// SnapshotRecord is one archived snapshot row.
type SnapshotRecord struct {
	ID         int64           `json:"id"`
	CapturedAt time.Time       `json:"capturedAt"`
	CaptureDay string          `json:"captureDay"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"createdAt"`
}
