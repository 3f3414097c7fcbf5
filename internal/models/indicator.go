package models

import (
	"math"

	"github.com/shopspring/decimal"
)

// Indicator is one market quantity in the snapshot. Rate-like records carry a
// date, price-like records a currency, and status-only records (e.g. the DREX
// pilot flag) carry no value at all.
type Indicator struct {
	Value      *float64 `json:"value,omitempty"`
	Date       string   `json:"date,omitempty"`
	Change     *float64 `json:"change,omitempty"`
	Currency   string   `json:"currency,omitempty"`
	Status     string   `json:"status,omitempty"`
	StatusCode string   `json:"status_code,omitempty"`
}

// Reading is the numeric payload extracted from one successful source call.
type Reading struct {
	Value  float64
	Change *float64
}

type ApplyOptions struct {
	// Integer truncates the value toward zero (index points, BRL prices).
	Integer bool
}

// Apply overwrites the value and, when the reading supplies one, the change.
// Change is rounded to 2 decimal places. Fields not in the reading are kept.
func (ind *Indicator) Apply(r Reading, opts ApplyOptions) {
	v := r.Value
	if opts.Integer {
		v = math.Trunc(v)
	}
	ind.Value = &v
	if r.Change != nil {
		c := RoundChange(*r.Change)
		ind.Change = &c
	}
}

// HasValue reports whether the record is numeric.
func (ind *Indicator) HasValue() bool {
	return ind.Value != nil
}

// ValueOr returns the value or def for status-only records.
func (ind *Indicator) ValueOr(def float64) float64 {
	if ind.Value == nil {
		return def
	}
	return *ind.Value
}

// ChangeOr returns the change or def when none is set.
func (ind *Indicator) ChangeOr(def float64) float64 {
	if ind.Change == nil {
		return def
	}
	return *ind.Change
}

func (ind Indicator) clone() Indicator {
	out := ind
	if ind.Value != nil {
		v := *ind.Value
		out.Value = &v
	}
	if ind.Change != nil {
		c := *ind.Change
		out.Change = &c
	}
	return out
}

// RoundChange rounds a percent change half away from zero to 2 places.
func RoundChange(c float64) float64 {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return c
	}
	return decimal.NewFromFloat(c).Round(2).InexactFloat64()
}

// Float returns a pointer to f, for building records literally.
func Float(f float64) *float64 {
	return &f
}
