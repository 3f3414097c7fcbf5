package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownIndicator is returned when updating a name the set was not built with.
var ErrUnknownIndicator = errors.New("unknown indicator")

// IndicatorSet is an ordered name → Indicator mapping. Names are fixed when
// the set is built; afterwards entries can be updated but never added or removed.
type IndicatorSet struct {
	order []string
	items map[string]*Indicator
}

// NewIndicatorSet builds a set from names and records in the given order.
// Duplicate names keep the first record.
func NewIndicatorSet(entries ...NamedIndicator) *IndicatorSet {
	s := &IndicatorSet{items: make(map[string]*Indicator, len(entries))}
	for _, e := range entries {
		if _, dup := s.items[e.Name]; dup {
			continue
		}
		ind := e.Indicator.clone()
		s.order = append(s.order, e.Name)
		s.items[e.Name] = &ind
	}
	return s
}

type NamedIndicator struct {
	Name      string
	Indicator Indicator
}

func (s *IndicatorSet) Len() int {
	return len(s.order)
}

// Names returns the indicator names in set order.
func (s *IndicatorSet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns a copy of the named record.
func (s *IndicatorSet) Get(name string) (Indicator, bool) {
	ind, ok := s.items[name]
	if !ok {
		return Indicator{}, false
	}
	return ind.clone(), true
}

// Apply merges a reading into an existing record.
func (s *IndicatorSet) Apply(name string, r Reading, opts ApplyOptions) error {
	ind, ok := s.items[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownIndicator, name)
	}
	ind.Apply(r, opts)
	return nil
}

// Clone returns a deep copy.
func (s *IndicatorSet) Clone() *IndicatorSet {
	out := &IndicatorSet{
		order: make([]string, len(s.order)),
		items: make(map[string]*Indicator, len(s.items)),
	}
	copy(out.order, s.order)
	for k, v := range s.items {
		c := v.clone()
		out.items[k] = &c
	}
	return out
}

// Equal reports whether both sets hold the same names in the same order with equal records.
func (s *IndicatorSet) Equal(other *IndicatorSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, name := range s.order {
		if other.order[i] != name {
			return false
		}
		a, b := s.items[name], other.items[name]
		if !equalFloat(a.Value, b.Value) || !equalFloat(a.Change, b.Change) {
			return false
		}
		if a.Date != b.Date || a.Currency != b.Currency || a.Status != b.Status || a.StatusCode != b.StatusCode {
			return false
		}
	}
	return true
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// MarshalJSON writes the set as an object, keys in set order.
func (s *IndicatorSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeLiteral(&buf, name); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encodeLiteral(&buf, s.items[name]); err != nil {
			return nil, fmt.Errorf("marshal %s: %w", name, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeLiteral appends v to buf without HTML escaping.
func encodeLiteral(buf *bytes.Buffer, v any) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// UnmarshalJSON reads an object, keeping the document's key order.
func (s *IndicatorSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("indicator set: expected object, got %v", tok)
	}

	s.order = nil
	s.items = make(map[string]*Indicator)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("indicator set: expected key, got %v", tok)
		}
		var ind Indicator
		if err := dec.Decode(&ind); err != nil {
			return fmt.Errorf("indicator %s: %w", name, err)
		}
		if _, dup := s.items[name]; !dup {
			s.order = append(s.order, name)
		}
		s.items[name] = &ind
	}
	_, err = dec.Token()
	return err
}
