package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func testSet() *IndicatorSet {
	return NewIndicatorSet(
		NamedIndicator{Name: "dollar", Indicator: Indicator{Value: Float(5.23), Date: "01/01/2024", Change: Float(0.45)}},
		NamedIndicator{Name: "bitcoin", Indicator: Indicator{Value: Float(359712), Change: Float(-3.66), Currency: "BRL"}},
		NamedIndicator{Name: "drex", Indicator: Indicator{Status: "PILOTO ATIVO", StatusCode: "active"}},
	)
}

func TestApply_ValueOnlyKeepsChange(t *testing.T) {
	ind := Indicator{Value: Float(5.23), Change: Float(0.45)}
	ind.Apply(Reading{Value: 5.10}, ApplyOptions{})

	if *ind.Value != 5.10 {
		t.Fatalf("value: got %v", *ind.Value)
	}
	if *ind.Change != 0.45 {
		t.Fatalf("change should be untouched, got %v", *ind.Change)
	}
}

func TestApply_RoundsChange(t *testing.T) {
	ind := Indicator{Value: Float(1), Change: Float(0)}
	ind.Apply(Reading{Value: 2, Change: Float(1.23456)}, ApplyOptions{})
	if *ind.Change != 1.23 {
		t.Fatalf("expected 1.23, got %v", *ind.Change)
	}

	ind.Apply(Reading{Value: 2, Change: Float(-3.665)}, ApplyOptions{})
	if *ind.Change != -3.67 {
		t.Fatalf("expected -3.67, got %v", *ind.Change)
	}
}

func TestApply_IntegerTruncates(t *testing.T) {
	ind := Indicator{Value: Float(131500)}
	ind.Apply(Reading{Value: 128734.98}, ApplyOptions{Integer: true})
	if *ind.Value != 128734 {
		t.Fatalf("expected 128734, got %v", *ind.Value)
	}
}

func TestSet_ApplyUnknownName(t *testing.T) {
	s := testSet()
	err := s.Apply("ethereum", Reading{Value: 1}, ApplyOptions{})
	if !errors.Is(err, ErrUnknownIndicator) {
		t.Fatalf("expected ErrUnknownIndicator, got %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("set must not grow, len=%d", s.Len())
	}
}

func TestSet_CloneIsDeep(t *testing.T) {
	s := testSet()
	c := s.Clone()
	if err := c.Apply("dollar", Reading{Value: 9.99, Change: Float(1)}, ApplyOptions{}); err != nil {
		t.Fatal(err)
	}
	orig, _ := s.Get("dollar")
	if *orig.Value != 5.23 || *orig.Change != 0.45 {
		t.Fatalf("original mutated through clone: %+v", orig)
	}
	if s.Equal(c) {
		t.Fatal("sets should differ after applying to clone")
	}
}

func TestSet_MarshalKeepsOrderAndOmitsEmpty(t *testing.T) {
	b, err := json.Marshal(testSet())
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	want := `{"dollar":{"value":5.23,"date":"01/01/2024","change":0.45},` +
		`"bitcoin":{"value":359712,"change":-3.66,"currency":"BRL"},` +
		`"drex":{"status":"PILOTO ATIVO","status_code":"active"}}`
	if got != want {
		t.Fatalf("marshal mismatch:\n got %s\nwant %s", got, want)
	}
}

func TestSet_ZeroChangeIsWritten(t *testing.T) {
	s := NewIndicatorSet(NamedIndicator{Name: "selic", Indicator: Indicator{Value: Float(15), Change: Float(0)}})
	b, _ := json.Marshal(s)
	if !strings.Contains(string(b), `"change":0`) {
		t.Fatalf("zero change must be kept: %s", b)
	}
}

func TestSet_UnmarshalRoundTrip(t *testing.T) {
	s := testSet()
	b, _ := json.Marshal(s)

	var back IndicatorSet
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !s.Equal(&back) {
		t.Fatalf("round trip mismatch: %v vs %v", s.Names(), back.Names())
	}
}

func TestSet_UnmarshalRejectsArray(t *testing.T) {
	var s IndicatorSet
	if err := json.Unmarshal([]byte(`[1,2]`), &s); err == nil {
		t.Fatal("expected error for array input")
	}
}

func TestMarshalJSON_NoHTMLEscaping(t *testing.T) {
	s := NewIndicatorSet(
		NamedIndicator{Name: "a&b", Indicator: Indicator{Status: "<alta> & estável"}},
	)
	data, err := s.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"a&b":{"status":"<alta> & estável"}}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}
