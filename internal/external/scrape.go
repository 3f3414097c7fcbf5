package external

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kjannette/market-data-fetcher/internal/models"
)

var numberToken = regexp.MustCompile(`[+-]?\d[\d.,]*\d|\d`)

// HTMLScrape reads the first numeric token in the text of the first element
// matching Selector. Page layouts change without notice, so this is only
// ever a last-resort source.
type HTMLScrape struct {
	Selector string
}

func (h HTMLScrape) Extract(body []byte) (models.Reading, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.Reading{}, fmt.Errorf("%w: %v", ErrEmptyPayload, err)
	}

	sel := doc.Find(h.Selector).First()
	if sel.Length() == 0 {
		return models.Reading{}, ErrEmptyPayload
	}
	token := numberToken.FindString(sel.Text())
	if token == "" {
		return models.Reading{}, ErrEmptyPayload
	}

	v, err := ParseLocalizedNumber(token)
	if err != nil {
		return models.Reading{}, fmt.Errorf("%w: %v", ErrEmptyPayload, err)
	}
	return models.Reading{Value: v}, nil
}

// ParseLocalizedNumber accepts pt-BR ("359.712,45") and en ("359,712.45")
// grouping. When both separators appear the last one is the decimal mark. A
// single separator followed by exactly three digits is read as grouping.
func ParseLocalizedNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = normalizeSingle(s, ",")
	case lastDot >= 0:
		s = normalizeSingle(s, ".")
	}
	return strconv.ParseFloat(s, 64)
}

func normalizeSingle(s, sep string) string {
	if strings.Count(s, sep) > 1 || len(s)-strings.LastIndex(s, sep)-1 == 3 {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}
