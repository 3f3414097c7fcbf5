package fetch

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kjannette/market-data-fetcher/internal/external"
	"github.com/kjannette/market-data-fetcher/internal/httputil"
)

// maxReasonRunes bounds the error text shown on a progress line.
const maxReasonRunes = 25

// Reason renders a failure the way progress lines show it.
func Reason(err error) string {
	var se *httputil.StatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		return se.Error()
	case errors.Is(err, external.ErrEmptyPayload):
		return external.ErrEmptyPayload.Error()
	}
	return truncate(err.Error(), maxReasonRunes)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ProgressLine formats the console line for one outcome.
func ProgressLine(label string, o Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "   - %s... ", label)
	switch {
	case o.Static:
		b.WriteString("– (static)")
	case o.Live():
		b.WriteString("✓")
		if o.Fallback {
			fmt.Fprintf(&b, " (via %s)", o.Source)
		}
	default:
		fmt.Fprintf(&b, "✗ (%s)", Reason(o.Err))
	}
	return b.String()
}

func writeLine(w io.Writer, line string) {
	if w == nil {
		return
	}
	fmt.Fprintln(w, line)
}
