package job

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var rule = strings.Repeat("=", 60)

// Banner is printed before a one-shot run.
func Banner(w io.Writer) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "UPDATING MARKET DATA")
	fmt.Fprintln(w, rule)
}

// PrintSummary writes the final indicator values of a successful run.
// Integer indicators print without decimals; numbers use thousands grouping.
func PrintSummary(w io.Writer, res *Result) {
	p := message.NewPrinter(language.English)
	integer := make(map[string]bool, len(res.Plan))
	for _, ind := range res.Plan {
		integer[ind.Name] = ind.Integer
	}

	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintln(w, "✓ UPDATE COMPLETED SUCCESSFULLY!")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nIndicators: %d (live %d)\n", res.Snapshot.Data.Len(), res.Live())
	fmt.Fprintf(w, "Timestamp: %s\n", res.Snapshot.LastUpdate)
	fmt.Fprintln(w, "\nData:")

	for _, name := range res.Snapshot.Data.Names() {
		ind, _ := res.Snapshot.Data.Get(name)
		key := strings.ToUpper(name)
		if !ind.HasValue() {
			status := ind.Status
			if status == "" {
				status = "N/A"
			}
			fmt.Fprintf(w, "  • %s: %s\n", key, status)
			continue
		}

		verb := "%.2f"
		if integer[name] {
			verb = "%.0f"
		}
		value := p.Sprintf(verb, *ind.Value)
		fmt.Fprintf(w, "  • %s: %s (%+.2f%%)\n", key, value, ind.ChangeOr(0))
	}
	fmt.Fprintln(w, "\n"+rule)
}
