package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Digits is the number of decimals printed in the report.
const Digits = 4

// Render prints the report as a table. names maps class labels to display
// names; labels without a name are printed as numbers.
func (r *Report) Render(w io.Writer, names map[int]string) {
	f := func(v float64) string {
		return strconv.FormatFloat(v, 'f', Digits, 64)
	}
	i := strconv.Itoa

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"", "Precision", "Recall", "F1-score", "Support"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, m := range r.Classes {
		name, ok := names[m.Class]
		if !ok {
			name = i(m.Class)
		}
		table.Append([]string{name, f(m.Precision), f(m.Recall), f(m.F1), i(m.Support)})
	}
	table.Append([]string{"accuracy", "", "", f(r.Accuracy), i(r.Total)})
	table.Append([]string{"macro avg", f(r.MacroAvg.Precision), f(r.MacroAvg.Recall), f(r.MacroAvg.F1), i(r.MacroAvg.Support)})
	table.Append([]string{"weighted avg", f(r.WeightedAvg.Precision), f(r.WeightedAvg.Recall), f(r.WeightedAvg.F1), i(r.WeightedAvg.Support)})
	table.Render()
}

// Summary is a one-line accuracy string for logs.
func (r *Report) Summary() string {
	return fmt.Sprintf("accuracy=%.*f on %d samples", Digits, r.Accuracy, r.Total)
}
