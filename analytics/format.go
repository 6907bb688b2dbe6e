package analytics

import (
	"bytes"
	"fmt"
	"strconv"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMean renders a population mean rounded to a whole number with
// thousands separators.
func FormatMean(mean float64) string {
	return printer.Sprintf("%.0f", mean)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FormatBestYears renders the Q2 rows as an aligned table.
func FormatBestYears(rows []BestYear) string {
	buf := &bytes.Buffer{}
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "series_id\tyear\tvalue\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", r.SeriesID, r.Year, formatValue(r.Value))
	}
	w.Flush()
	return buf.String()
}

// FormatJoined renders the Q3 rows as an aligned table.
func FormatJoined(rows []JoinedRow) string {
	buf := &bytes.Buffer{}
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "series_id\tyear\tperiod\tvalue\tPopulation\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t\n", r.SeriesID, r.Year, r.Period, formatValue(r.Value), r.Population)
	}
	w.Flush()
	return buf.String()
}
