package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/lead-agent/internal/model"
	"github.com/sells-group/lead-agent/internal/report"
)

var reportLast int

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print stored daily reports",
	RunE: func(_ *cobra.Command, _ []string) error {
		reports, err := report.NewFileStore(cfg.ReportPath(), cfg.Report.MaxReports, logger).Last(reportLast)
		if err != nil {
			return err
		}
		if len(reports) == 0 {
			fmt.Fprintln(os.Stderr, "No reports found.")
			return nil
		}
		for i, r := range reports {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			formatReport(os.Stdout, r)
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().IntVar(&reportLast, "last", 1, "number of most recent reports to print (0 for all)")
	rootCmd.AddCommand(reportCmd)
}

var titleCaser = cases.Title(language.English)

// label turns a snake_case key into a title-cased label.
func label(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

// formatReport writes r as an aligned table.
func formatReport(out io.Writer, r model.DailyReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	m := r.Metrics

	_, _ = fmt.Fprintf(w, "DAILY REPORT\t%s\n", r.Date)
	_, _ = fmt.Fprintf(w, "%s\t%s\n", label("performance"), strings.ToUpper(label(string(r.Summary.Performance))))
	_, _ = fmt.Fprintf(w, "%s\t%d\n", label("new_leads"), m.NewLeads)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", label("high_priority"), m.HighPriority)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", label("medium_priority"), m.MediumPriority)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", label("contacted_today"), m.ContactedToday)
	_, _ = fmt.Fprintf(w, "%s\t%d\n", label("total_leads_database"), m.TotalLeadsDatabase)
	_, _ = fmt.Fprintf(w, "%s\t%.1f%%\n", label("conversion_rate"), m.ConversionRate)

	if len(r.PlatformBreakdown) > 0 {
		_, _ = fmt.Fprintln(w, "\t")
		_, _ = fmt.Fprintln(w, "PLATFORM\tLEADS\tAVG SCORE")
		for _, p := range sortedKeys(r.PlatformBreakdown) {
			st := r.PlatformBreakdown[p]
			_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f\n", label(p), st.Count, st.AvgScore)
		}
	}

	if len(r.LocationBreakdown) > 0 {
		_, _ = fmt.Fprintln(w, "\t")
		_, _ = fmt.Fprintln(w, "LOCATION\tLEADS")
		for _, loc := range sortedKeys(r.LocationBreakdown) {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", label(loc), r.LocationBreakdown[loc])
		}
	}

	if len(r.TopTags) > 0 {
		_, _ = fmt.Fprintln(w, "\t")
		_, _ = fmt.Fprintln(w, "TOP TAGS\tCOUNT")
		for _, t := range r.TopTags {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", t.Tag, t.Count)
		}
	}
	_ = w.Flush()

	if len(r.Summary.Recommendations) > 0 {
		_, _ = fmt.Fprintln(out, "\nRecommendations:")
		for _, rec := range r.Summary.Recommendations {
			_, _ = fmt.Fprintf(out, "  - %s\n", rec)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
