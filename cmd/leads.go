package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-agent/internal/export"
	"github.com/sells-group/lead-agent/internal/model"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and export the lead database",
}

// leadFilter selects leads for list, export, and the HTTP API.
type leadFilter struct {
	Status   model.Status
	MinScore int
	Limit    int
}

func (f leadFilter) apply(leads []model.Lead) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if l.Score < f.MinScore {
			continue
		}
		out = append(out, l)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out
}

func parseStatus(s string) (model.Status, error) {
	switch st := model.Status(s); st {
	case "", model.StatusNew, model.StatusContacted:
		return st, nil
	default:
		return "", eris.Errorf("unknown status %q (want new or contacted)", s)
	}
}

func filterFromFlags(cmd *cobra.Command) (leadFilter, error) {
	status, _ := cmd.Flags().GetString("status")
	minScore, _ := cmd.Flags().GetInt("min-score")
	limit, _ := cmd.Flags().GetInt("limit")

	st, err := parseStatus(status)
	if err != nil {
		return leadFilter{}, err
	}
	return leadFilter{Status: st, MinScore: minScore, Limit: limit}, nil
}

func loadLeads(cmd *cobra.Command) ([]model.Lead, error) {
	ctx := cmd.Context()
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	leads, err := st.Load(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load leads")
	}
	return leads, nil
}

// -- leads list --

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		leads, err := loadLeads(cmd)
		if err != nil {
			return err
		}

		leads = filter.apply(leads)
		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No leads found.")
			return nil
		}
		formatLeadsList(os.Stdout, leads)
		return nil
	},
}

// -- leads show --

var leadsShowCmd = &cobra.Command{
	Use:   "show <profile-url>",
	Short: "Show one lead as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		leads, err := loadLeads(cmd)
		if err != nil {
			return err
		}
		for _, l := range leads {
			if l.ProfileURL == args[0] {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(l)
			}
		}
		return eris.Errorf("lead %s not found", args[0])
	},
}

// -- leads export --

var leadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leads to CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		f, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		leads, err := loadLeads(cmd)
		if err != nil {
			return err
		}
		leads = filter.apply(leads)

		if err := writeExport(f, output, leads); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported %d leads.\n", len(leads))
		return nil
	},
}

// writeExport writes leads in format f to output, or to stdout for CSV
// when output is empty or "-".
func writeExport(f export.Format, output string, leads []model.Lead) error {
	switch f {
	case export.FormatXLSX:
		if output == "" || output == "-" {
			return eris.New("export: --output is required for xlsx")
		}
		return export.WriteXLSX(output, leads)
	default:
		if output == "" || output == "-" {
			return export.WriteCSV(os.Stdout, leads)
		}
		file, err := os.Create(output)
		if err != nil {
			return eris.Wrapf(err, "export: create %s", output)
		}
		w := bufio.NewWriter(file)
		if err := export.WriteCSV(w, leads); err != nil {
			file.Close() //nolint:errcheck
			return err
		}
		if err := w.Flush(); err != nil {
			file.Close() //nolint:errcheck
			return eris.Wrapf(err, "export: write %s", output)
		}
		return eris.Wrapf(file.Close(), "export: close %s", output)
	}
}

func init() {
	leadsListCmd.Flags().String("status", "", "filter by status (new, contacted)")
	leadsListCmd.Flags().Int("min-score", 0, "minimum score")
	leadsListCmd.Flags().Int("limit", 50, "max number of leads to display (0 for all)")

	leadsExportCmd.Flags().String("status", "", "filter by status (new, contacted)")
	leadsExportCmd.Flags().Int("min-score", 0, "minimum score")
	leadsExportCmd.Flags().Int("limit", 0, "max number of leads (0 for all)")

	leadsExportCmd.Flags().String("format", "csv", "export format (csv, xlsx)")
	leadsExportCmd.Flags().StringP("output", "o", "", "output file (default stdout for csv)")

	leadsCmd.AddCommand(leadsListCmd)
	leadsCmd.AddCommand(leadsShowCmd)
	leadsCmd.AddCommand(leadsExportCmd)
	rootCmd.AddCommand(leadsCmd)
}

// formatLeadsList writes a tabular list of leads to out.
func formatLeadsList(out io.Writer, leads []model.Lead) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCORE\tSTATUS\tPLATFORM\tLOCATION\tNAME\tCREATED\tPROFILE")
	for _, l := range leads {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			l.Score, l.Status, l.Platform, l.Location, l.Name,
			l.CreatedAt.Format("2006-01-02 15:04"), l.ProfileURL,
		)
	}
	_ = w.Flush()
}
