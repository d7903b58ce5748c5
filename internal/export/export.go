// Package export writes leads as CSV or XLSX for use outside the agent.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/lead-agent/internal/model"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat returns the Format for s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("export: unknown format %q (want csv or xlsx)", s)
	}
}

// Header is the column order of every export.
var Header = []string{
	"name", "platform", "profile_url", "location", "score", "status",
	"contact_method", "tags", "created_at", "last_contact", "content",
}

// SheetName is the worksheet XLSX exports write to.
const SheetName = "Leads"

// Row flattens l into Header order.
func Row(l model.Lead) []string {
	last := ""
	if l.LastContact != nil {
		last = l.LastContact.Format(time.RFC3339)
	}
	return []string{
		l.Name,
		string(l.Platform),
		l.ProfileURL,
		l.Location,
		strconv.Itoa(l.Score),
		string(l.Status),
		l.ContactMethod,
		strings.Join(l.Tags, ";"),
		l.CreatedAt.Format(time.RFC3339),
		last,
		l.Content,
	}
}

// WriteCSV writes a header row and one row per lead.
func WriteCSV(w io.Writer, leads []model.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, l := range leads {
		if err := cw.Write(Row(l)); err != nil {
			return eris.Wrapf(err, "export: write csv row %s", l.ProfileURL)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// WriteXLSX writes leads to a single-sheet workbook at path. Scores are
// stored as numbers so the sheet can be sorted.
func WriteXLSX(path string, leads []model.Lead) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range Header {
		header.AddCell().SetString(h)
	}

	for _, l := range leads {
		row := sheet.AddRow()
		for i, v := range Row(l) {
			cell := row.AddCell()
			if Header[i] == "score" {
				cell.SetInt(l.Score)
				continue
			}
			cell.SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}
