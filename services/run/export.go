package run

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"time"
)

// the stable export layout; any extra per-source fields follow in
// sorted order so two runs over the same sources produce identical
// headers
var baseColumns = []string{"headline", "summary", "body", "date", "author"}

func (r *Run) columns() []string {
	base := map[string]bool{}
	for _, col := range baseColumns {
		base[col] = true
	}

	extraSet := map[string]bool{}
	for _, record := range r.records {
		for field := range record.Fields {
			if !base[field] {
				extraSet[field] = true
			}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for field := range extraSet {
		extras = append(extras, field)
	}
	sort.Strings(extras)

	columns := []string{"id", "source"}
	columns = append(columns, baseColumns...)
	columns = append(columns, extras...)
	columns = append(columns, "extracted_at")
	return columns
}

// WriteCSV writes the result set, one row per record, rows in
// discovery order.
func (r *Run) WriteCSV(w io.Writer) error {
	columns := r.columns()

	out := csv.NewWriter(w)
	if err := out.Write(columns); err != nil {
		return err
	}

	for _, record := range r.records {
		row := make([]string, len(columns))
		for i, col := range columns {
			switch col {
			case "id":
				row[i] = record.ID
			case "source":
				row[i] = record.Source
			case "extracted_at":
				row[i] = record.ExtractedAt.Format(time.RFC3339)
			default:
				row[i] = record.Fields[col]
			}
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

type jsonRecord struct {
	Source      string            `json:"source"`
	ExtractedAt string            `json:"extracted_at"`
	Fields      map[string]string `json:"fields"`
}

// WriteJSON mirrors the identifier-to-fields mapping.
func (r *Run) WriteJSON(w io.Writer) error {
	mapping := make(map[string]jsonRecord, len(r.records))
	for _, record := range r.records {
		mapping[record.ID] = jsonRecord{
			Source:      record.Source,
			ExtractedAt: record.ExtractedAt.Format(time.RFC3339),
			Fields:      record.Fields,
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(mapping)
}
