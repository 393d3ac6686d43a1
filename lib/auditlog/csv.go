package auditlog

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// column order is fixed and explicit, not derived from struct layout
var csvHeader = []string{
	"endpoint",
	"params",
	"status",
	"page_index",
	"kind",
	"requested_at",
	"payload",
}

// WriteCSV dumps every entry as one row per fetch attempt.
func (r *Recorder) WriteCSV(w io.Writer) error {
	out := csv.NewWriter(w)
	if err := out.Write(csvHeader); err != nil {
		return err
	}
	for _, entry := range r.entries {
		row := []string{
			entry.Endpoint,
			entry.Params,
			strconv.Itoa(entry.Status),
			strconv.Itoa(entry.PageIndex),
			string(entry.Kind),
			entry.RequestedAt.Format(time.RFC3339),
			entry.Payload,
		}
		if err := out.Write(row); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}
