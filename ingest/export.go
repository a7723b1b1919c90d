package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
)

var exportHeader = []string{"filename", "timestamp", "latitude", "longitude", "label", "confidence"}

// ExportCSV streams every stored record as CSV. Each call performs a fresh,
// complete scan; rows are sorted by (timestamp, filename) so exports are
// deterministic regardless of the store's natural scan order. Absent optional
// fields render as empty cells.
func (p *Pipeline) ExportCSV(ctx context.Context, w io.Writer) error {
	records, err := p.records.ScanAll(ctx)
	if err != nil {
		return &ScanError{Err: err}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Timestamp != records[j].Timestamp {
			return records[i].Timestamp < records[j].Timestamp
		}
		return records[i].Filename < records[j].Filename
	})

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, record := range records {
		row := []string{
			record.Filename,
			strconv.FormatInt(record.Timestamp, 10),
			formatOptional(record.Latitude),
			formatOptional(record.Longitude),
			record.Label,
			strconv.FormatFloat(record.Confidence, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatOptional(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
