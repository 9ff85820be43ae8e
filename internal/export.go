package jobtop

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

// ExportRow is one point of one series in long format.
type ExportRow struct {
	Series    string  `parquet:"series,dict"`
	Label     string  `parquet:"label,dict"`
	Timestamp int64   `parquet:"timestamp_ms"`
	Value     float64 `parquet:"value"`
}

const (
	FormatParquet = "parquet"
	FormatCSV     = "csv"
)

// FormatFromPath picks the export format from a file extension, falling
// back to CSV.
func FormatFromPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".parquet") {
		return FormatParquet
	}
	return FormatCSV
}

// ExportRows flattens series into rows, series by series.
func ExportRows(series []MetricSeries) []ExportRow {
	var rows []ExportRow
	for _, s := range series {
		for _, p := range s.Points {
			rows = append(rows, ExportRow{
				Series:    s.Name,
				Label:     s.Label,
				Timestamp: int64(p.Timestamp),
				Value:     p.Value,
			})
		}
	}
	return rows
}

func WriteParquet(w io.Writer, rows []ExportRow) error {
	pw := parquet.NewGenericWriter[ExportRow](w, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(rows); err != nil {
		pw.Close()
		return fmt.Errorf("writing parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}

func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"series", "label", "timestamp_ms", "value"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Series,
			r.Label,
			strconv.FormatInt(r.Timestamp, 10),
			strconv.FormatFloat(r.Value, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Exporter runs a single poll and writes what it normalized.
type Exporter struct {
	fetcher Fetcher
	cfg     Config
	offset  time.Duration
}

func NewExporter(cfg Config, fetcher Fetcher) *Exporter {
	return &Exporter{fetcher: fetcher, cfg: cfg, offset: LocalUTCOffset()}
}

// WithOffset overrides the timezone shift applied to timestamps.
func (e *Exporter) WithOffset(offset time.Duration) *Exporter {
	e.offset = offset
	return e
}

// Export fetches the configured period once and writes it to w in format.
// It returns the number of rows written.
func (e *Exporter) Export(ctx context.Context, w io.Writer, format string) (int, error) {
	resp, err := e.fetcher.Fetch(ctx, e.cfg.Period)
	if err != nil {
		return 0, err
	}
	series, err := Normalize(resp.Data, e.cfg.Schema, e.cfg.Visibility, e.offset)
	if err != nil {
		return 0, err
	}
	rows := ExportRows(series)

	switch format {
	case FormatParquet:
		err = WriteParquet(w, rows)
	case FormatCSV:
		err = WriteCSV(w, rows)
	default:
		return 0, fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return 0, err
	}
	log.Printf("exported %d rows of %d series (%s, %s)", len(rows), len(series), e.cfg.Period, format)
	return len(rows), nil
}
