package jobtop

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/prometheus/common/model"
)

type staticFetcher struct {
	resp *MetricsResponse
	err  error
}

func (f staticFetcher) Fetch(ctx context.Context, period string) (*MetricsResponse, error) {
	return f.resp, f.err
}

func exportConfig() Config {
	schema, _ := LookupSchema("cpu4")
	return Config{Cluster: "c1", Job: "42", Period: "24h", Schema: schema}
}

func exportFetcher() staticFetcher {
	return staticFetcher{resp: &MetricsResponse{Data: RawBatch{
		{Timestamp: 1000, Values: []float64{10, 20, 30, 40, MiB}},
		{Timestamp: 2000, Values: []float64{11, 21, 31, 41, 2 * MiB}},
	}}}
}

func TestExportParquetRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	n, err := NewExporter(exportConfig(), exportFetcher()).WithOffset(0).Export(context.Background(), &buf, FormatParquet)
	if err != nil {
		t.Fatal(err)
	}
	if n != 10 {
		t.Fatalf("wrote %d rows, want 10", n)
	}

	rows, err := parquet.Read[ExportRow](bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 10 {
		t.Fatalf("read %d rows", len(rows))
	}
	if rows[0] != (ExportRow{Series: "cpu_system", Label: "cpu system", Timestamp: 1000, Value: 10}) {
		t.Errorf("first row = %+v", rows[0])
	}
	last := rows[9]
	if last.Series != "memory_pss" || last.Timestamp != 2000 || last.Value != 2 {
		t.Errorf("last row = %+v", last)
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewExporter(exportConfig(), exportFetcher()).WithOffset(0).Export(context.Background(), &buf, FormatCSV); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 11 {
		t.Fatalf("got %d records", len(records))
	}
	if got := records[0]; got[0] != "series" || got[2] != "timestamp_ms" {
		t.Errorf("header = %v", got)
	}
	if got := records[3]; got[0] != "cpu_iowait" || got[2] != "1000" || got[3] != "40" {
		t.Errorf("row 3 = %v", got)
	}
}

func TestExportErrors(t *testing.T) {
	var buf bytes.Buffer
	fail := staticFetcher{err: &NetworkError{Status: 404, Message: "job not found"}}
	_, err := NewExporter(exportConfig(), fail).Export(context.Background(), &buf, FormatCSV)
	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.Status != 404 {
		t.Errorf("err = %v", err)
	}

	if _, err := NewExporter(exportConfig(), exportFetcher()).Export(context.Background(), &buf, "xlsx"); err == nil {
		t.Error("unknown format accepted")
	}
	if buf.Len() != 0 {
		t.Error("failed exports wrote output")
	}
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]string{
		"job.parquet": FormatParquet,
		"JOB.PARQUET": FormatParquet,
		"job.csv":     FormatCSV,
		"job":         FormatCSV,
	} {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestExportRowsTimestamps(t *testing.T) {
	rows := ExportRows([]MetricSeries{{Name: "a", Points: []Point{{Timestamp: model.Time(5), Value: 1}}}})
	if len(rows) != 1 || rows[0].Timestamp != 5 {
		t.Errorf("rows = %+v", rows)
	}
}
