package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"countryview/internal/blob"
	"countryview/pkg/domain"
)

const csvContentType = "text/csv; charset=utf-8"

// WriteGrouping encodes countries as a grouping file and stores it at key,
// replacing any previous version. Encoding happens in memory so a failure
// never leaves a truncated blob behind.
func WriteGrouping(ctx context.Context, store blob.Store, key string, countries []domain.Country) (blob.Info, error) {
	records := make([][]string, 0, len(countries))
	for _, c := range countries {
		records = append(records, c.GroupingRecord())
	}
	data, err := encodeCSV(domain.GroupingColumns(), records)
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return blob.Replace(ctx, store, key, data, blob.PutOptions{
		ContentType: csvContentType,
		Metadata:    map[string]string{"rows": strconv.Itoa(len(records))},
	})
}

func encodeCSV(header []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
