package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"

	"countryview/internal/blob"
	"countryview/internal/config"
	"countryview/pkg/domain"
)

// ErrNothingToMerge is returned when no grouping file exists under the prefix.
var ErrNothingToMerge = errors.New("no grouping files to merge")

// MergeReport summarizes a successful merge.
type MergeReport struct {
	Key    string   // merged blob key
	Inputs []string // grouping file keys, in merge order
	Rows   int
}

// Merge concatenates every grouping file under layout.Prefix into the merged
// file, appending the group label column. Inputs are read in ascending key
// order; every file must carry the header of the first one.
func Merge(ctx context.Context, store blob.Store, layout config.Data) (MergeReport, error) {
	mergedKey := layout.MergedKey()
	inputs, err := groupingKeys(ctx, store, layout.Prefix, mergedKey)
	if err != nil {
		return MergeReport{}, err
	}
	if len(inputs) == 0 {
		return MergeReport{}, ErrNothingToMerge
	}
	var header []string
	var rows [][]string
	for _, key := range inputs {
		h, records, err := readCSV(ctx, store, key)
		if err != nil {
			return MergeReport{}, err
		}
		if header == nil {
			header = h
		} else if !slices.Equal(header, h) {
			return MergeReport{}, fmt.Errorf("%w: %s has %v, expected %v", domain.ErrHeaderMismatch, key, h, header)
		}
		label := GroupLabel(key)
		for _, r := range records {
			rows = append(rows, append(r, label))
		}
	}
	out := append(slices.Clone(header), domain.ColumnGroup)
	data, err := encodeCSV(out, rows)
	if err != nil {
		return MergeReport{}, fmt.Errorf("encode %s: %w", mergedKey, err)
	}
	if _, err := blob.Replace(ctx, store, mergedKey, data, blob.PutOptions{
		ContentType: csvContentType,
		Metadata:    map[string]string{"rows": strconv.Itoa(len(rows)), "inputs": strconv.Itoa(len(inputs))},
	}); err != nil {
		return MergeReport{}, err
	}
	return MergeReport{Key: mergedKey, Inputs: inputs, Rows: len(rows)}, nil
}

// GroupLabel derives a record's group from its grouping file key: the base
// name without extension.
func GroupLabel(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}

// groupingKeys lists direct children of prefix ending in .csv, excluding the
// merged file itself.
func groupingKeys(ctx context.Context, store blob.Store, prefix, mergedKey string) ([]string, error) {
	infos, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	var keys []string
	for _, info := range infos {
		rest := strings.TrimPrefix(info.Key, prefix)
		if info.Key == mergedKey || strings.Contains(rest, "/") || !strings.EqualFold(path.Ext(rest), ".csv") {
			continue
		}
		keys = append(keys, info.Key)
	}
	slices.Sort(keys)
	return keys, nil
}

func readCSV(ctx context.Context, store blob.Store, key string) ([]string, [][]string, error) {
	data, err := blob.ReadAll(ctx, store, key)
	if err != nil {
		return nil, nil, &domain.ReadError{Key: key, Err: err}
	}
	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, &domain.ReadError{Key: key, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, nil, &domain.ReadError{Key: key, Err: err}
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, &domain.ReadError{Key: key, Err: err}
	}
	return header, records, nil
}
