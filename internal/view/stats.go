package view

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"countryview/pkg/domain"
)

// GroupCount is the number of records carrying one group label.
type GroupCount struct {
	Group string
	Count int
}

// Stats summarizes the master collection.
type Stats struct {
	Total          int
	MostPopulous   domain.Country
	LeastPopulous  domain.Country
	MeanPopulation decimal.Decimal
	MeanArea       decimal.Decimal
	Groups         []GroupCount // ascending by label
}

// ComputeStats aggregates master. Ties for most or least populous go to the
// earliest record. An empty collection yields domain.ErrEmptyDataset.
func ComputeStats(master []domain.Country) (Stats, error) {
	if len(master) == 0 {
		return Stats{}, fmt.Errorf("compute statistics: %w", domain.ErrEmptyDataset)
	}
	maxIdx, minIdx := 0, 0
	popSum, areaSum := decimal.Zero, decimal.Zero
	counts := make(map[string]int)
	for i, c := range master {
		if c.Population > master[maxIdx].Population {
			maxIdx = i
		}
		if c.Population < master[minIdx].Population {
			minIdx = i
		}
		popSum = popSum.Add(decimal.NewFromInt(c.Population))
		areaSum = areaSum.Add(decimal.NewFromInt(c.Area))
		counts[c.Group]++
	}
	n := decimal.NewFromInt(int64(len(master)))
	groups := make([]GroupCount, 0, len(counts))
	for g, cnt := range counts {
		groups = append(groups, GroupCount{Group: g, Count: cnt})
	}
	slices.SortFunc(groups, func(a, b GroupCount) int { return strings.Compare(a.Group, b.Group) })
	return Stats{
		Total:          len(master),
		MostPopulous:   master[maxIdx],
		LeastPopulous:  master[minIdx],
		MeanPopulation: popSum.Div(n),
		MeanArea:       areaSum.Div(n),
		Groups:         groups,
	}, nil
}
