// Package charts reshapes per-business-line time series into bar chart datasets.
package charts

import (
	"fmt"
	"sort"

	"github.com/de-tools/alm-console/pkg/models/api"
	"github.com/de-tools/alm-console/pkg/models/domain"
)

const (
	TotalLabel = "TOTAL GROUP"

	TotalColor       = "rgba(118, 39, 155, 0.8)"
	TotalBorderColor = "rgba(118, 39, 155, 1)"
	IncreaseColor    = "rgba(40, 167, 69, 0.7)"
	IncreaseBorder   = "rgba(40, 167, 69, 1)"
	DecreaseColor    = "rgba(220, 53, 69, 0.7)"
	DecreaseBorder   = "rgba(220, 53, 69, 1)"

	totalBorderWidth = 3
	barBorderWidth   = 2
)

// SubUnit is one Métier of a group with its two period values.
type SubUnit struct {
	Name      string
	JMinus1   float64
	J         float64
	Variation float64
}

// CanvasID is the element id of the chart drawn for the group at index.
func CanvasID(index int) string {
	return fmt.Sprintf("metier-chart-%d", index)
}

// SubUnits merges both periods of one group, prior period first, in first-seen order.
func SubUnits(group string, details *api.MetierDetails) []SubUnit {
	if details == nil {
		return nil
	}

	index := make(map[string]int)
	var units []SubUnit

	for _, row := range details.JMinus1 {
		if row.Group != group {
			continue
		}
		if i, ok := index[row.Metier]; ok {
			units[i].JMinus1 = row.ImpactBn
			continue
		}
		index[row.Metier] = len(units)
		units = append(units, SubUnit{Name: row.Metier, JMinus1: row.ImpactBn})
	}

	for _, row := range details.J {
		if row.Group != group {
			continue
		}
		if i, ok := index[row.Metier]; ok {
			units[i].J = row.ImpactBn
			continue
		}
		index[row.Metier] = len(units)
		units = append(units, SubUnit{Name: row.Metier, J: row.ImpactBn})
	}

	for i := range units {
		units[i].Variation = units[i].J - units[i].JMinus1
	}
	return units
}

// Prepare builds the variation bar chart of one group. It returns false when
// the group has no rows in either period.
func Prepare(group string, details *api.MetierDetails) (domain.ChartSeries, bool) {
	units := SubUnits(group, details)
	if len(units) == 0 {
		return domain.ChartSeries{}, false
	}

	var total float64
	for _, u := range units {
		total += u.Variation
	}

	sort.SliceStable(units, func(a, b int) bool {
		return units[a].Variation > units[b].Variation
	})

	n := len(units) + 1
	ds := domain.ChartDataset{
		Label:           group,
		Data:            make([]float64, 0, n),
		BackgroundColor: make([]string, 0, n),
		BorderColor:     make([]string, 0, n),
		BorderWidth:     make([]int, 0, n),
	}
	labels := make([]string, 0, n)

	appendTotal := func() {
		labels = append(labels, TotalLabel)
		ds.Data = append(ds.Data, total)
		ds.BackgroundColor = append(ds.BackgroundColor, TotalColor)
		ds.BorderColor = append(ds.BorderColor, TotalBorderColor)
		ds.BorderWidth = append(ds.BorderWidth, totalBorderWidth)
	}

	if total >= 0 {
		appendTotal()
	}
	for _, u := range units {
		bg, border := IncreaseColor, IncreaseBorder
		if u.Variation < 0 {
			bg, border = DecreaseColor, DecreaseBorder
		}
		labels = append(labels, u.Name)
		ds.Data = append(ds.Data, u.Variation)
		ds.BackgroundColor = append(ds.BackgroundColor, bg)
		ds.BorderColor = append(ds.BorderColor, border)
		ds.BorderWidth = append(ds.BorderWidth, barBorderWidth)
	}
	if total < 0 {
		appendTotal()
	}

	return domain.ChartSeries{
		Labels:   labels,
		Datasets: []domain.ChartDataset{ds},
	}, true
}

// PrepareAll returns one descriptor per group with data. Canvas ids follow the
// position of the group in groups, so skipped groups leave gaps.
func PrepareAll(groups []string, details *api.MetierDetails) []domain.ChartDescriptor {
	var out []domain.ChartDescriptor
	for i, group := range groups {
		series, ok := Prepare(group, details)
		if !ok {
			continue
		}
		out = append(out, domain.ChartDescriptor{
			CanvasID: CanvasID(i),
			Group:    group,
			Series:   series,
		})
	}
	return out
}
