// Package export writes prepared chart series to spreadsheet workbooks.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxSheetName = 31
	emptySheet   = "Charts"
)

var ErrNoCharts = errors.New("no charts to export")

var sheetReplacer = strings.NewReplacer(
	":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// Workbook builds a workbook with one sheet per chart. Each sheet lists the
// bar labels and their variation in chart order.
func Workbook(charts []domain.ChartDescriptor) (*excelize.File, error) {
	if len(charts) == 0 {
		return nil, ErrNoCharts
	}

	wb := excelize.NewFile()
	defaultSheet := wb.GetSheetName(0)
	used := make(map[string]int, len(charts))

	for i, chart := range charts {
		name := sheetName(chart.Group, used)
		if i == 0 {
			if err := wb.SetSheetName(defaultSheet, name); err != nil {
				return nil, fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := wb.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSeries(wb, name, chart); err != nil {
			return nil, err
		}
	}

	wb.SetActiveSheet(0)
	return wb, nil
}

// Write renders the workbook for charts into w.
func Write(w io.Writer, charts []domain.ChartDescriptor) error {
	wb, err := Workbook(charts)
	if err != nil {
		return err
	}
	defer func() { _ = wb.Close() }()

	if err := wb.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSeries(wb *excelize.File, sheet string, chart domain.ChartDescriptor) error {
	header := []interface{}{"Group", "Metier", "Variation"}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}

	var values []float64
	if len(chart.Series.Datasets) > 0 {
		values = chart.Series.Datasets[0].Data
	}

	for i, label := range chart.Series.Labels {
		var value float64
		if i < len(values) {
			value = values[i]
		}
		row := []interface{}{chart.Group, label, value}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+2, sheet, err)
		}
	}

	return wb.SetColWidth(sheet, "A", "B", 28)
}

func sheetName(group string, used map[string]int) string {
	name := strings.TrimSpace(sheetReplacer.Replace(group))
	name = strings.Trim(name, "'")
	if name == "" {
		name = emptySheet
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}

	key := strings.ToLower(name)
	used[key]++
	if n := used[key]; n > 1 {
		suffix := fmt.Sprintf(" (%d)", n)
		r := []rune(name)
		if len(r)+len(suffix) > maxSheetName {
			r = r[:maxSheetName-len(suffix)]
		}
		name = string(r) + suffix
		used[strings.ToLower(name)]++
	}
	return name
}
