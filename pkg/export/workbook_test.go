package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func descriptor(group string, labels []string, data []float64) domain.ChartDescriptor {
	return domain.ChartDescriptor{
		Group: group,
		Series: domain.ChartSeries{
			Labels:   labels,
			Datasets: []domain.ChartDataset{{Label: "Variation", Data: data}},
		},
	}
}

func TestWrite(t *testing.T) {
	charts := []domain.ChartDescriptor{
		descriptor("Retail", []string{"TOTAL GROUP", "A", "B"}, []float64{0, 2, -2}),
		descriptor("Corporate/Large", []string{"C", "TOTAL GROUP"}, []float64{-1, -1}),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, charts))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	assert.Equal(t, []string{"Retail", "Corporate Large"}, wb.GetSheetList())

	rows, err := wb.GetRows("Retail")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Group", "Metier", "Variation"},
		{"Retail", "TOTAL GROUP", "0"},
		{"Retail", "A", "2"},
		{"Retail", "B", "-2"},
	}, rows)

	rows, err = wb.GetRows("Corporate Large")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Corporate/Large", "C", "-1"}, rows[1])
}

func TestWrite_NoCharts(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, nil), ErrNoCharts)
	assert.Zero(t, buf.Len())
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		name   string
		groups []string
		want   []string
	}{
		{
			name:   "forbidden characters",
			groups: []string{"A:B?[C]"},
			want:   []string{"A B (C)"},
		},
		{
			name:   "empty group",
			groups: []string{"  "},
			want:   []string{"Charts"},
		},
		{
			name:   "duplicates are numbered",
			groups: []string{"Retail", "retail"},
			want:   []string{"Retail", "retail (2)"},
		},
		{
			name:   "long names are truncated",
			groups: []string{strings.Repeat("x", 40), strings.Repeat("x", 40)},
			want:   []string{strings.Repeat("x", 31), strings.Repeat("x", 27) + " (2)"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			used := map[string]int{}
			var got []string
			for _, g := range tc.groups {
				got = append(got, sheetName(g, used))
			}
			assert.Equal(t, tc.want, got)
		})
	}
}
