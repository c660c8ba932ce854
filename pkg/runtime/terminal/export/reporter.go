package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/alm-console/pkg/format"
	"github.com/de-tools/alm-console/pkg/models/domain"
	"github.com/fatih/color"
)

type TableConfig struct {
	LabelWidth int
	ValueWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		LabelWidth: 40,
		ValueWidth: 14,
	}
}

// Summary is the terminal view of one analysis run.
type Summary struct {
	Mode          domain.AcquisitionMode
	Date          string
	Uploads       []domain.UploadStatus
	Variations    []domain.VariationCard
	Charts        []domain.ChartDescriptor
	Notifications []format.Notification
	Outputs       []string
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

var (
	heading  = color.New(color.FgCyan, color.Bold).SprintFunc()
	positive = color.New(color.FgGreen).SprintFunc()
	negative = color.New(color.FgRed).SprintFunc()
	muted    = color.New(color.Faint).SprintFunc()
)

func notice(n format.Notification) string {
	switch n.Level {
	case format.LevelSuccess:
		return positive("✔ " + n.Message)
	case format.LevelError:
		return negative("✘ " + n.Message)
	case format.LevelWarning:
		return color.YellowString("! " + n.Message)
	default:
		return "• " + n.Message
	}
}

func trend(card domain.VariationCard) string {
	if card.Trend == domain.TrendDecrease {
		return negative(card.Delta)
	}
	return positive(card.Delta)
}

func (c *Reporter) Handle(summary *Summary) error {
	funcMap := template.FuncMap{
		"heading": heading,
		"muted":   muted,
		"notice":  notice,
		"trend":   trend,
		"formatRow": func(label string, value interface{}) string {
			return fmt.Sprintf("| %-*s | %*v |",
				c.config.LabelWidth, label,
				c.config.ValueWidth, value)
		},
		"barRow": func(label string, value float64) string {
			v := fmt.Sprintf("%*s", c.config.ValueWidth, format.Signed(value, 3))
			if value < 0 {
				v = negative(v)
			} else {
				v = positive(v)
			}
			return fmt.Sprintf("| %-*s | %s |", c.config.LabelWidth, label, v)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+",
				strings.Repeat("-", c.config.LabelWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2))
		},
		"values": func(d domain.ChartDescriptor) []float64 {
			if len(d.Series.Datasets) == 0 {
				return nil
			}
			return d.Series.Datasets[0].Data
		},
		"at": func(values []float64, i int) float64 {
			if i < len(values) {
				return values[i]
			}
			return 0
		},
		"thousands": format.Thousands,
	}

	tmpl := `
{{heading "LCR analysis"}} ({{.Mode}}{{if .Date}} {{.Date}}{{end}})
{{range .Uploads}}
{{.Slot}}: {{.FileName}} {{muted (printf "%s rows, %d columns" (thousands .Rows) .Columns)}}{{end}}
{{if .Variations}}
=== {{heading "Variations"}} ===
{{range .Variations}}
{{.Title}}: {{.Previous}} -> {{.Current}} {{.Unit}} ({{trend .}} {{.Unit}}){{end}}
{{end}}
{{range .Charts}}{{$values := values .}}
=== {{heading .Group}} ===
{{separator}}
{{formatRow "Metier" "Variation (Bn €)"}}
{{separator}}
{{range $i, $label := .Series.Labels}}{{barRow $label (at $values $i)}}
{{end}}{{separator}}
{{end}}
{{range .Notifications}}{{notice .}}
{{end}}{{range .Outputs}}{{muted "wrote"}} {{.}}
{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, summary)
}
