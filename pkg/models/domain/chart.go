package domain

// ChartDataset follows the dataset layout expected by the page's charting library.
type ChartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderColor     []string  `json:"borderColor"`
	BorderWidth     []int     `json:"borderWidth"`
}

type ChartSeries struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

// ChartDescriptor is a pending chart construction handed to the page after mount.
type ChartDescriptor struct {
	CanvasID string      `json:"canvas_id"`
	Group    string      `json:"group"`
	Series   ChartSeries `json:"series"`
}
