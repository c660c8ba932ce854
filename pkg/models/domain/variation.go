package domain

type Trend string

const (
	TrendIncrease Trend = "increase"
	TrendDecrease Trend = "decrease"
)

// VariationCard is the view of one prior/current/delta triple.
type VariationCard struct {
	Title    string
	Previous string
	Current  string
	Delta    string
	Trend    Trend
	ColorCSS string
	IconCSS  string
	Unit     string
}
