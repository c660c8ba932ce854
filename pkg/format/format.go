package format

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var sizeUnits = []string{"B", "KB", "MB", "GB"}

var printer = message.NewPrinter(language.English)

// FileSize renders a byte count with base-1024 units and at most two decimals.
func FileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}

	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}

	value := decimal.NewFromInt(bytes).Div(decimal.NewFromFloat(math.Pow(1024, float64(i))))
	return value.Round(2).String() + " " + sizeUnits[i]
}

// Number renders v with a fixed number of decimals, rounding half away from zero.
func Number(v float64, decimals int) string {
	return decimal.NewFromFloat(v).StringFixed(int32(decimals))
}

// Signed is Number with an explicit sign; zero counts as an increase.
func Signed(v float64, decimals int) string {
	s := Number(v, decimals)
	if v >= 0 {
		return "+" + s
	}
	if !strings.HasPrefix(s, "-") {
		return "-" + s
	}
	return s
}

// Thousands renders an integer with comma grouping.
func Thousands(n int) string {
	return printer.Sprintf("%d", n)
}
