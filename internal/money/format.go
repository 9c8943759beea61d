// Package money formats currency amounts for display.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// USD renders an amount as "$1,234.56".
func USD(d decimal.Decimal) string {
	return "$" + printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

func USDFloat(f float64) string {
	return USD(decimal.NewFromFloat(f))
}

// Count renders an integer with thousands separators.
func Count[T ~int | ~int64](n T) string {
	return printer.Sprintf("%d", n)
}

// Percent renders a percentage with two decimals, as shown in the preview table.
func Percent(f float64) string {
	return printer.Sprintf("%.2f", f) + "%"
}
