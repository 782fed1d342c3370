package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// FormatCents renders an integer cent amount as a euro string, e.g. 1700 -> "17.00 €".
// All arithmetic elsewhere stays in integer cents; this is display only.
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(hundred).StringFixed(2) + " €"
}
