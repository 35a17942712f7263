package utils

import (
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var brlPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders v the way pt-BR displays currency amounts: "1.234,56".
// Rounding is half away from zero on the shortest decimal form of v, so
// 0.125 becomes "0,13". NaN and infinities render as "0,00".
func FormatBRL(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0,00"
	}
	// round first; the printer itself rounds half to even
	cents := decimal.NewFromFloat(v).Round(2)
	if cents.IsZero() {
		return "0,00"
	}
	return brlPrinter.Sprint(number.Decimal(cents.InexactFloat64(), number.Scale(2)))
}

// BRL prefixes FormatBRL with the currency symbol.
func BRL(v float64) string {
	return "R$" + FormatBRL(v)
}
