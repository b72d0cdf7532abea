package services

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// formatAmount renders a peso amount with grouping, e.g. "1,250.50".
func formatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// formatCurrency prefixes the amount with the peso sign.
func formatCurrency(d decimal.Decimal) string {
	return "₱" + formatAmount(d)
}
