package utils

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatIDR renders an amount as rupiah with Indonesian digit grouping, e.g. "Rp 300.000.000"
func FormatIDR(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "-"
	}
	return idPrinter.Sprintf("Rp %d", int64(math.Round(amount)))
}

// FormatIDRShort renders a compact amount: "Rp 1,5 M" or "Rp 300 jt"
func FormatIDRShort(amount float64) string {
	switch {
	case math.IsNaN(amount) || math.IsInf(amount, 0):
		return "-"
	case math.Abs(amount) >= 1e9:
		return idPrinter.Sprintf("Rp %.1f M", amount/1e9)
	case math.Abs(amount) >= 1e6:
		return idPrinter.Sprintf("Rp %d jt", int64(math.Round(amount/1e6)))
	default:
		return FormatIDR(amount)
	}
}
