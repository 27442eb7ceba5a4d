package lixi

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencySuffix is appended by FormatMoneyFull
const CurrencySuffix = "đ"

var moneyPrinter = message.NewPrinter(language.Vietnamese)

// FormatMoney renders an amount compactly: values of at least 1000 are shown
// in thousands with a "k" suffix (50000 -> "50k", 1500 -> "1,5k"), smaller
// values as plain grouped numbers.
func FormatMoney(value int64) string {
	if value >= 1000 {
		if value%1000 == 0 {
			return moneyPrinter.Sprint(number.Decimal(value/1000)) + "k"
		}
		thousands := float64(value) / 1000
		return moneyPrinter.Sprint(number.Decimal(thousands, number.MaxFractionDigits(3))) + "k"
	}
	return moneyPrinter.Sprint(number.Decimal(value))
}

// FormatMoneyFull renders an amount with digit grouping and the currency
// suffix (50000 -> "50.000đ").
func FormatMoneyFull(value int64) string {
	return moneyPrinter.Sprint(number.Decimal(value)) + CurrencySuffix
}
