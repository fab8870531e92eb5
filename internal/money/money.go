// Package money cleans monetary cells exported with currency symbols and
// thousands separators into decimals.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var stripper = strings.NewReplacer(
	"₱", "",
	"PHP", "",
	"Php", "",
	"$", "",
	",", "",
	"-", "",
	" ", "",
	" ", "",
)

// Parse strips currency symbols, thousands separators and dashes and reads
// the remainder as a decimal. Anything unreadable is zero.
func Parse(value string) decimal.Decimal {
	s := strings.TrimSpace(stripper.Replace(value))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func Clean(value string) string {
	return Parse(value).String()
}

// Positive reports whether the cleaned value is greater than zero.
func Positive(value string) bool {
	return Parse(value).IsPositive()
}
