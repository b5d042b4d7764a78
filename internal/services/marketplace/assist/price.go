package assist

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var firstNumber = regexp.MustCompile(`[\d.]+`)

// ExtractPrice reads the first number in text as a per-kg price and returns
// it multiplied by weight, rounded to two decimals. Text without a usable
// number yields zero.
func ExtractPrice(text string, weight decimal.Decimal) decimal.Decimal {
	match := firstNumber.FindString(text)
	if match == "" {
		return decimal.Zero
	}
	// Keep the leading well-formed part: "12.5.3" reads as 12.5.
	if first := strings.IndexByte(match, '.'); first >= 0 {
		if second := strings.IndexByte(match[first+1:], '.'); second >= 0 {
			match = match[:first+1+second]
		}
	}
	match = strings.TrimSuffix(match, ".")
	if match == "" {
		return decimal.Zero
	}
	perKg, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero
	}
	return perKg.Mul(weight).Round(2)
}
