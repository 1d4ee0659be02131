package cart

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// priceLabelPattern matches a free-text price label: an optional short
// currency prefix (letters or a currency symbol) followed by a numeric run
// with optional comma thousands separators and an optional decimal part.
// Examples: "RM 1,200", "USD 288", "$49.90". "Contact us" does not match.
var priceLabelPattern = regexp.MustCompile(`^([A-Za-z]{1,5}|[$£€¥])?\s*(\d[\d,]*(?:\.\d+)?)`)

// ParsePriceLabel parses a price label into a currency code and an amount in
// minor units. Unparsable labels return ok=false and are excluded from
// totals rather than treated as errors.
func ParsePriceLabel(label string) (currency string, amountMinor int64, ok bool) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return "", 0, false
	}

	match := priceLabelPattern.FindStringSubmatch(trimmed)
	if match == nil {
		return "", 0, false
	}

	currency = strings.TrimSpace(match[1])
	numeric := strings.ReplaceAll(match[2], ",", "")

	intPart := numeric
	fracPart := ""
	if dot := strings.IndexByte(numeric, '.'); dot >= 0 {
		intPart = numeric[:dot]
		fracPart = numeric[dot+1:]
	}

	major, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return "", 0, false
	}
	amountMinor = major * 100

	// Keep at most two fractional digits; anything beyond cent precision is
	// not representable on a price label and is truncated.
	if len(fracPart) > 2 {
		fracPart = fracPart[:2]
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	if fracPart != "00" {
		cents, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return "", 0, false
		}
		amountMinor += cents
	}

	return currency, amountMinor, true
}

// FormatAmountMinor renders a minor-unit amount as a major-unit decimal
// string, e.g. 120000 -> "1200.00".
func FormatAmountMinor(amountMinor int64) string {
	sign := ""
	if amountMinor < 0 {
		sign = "-"
		amountMinor = -amountMinor
	}
	return fmt.Sprintf("%s%d.%02d", sign, amountMinor/100, amountMinor%100)
}
