package entities

import (
	"fmt"
	"strconv"
	"strings"
)

// Currency resolution order matters: USD and EUR markers are checked
// first, everything else defaults to RUB (the corpus baseline).
var currencyMarkers = []struct {
	currency string
	tokens   []string
}{
	{"USD", []string{"usd", "доллар", "$"}},
	{"EUR", []string{"eur", "евро", "€"}},
}

// extractMoney matches the combined amount pattern (optional currency
// token on either side). Amount parse failure keeps the raw match with a
// nil amount. Deduplicated by raw string.
func (e *Extractor) extractMoney(text string) []Money {
	money := []Money{}
	seen := map[string]struct{}{}

	for _, m := range e.money.FindAllStringSubmatch(text, -1) {
		raw := strings.TrimSpace(m[0])
		if raw == "" {
			continue
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}

		currency := "RUB"
		lower := strings.ToLower(raw)
		for _, cm := range currencyMarkers {
			for _, tok := range cm.tokens {
				if strings.Contains(lower, tok) {
					currency = cm.currency
					break
				}
			}
			if currency != "RUB" {
				break
			}
		}

		entry := Money{Raw: raw, Currency: currency, Formatted: raw}
		if amount, err := parseAmount(m[1]); err == nil {
			entry.Amount = &amount
			entry.Formatted = fmt.Sprintf("%.2f %s", amount, currency)
		}
		money = append(money, entry)
	}
	return money
}

// parseAmount strips everything but digits and the decimal dot, treating
// a comma followed by exactly two digits as a decimal comma.
func parseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, ','); i >= 0 && len(s)-i == 3 {
		s = s[:i] + "." + s[i+1:]
	}
	var sb strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			sb.WriteRune(r)
		}
	}
	return strconv.ParseFloat(sb.String(), 64)
}
