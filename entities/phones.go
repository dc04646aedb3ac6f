package entities

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// defaultRegion biases parsing of national-format numbers. The corpus this
// service handles is predominantly Russian paperwork.
const defaultRegion = "RU"

// extractPhones finds candidates with the regional patterns and, when the
// primary matcher capability is on, parses each through libphonenumber for
// canonical formats, country code and validity. Candidates the library
// rejects are kept raw. The patterns are ordered most specific first, and
// a candidate that is a substring of an earlier match is the same number
// re-found by a looser pattern, so it is dropped.
func (e *Extractor) extractPhones(text string) []Phone {
	phones := []Phone{}
	var accepted []string

	for _, pat := range e.phonePatterns {
		for _, raw := range pat.FindAllString(text, -1) {
			if containsAny(accepted, raw) {
				continue
			}
			accepted = append(accepted, raw)
			phones = append(phones, e.parsePhone(raw))
		}
	}
	return phones
}

func containsAny(haystacks []string, needle string) bool {
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}

func (e *Extractor) parsePhone(raw string) Phone {
	if !e.caps.PhoneMatcher {
		return Phone{Raw: raw, International: raw, National: raw, Valid: true}
	}

	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		e.logger.Debug("phone parse failed", "raw", raw, "error", err)
		return Phone{Raw: raw, International: raw, National: raw, Valid: true}
	}
	return Phone{
		Raw:           raw,
		International: phonenumbers.Format(num, phonenumbers.INTERNATIONAL),
		National:      phonenumbers.Format(num, phonenumbers.NATIONAL),
		CountryCode:   int(num.GetCountryCode()),
		Valid:         phonenumbers.IsValidNumber(num),
	}
}
