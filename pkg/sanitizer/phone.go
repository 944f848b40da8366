package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegions are tried in order when a number has no country prefix.
var DefaultRegions = []string{"US", "GB", "ES", "FR", "DE", "IL"}

// NormalizePhone returns the E.164 form of phone, or "" when it cannot be
// parsed as a valid number in any of DefaultRegions.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range DefaultRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsedNumber) {
			continue
		}
		return phonenumbers.Format(parsedNumber, phonenumbers.E164)
	}
	return ""
}
