package sanitizer

import (
	"strconv"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "IN"

// NormalizeMobile reduces a mobile number to its national significant number,
// so "+91 98765-43210" and "098765 43210" both become "9876543210". Input that
// does not parse is only stripped of separators.
func NormalizeMobile(phone, region string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil || parsed.GetNationalNumber() == 0 {
		return DigitsOnly(phone)
	}
	return strconv.FormatUint(parsed.GetNationalNumber(), 10)
}
