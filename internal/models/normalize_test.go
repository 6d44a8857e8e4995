package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCurrencyShorthand(t *testing.T) {
	tests := []struct {
		numeral, unit, want string
	}{
		{"50", "million", "$50M"},
		{"50", "m", "$50M"},
		{"1.2", "B", "$1.2B"},
		{"1.2", "billion", "$1.2B"},
		{"750", "k", "$750K"},
		{"750", "thousand", "$750K"},
		{"10", "", "$10"},
		{"", "m", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrencyShorthand(tt.numeral, tt.unit), "%s %s", tt.numeral, tt.unit)
	}
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$1.5B", FormatUSD(1.5e9))
	assert.Equal(t, "$50M", FormatUSD(50_000_000))
	assert.Equal(t, "$12.3M", FormatUSD(12_340_000))
	assert.Equal(t, "$250K", FormatUSD(250_000))
	assert.Equal(t, "$900", FormatUSD(900))
	assert.Equal(t, "", FormatUSD(0))
}

func TestNormalizeEmployeeRange(t *testing.T) {
	assert.Equal(t, "125 (51-200)", NormalizeEmployeeRange("51-200"))
	assert.Equal(t, "3000 (1,001-5,000)", NormalizeEmployeeRange("1,001-5,000"))
	assert.Equal(t, "5 (1-10)", NormalizeEmployeeRange(" 1-10 "))
	assert.Equal(t, "10001+", NormalizeEmployeeRange("10001+"))
	assert.Equal(t, "", NormalizeEmployeeRange(""))
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "acme labs", CanonicalName("  Acme   Labs "))
}

func TestCanonicalDomain(t *testing.T) {
	tests := map[string]string{
		"https://www.Acme.com/about?x=1": "acme.com",
		"www.acme.io":                    "acme.io",
		"acme.com:8443":                  "acme.com",
		"acme.com.":                      "acme.com",
		"":                               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CanonicalDomain(in), in)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "acme-labs-inc", Slugify("Acme Labs, Inc."))
	assert.Equal(t, "stripe", Slugify("Stripe"))
}
