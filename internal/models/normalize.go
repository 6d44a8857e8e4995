package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FormatCurrencyShorthand renders a captured numeral and unit as "$50M".
// The unit is reduced to its upper-cased initial; no conversion happens
// between units. An unknown unit leaves the bare "$numeral".
func FormatCurrencyShorthand(numeral, unit string) string {
	numeral = strings.TrimSpace(numeral)
	if numeral == "" {
		return ""
	}
	suffix := ""
	switch u := strings.ToLower(strings.TrimSpace(unit)); {
	case strings.HasPrefix(u, "k"), strings.HasPrefix(u, "thousand"):
		suffix = "K"
	case strings.HasPrefix(u, "m"):
		suffix = "M"
	case strings.HasPrefix(u, "b"):
		suffix = "B"
	}
	return "$" + numeral + suffix
}

// FormatUSD renders a structured dollar amount in the same shorthand, e.g.
// 1.5e9 as "$1.5B". Non-positive amounts are unknown.
func FormatUSD(amount float64) string {
	if amount <= 0 {
		return ""
	}
	var value float64
	var suffix string
	switch {
	case amount >= 1e9:
		value, suffix = amount/1e9, "B"
	case amount >= 1e6:
		value, suffix = amount/1e6, "M"
	case amount >= 1e3:
		value, suffix = amount/1e3, "K"
	default:
		return fmt.Sprintf("$%.0f", amount)
	}
	s := strconv.FormatFloat(value, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return "$" + s + suffix
}

var employeeRangeRe = regexp.MustCompile(`^\s*(\d[\d,]*)\s*(?:-|–|to)\s*(\d[\d,]*)\s*$`)

// NormalizeEmployeeRange turns "51-200" into "125 (51-200)". The midpoint is
// truncated toward zero. Any other non-empty input is returned trimmed.
func NormalizeEmployeeRange(s string) string {
	s = strings.TrimSpace(s)
	m := employeeRangeRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	lo, err1 := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	hi, err2 := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
	if err1 != nil || err2 != nil {
		return s
	}
	return fmt.Sprintf("%d (%s)", (lo+hi)/2, s)
}

// FormatEmployeeCount renders a positive head count, empty otherwise.
func FormatEmployeeCount(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// TruncateDescription caps s at MaxDescriptionLength runes.
func TruncateDescription(s string) string {
	if utf8.RuneCountInString(s) <= MaxDescriptionLength {
		return s
	}
	return string([]rune(s)[:MaxDescriptionLength])
}

// CanonicalName lower-cases a company name and collapses inner whitespace.
func CanonicalName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// CanonicalDomain lower-cases a host and strips scheme, "www.", port and path.
func CanonicalDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, "@"); i >= 0 {
		d = d[i+1:]
	}
	if host, _, ok := strings.Cut(d, ":"); ok {
		d = host
	}
	d = strings.TrimSuffix(d, ".")
	return strings.TrimPrefix(d, "www.")
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify builds the URL slug profile sites use, e.g. "Acme Labs, Inc." -> "acme-labs-inc".
func Slugify(name string) string {
	s := slugStripRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
