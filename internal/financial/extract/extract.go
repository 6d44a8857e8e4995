package extract

import (
	"regexp"
	"strconv"
	"strings"

	"findata-workers/internal/models"
)

const (
	// MaxInputBytes bounds the text any single call will scan.
	MaxInputBytes = 100_000
	// SearchInvestorLimit is the investor cap used for search snippets.
	SearchInvestorLimit = 5

	maxMatchesPerRule = 32
)

// Options tunes a single extraction.
type Options struct {
	// InvestorLimit caps Investors; zero means models.MaxInvestors.
	InvestorLimit int
	// MaxInputBytes overrides the input cap; zero means MaxInputBytes.
	MaxInputBytes int
}

// Extract runs the default rules over text.
func Extract(text string) *models.FinancialRecord {
	return ExtractWith(defaultRules, text, Options{})
}

// ExtractWith runs rules in order over text. It never panics and always
// returns a non-nil, possibly empty, record.
func ExtractWith(rules []Rule, text string, opts Options) *models.FinancialRecord {
	rec := &models.FinancialRecord{}
	text = truncate(text, opts.MaxInputBytes)
	if strings.TrimSpace(text) == "" {
		return rec
	}

	limit := opts.InvestorLimit
	if limit <= 0 {
		limit = models.MaxInvestors
	}

	done := make(map[Field]bool)
	for _, rule := range rules {
		if done[rule.Field] || rule.Pattern == nil || rule.Transform == nil {
			continue
		}
		if rule.Field == FieldInvestors {
			if names := collect(rule, text, limit); len(names) > 0 {
				rec.AddInvestors(limit, names...)
				done[rule.Field] = true
			}
			continue
		}
		if v := firstValue(rule, text); v != "" {
			set(rec, rule.Field, v)
			done[rule.Field] = true
		}
	}
	return rec
}

// ExtractInvestors returns up to limit distinct investor names, in order of
// appearance.
func ExtractInvestors(text string, limit int) []string {
	if limit <= 0 {
		limit = models.MaxInvestors
	}
	text = truncate(text, 0)
	for _, rule := range defaultRules {
		if rule.Field != FieldInvestors {
			continue
		}
		if names := collect(rule, text, limit); len(names) > 0 {
			return names
		}
	}
	return nil
}

func firstValue(rule Rule, text string) string {
	for _, m := range rule.Pattern.FindAllStringSubmatch(text, maxMatchesPerRule) {
		if v := rule.Transform(m); v != "" {
			return v
		}
	}
	return ""
}

func collect(rule Rule, text string, limit int) []string {
	rec := &models.FinancialRecord{}
	for _, m := range rule.Pattern.FindAllStringSubmatch(text, -1) {
		if len(rec.Investors) >= limit {
			break
		}
		if v := rule.Transform(m); v != "" {
			rec.AddInvestors(limit, v)
		}
	}
	return rec.Investors
}

func set(rec *models.FinancialRecord, field Field, v string) {
	switch field {
	case FieldTotalFunding:
		rec.TotalFunding = v
	case FieldRevenue:
		rec.Revenue = v
	case FieldValuation:
		rec.Valuation = v
	case FieldEmployeeCount:
		rec.EmployeeCount = v
	case FieldFoundedYear:
		rec.FoundedYear = v
	case FieldGrowthRate:
		rec.GrowthRate = v
	case FieldBurnRate:
		rec.BurnRate = v
	case FieldRunway:
		rec.Runway = v
	case FieldLastFundingRound:
		rec.LastFundingRound = v
	case FieldHeadquarters:
		rec.Headquarters = v
	case FieldIndustry:
		rec.Industry = v
	case FieldDescription:
		rec.Description = v
	}
}

func truncate(text string, max int) string {
	if max <= 0 {
		max = MaxInputBytes
	}
	if len(text) > max {
		return text[:max]
	}
	return text
}

var (
	moneyRe       = regexp.MustCompile(`(?i)\$?\s?(\d[\d,]*(?:\.\d+)?)\s*(billion|million|thousand|bn|[bmk])\b`)
	plainAmountRe = regexp.MustCompile(`^\$\s?(\d{1,3}(?:,\d{3})+|\d+)(?:\.\d+)?(?:\s*USD)?$`)
	yearRe        = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
	countRe       = regexp.MustCompile(`(\d{1,3}(?:,\d{3})+|\d+)\s*(?:-|–)\s*(\d{1,3}(?:,\d{3})+|\d+)|(\d{1,3}(?:,\d{3})+|\d+)`)
)

// Money normalises a structured amount such as "1.2 billion USD", "$50M" or
// "$120,000,000". Values that are not amounts are returned trimmed.
func Money(s string) string {
	s = strings.TrimSpace(s)
	if m := moneyRe.FindStringSubmatch(s); m != nil {
		return models.FormatCurrencyShorthand(m[1], m[2])
	}
	if m := plainAmountRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil && v >= 1000 {
			return models.FormatUSD(v)
		}
	}
	return s
}

// Year returns the first plausible four-digit year in s.
func Year(s string) string {
	if m := yearRe.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// Employees normalises "51-200", "1,200" or "about 300 employees".
func Employees(s string) string {
	m := countRe.FindStringSubmatch(s)
	switch {
	case m == nil:
		return ""
	case m[1] != "":
		return models.NormalizeEmployeeRange(m[1] + "-" + m[2])
	default:
		return strings.ReplaceAll(m[3], ",", "")
	}
}
