// Package extract mines free text for financial facts with an ordered list
// of regular-expression rules. For every field the first rule that yields a
// value wins; later rules for that field are never evaluated.
package extract

import (
	"regexp"
	"strings"

	"findata-workers/internal/models"
)

// Field names a FinancialRecord attribute a rule can fill.
type Field string

const (
	FieldTotalFunding     Field = "totalFunding"
	FieldRevenue          Field = "revenue"
	FieldValuation        Field = "valuation"
	FieldEmployeeCount    Field = "employeeCount"
	FieldFoundedYear      Field = "foundedYear"
	FieldGrowthRate       Field = "growthRate"
	FieldBurnRate         Field = "burnRate"
	FieldRunway           Field = "runway"
	FieldLastFundingRound Field = "lastFundingRound"
	FieldHeadquarters     Field = "headquarters"
	FieldIndustry         Field = "industry"
	FieldDescription      Field = "description"
	FieldInvestors        Field = "investors"
)

// Rule maps a pattern match to a field value. Transform receives the full
// submatch slice; an empty return means the match is rejected and the next
// match (then the next rule) is tried.
type Rule struct {
	Field     Field
	Pattern   *regexp.Regexp
	Transform func(m []string) string
}

const (
	money = `\$\s?(\d[\d,]*(?:\.\d+)?)\s*(billion|million|thousand|bn|[bmk])\b`
	count = `(\d{1,3}(?:,\d{3})+|\d+)`
	year  = `((?:19|20)\d{2})\b`
)

var defaultRules = []Rule{
	// funding
	{FieldTotalFunding, regexp.MustCompile(`(?i)raised\s+(?:a\s+total\s+of\s+|over\s+|more\s+than\s+|nearly\s+|about\s+)?` + money), currency},
	{FieldTotalFunding, regexp.MustCompile(`(?i)total\s+funding(?:\s+amount)?(?:\s+of|\s*:)?\s*(?:over\s+|about\s+)?` + money), currency},
	{FieldTotalFunding, regexp.MustCompile(`(?i)` + money + `[^.$]{0,40}?\b(?:funding|round|investment)`), currency},
	{FieldTotalFunding, regexp.MustCompile(`(?i)funding[^.$]{0,40}` + money), currency},
	{FieldTotalFunding, regexp.MustCompile(`(?i)round\s+of\s+` + money), currency},

	// revenue
	{FieldRevenue, regexp.MustCompile(`(?i)revenues?\s*(?:of\s+|reached\s+|hit\s+|exceeded\s+|exceeding\s+|was\s+|is\s+|:\s*)?(?:about\s+|approximately\s+|over\s+|nearly\s+|~)?` + money), currency},
	{FieldRevenue, regexp.MustCompile(`(?i)` + money + `\s+(?:in\s+)?(?:annual\s+)?(?:recurring\s+)?(?:revenue|sales|ARR)`), currency},
	{FieldRevenue, regexp.MustCompile(`(?i)\bARR\s+(?:of\s+)?` + money), currency},

	// valuation
	{FieldValuation, regexp.MustCompile(`(?i)valu(?:ed|ation)\s+(?:at\s+|of\s+)?(?:over\s+|about\s+|nearly\s+|more\s+than\s+)?` + money), currency},
	{FieldValuation, regexp.MustCompile(`(?i)` + money + `\s+(?:post-money\s+|pre-money\s+)?valuation`), currency},

	// employees: ranges before plain counts
	{FieldEmployeeCount, regexp.MustCompile(`(?i)` + count + `\s*(?:-|–|to)\s*` + count + `\s+(?:employees|staff|people)`), employeeRange},
	{FieldEmployeeCount, regexp.MustCompile(`(?i)employees\s*[:\-]?\s*` + count + `\s*(?:-|–)\s*` + count), employeeRange},
	{FieldEmployeeCount, regexp.MustCompile(`(?i)` + count + `\+?\s+(?:full[- ]time\s+)?(?:employees|staff|team\s+members)`), employeeCount},
	{FieldEmployeeCount, regexp.MustCompile(`(?i)employees\s*[:\-]?\s*` + count), employeeCount},
	{FieldEmployeeCount, regexp.MustCompile(`(?i)team\s+of\s+` + count), employeeCount},

	// founded: explicit phrases before the bare year scan
	{FieldFoundedYear, regexp.MustCompile(`(?i)founded(?:\s+in|\s*:)?\s*` + year), group(1)},
	{FieldFoundedYear, regexp.MustCompile(`(?i)established(?:\s+in|\s*:)?\s*` + year), group(1)},
	{FieldFoundedYear, regexp.MustCompile(`(?i)(?:since|incorporated\s+in)\s+` + year), group(1)},
	{FieldFoundedYear, regexp.MustCompile(`\b` + year), group(1)},

	// growth, burn, runway
	{FieldGrowthRate, regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*%\s+(?:year[- ]over[- ]year\s+|yoy\s+|annual\s+|revenue\s+)?growth`), percent},
	{FieldGrowthRate, regexp.MustCompile(`(?i)gr(?:ew|owth|owing)\s+(?:rate\s+)?(?:of\s+|by\s+)?(\d+(?:\.\d+)?)\s*%`), percent},
	{FieldBurnRate, regexp.MustCompile(`(?i)burn(?:ing)?(?:\s+rate)?\s*(?:of\s+|is\s+|:\s*)?(?:about\s+|approximately\s+)?` + money), currency},
	{FieldRunway, regexp.MustCompile(`(?i)runway\s+(?:of\s+)?(\d+)\s+months?`), months},
	{FieldRunway, regexp.MustCompile(`(?i)(\d+)\s+months?\s+(?:of\s+)?runway`), months},

	// last round
	{FieldLastFundingRound, regexp.MustCompile(`(?i)\b(series\s+[a-h]\d?|pre-seed|seed|angel)\s+(?:funding\s+|financing\s+)?round`), fundingRound},
	{FieldLastFundingRound, regexp.MustCompile(`(?i)\b(series\s+[a-h])\b`), fundingRound},

	// headquarters keeps the capitalisation of the place name
	{FieldHeadquarters, regexp.MustCompile(`(?i:headquartered|based)\s+in\s+([A-Z][A-Za-z\-']+(?:,? [A-Z][A-Za-z\-']+){0,3})`), place},
	{FieldHeadquarters, regexp.MustCompile(`(?i:headquarters|hq)\s*[:\-]\s*([A-Z][A-Za-z\-']+(?:,? [A-Z][A-Za-z\-']+){0,3})`), place},

	// industry
	{FieldIndustry, regexp.MustCompile(`(?i:industry|sector)\s*[:\-]\s*([A-Za-z][A-Za-z&/\-]*(?: [A-Za-z&/\-]+){0,3})`), group(1)},
	{FieldIndustry, regexp.MustCompile(`(?i)(?:operates|specializ(?:es|ing)|works)\s+in\s+the\s+([a-z][a-z&/\- ]{2,40}?)\s+(?:industry|sector|space)`), group(1)},

	// description
	{FieldDescription, regexp.MustCompile(`(?i:description|about(?:\s+us)?)\s*[:\-]\s*([^\n]+)`), description},
	{FieldDescription, regexp.MustCompile(`([A-Z][^.!?\n]*?\b(?:is\s+an?|provides|offers|builds|develops|helps)\b[^.!?\n]*[.!?])`), description},

	// investors
	{FieldInvestors, regexp.MustCompile(`\b((?:[A-Z][\w&'.\-]*\s+){0,3}(?:Capital|Ventures|Partners|Fund|Investments))\b`), investor},
}

// Rules returns a copy of the default ordered rule list.
func Rules() []Rule {
	return append([]Rule(nil), defaultRules...)
}

// RulesFor returns the default rules for the given fields, in default order.
func RulesFor(fields ...Field) []Rule {
	want := make(map[Field]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}
	var out []Rule
	for _, r := range defaultRules {
		if want[r.Field] {
			out = append(out, r)
		}
	}
	return out
}

func group(i int) func([]string) string {
	return func(m []string) string {
		if i >= len(m) {
			return ""
		}
		return strings.TrimSpace(m[i])
	}
}

func currency(m []string) string {
	return models.FormatCurrencyShorthand(m[1], m[2])
}

func employeeRange(m []string) string {
	return models.NormalizeEmployeeRange(m[1] + "-" + m[2])
}

func employeeCount(m []string) string {
	n := strings.ReplaceAll(m[1], ",", "")
	if n == "0" {
		return ""
	}
	return n
}

func percent(m []string) string {
	return m[1] + "%"
}

func months(m []string) string {
	return m[1] + " months"
}

func fundingRound(m []string) string {
	words := strings.Fields(strings.ToLower(m[1]))
	if len(words) == 2 && words[0] == "series" {
		return "Series " + strings.ToUpper(words[1])
	}
	s := strings.Join(words, " ")
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func place(m []string) string {
	return strings.Trim(m[1], " ,")
}

func description(m []string) string {
	s := strings.TrimSpace(m[1])
	if len(s) <= models.MinDescriptionLength {
		return ""
	}
	return models.TruncateDescription(s)
}

var investorLeadWords = map[string]bool{
	"The": true, "And": true, "In": true, "By": true, "With": true, "From": true,
	"Led": true, "Including": true, "Investors": true, "Backed": true,
}

// investor drops capitalised sentence-start words that precede the firm name.
func investor(m []string) string {
	words := strings.Fields(m[1])
	for len(words) > 1 && investorLeadWords[words[0]] {
		words = words[1:]
	}
	if len(words) < 2 {
		return ""
	}
	return strings.Join(words, " ")
}
