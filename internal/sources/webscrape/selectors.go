package webscrape

import (
	"strings"

	"findata-workers/internal/financial/extract"
	"findata-workers/internal/models"

	"github.com/PuerkitoBio/goquery"
)

// fieldSelector lists, per field, the three lookup tiers in priority order:
// test hooks, class-name heuristics, then visible label text.
type fieldSelector struct {
	field   extract.Field
	hooks   []string
	classes []string
	anchors []string
}

var fieldSelectors = []fieldSelector{
	{
		field:   extract.FieldTotalFunding,
		hooks:   []string{`[data-test="total-funding"]`, `[data-testid="total-funding"]`, `[data-test="funding-total"]`},
		classes: []string{`.total-funding`, `.funding-total`, `[class*="total-funding"]`, `[class*="funding-total"]`},
		anchors: []string{"Total Funding", "Total Funding Amount", "Funding Raised", "Funding"},
	},
	{
		field:   extract.FieldRevenue,
		hooks:   []string{`[data-test="revenue"]`, `[data-testid="revenue"]`, `[data-test="revenue-range"]`},
		classes: []string{`.revenue`, `[class*="revenue"]`},
		anchors: []string{"Revenue", "Annual Revenue", "Estimated Revenue", "Estimated Revenue Range"},
	},
	{
		field:   extract.FieldValuation,
		hooks:   []string{`[data-test="valuation"]`, `[data-testid="valuation"]`},
		classes: []string{`.valuation`, `[class*="valuation"]`},
		anchors: []string{"Valuation", "Last Valuation", "Post-Money Valuation"},
	},
	{
		field:   extract.FieldEmployeeCount,
		hooks:   []string{`[data-test="employee-count"]`, `[data-testid="employee-count"]`, `[data-test="num-employees"]`},
		classes: []string{`.employee-count`, `[class*="employee-count"]`, `[class*="company-size"]`},
		anchors: []string{"Employees", "Number of Employees", "Company size", "Company Size", "Team Size"},
	},
	{
		field:   extract.FieldFoundedYear,
		hooks:   []string{`[data-test="founded-date"]`, `[data-testid="founded"]`, `[data-test="founded"]`},
		classes: []string{`.founded`, `[class*="founded"]`},
		anchors: []string{"Founded", "Founded Date", "Year Founded"},
	},
	{
		field:   extract.FieldLastFundingRound,
		hooks:   []string{`[data-test="last-funding-type"]`, `[data-testid="last-funding-type"]`},
		classes: []string{`[class*="funding-type"]`, `[class*="funding-stage"]`},
		anchors: []string{"Last Funding Type", "Funding Stage", "Stage"},
	},
	{
		field:   extract.FieldHeadquarters,
		hooks:   []string{`[data-test="headquarters"]`, `[data-testid="headquarters"]`},
		classes: []string{`.headquarters`, `[class*="headquarters"]`},
		anchors: []string{"Headquarters", "Headquarters Location", "Location"},
	},
	{
		field:   extract.FieldIndustry,
		hooks:   []string{`[data-test="industry"]`, `[data-testid="industry"]`, `[data-test="industries"]`},
		classes: []string{`.industry`, `[class*="industry"]`},
		anchors: []string{"Industry", "Industries", "Sector"},
	},
	{
		field:   extract.FieldInvestors,
		hooks:   []string{`[data-test="investor-name"]`, `[data-testid="investor"]`},
		classes: []string{`.investor-name`, `[class*="investor-name"]`},
		anchors: []string{"Investors", "Lead Investors"},
	},
}

const (
	anchorCandidates = "dt, th, td, label, span, div, p, li, h2, h3, h4, h5, strong, b"
	maxValueLength   = 200
)

func selectFirst(doc *goquery.Document, fs fieldSelector) string {
	for _, group := range [][]string{fs.hooks, fs.classes} {
		for _, sel := range group {
			if v := cleanText(doc.Find(sel).First().Text()); v != "" && len(v) <= maxValueLength {
				return v
			}
		}
	}
	for _, label := range fs.anchors {
		if v := anchorValue(doc, label); v != "" {
			return v
		}
	}
	return ""
}

func selectAll(doc *goquery.Document, fs fieldSelector) []string {
	var names []string
	for _, group := range [][]string{fs.hooks, fs.classes} {
		for _, sel := range group {
			doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
				if v := cleanText(s.Text()); v != "" && len(v) <= maxValueLength {
					names = append(names, v)
				}
			})
			if len(names) > 0 {
				return names
			}
		}
	}
	for _, label := range fs.anchors {
		if v := anchorValue(doc, label); v != "" {
			for _, name := range strings.Split(v, ",") {
				names = append(names, strings.TrimSpace(name))
			}
			return names
		}
	}
	return nil
}

// anchorValue finds an element whose whole text is label and returns the
// value next to it: the next sibling element, or the rest of the parent's text.
func anchorValue(doc *goquery.Document, label string) string {
	var out string
	doc.Find(anchorCandidates).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSuffix(cleanText(s.Text()), ":")
		if !strings.EqualFold(text, label) {
			return true
		}
		if v := cleanText(s.Next().Text()); v != "" && len(v) <= maxValueLength {
			out = v
			return false
		}
		parent := cleanText(s.Parent().Text())
		if len(parent) > len(label) && strings.EqualFold(parent[:len(label)], label) {
			v := strings.TrimLeft(parent[len(label):], " :-")
			if v != "" && len(v) <= maxValueLength {
				out = v
				return false
			}
		}
		return true
	})
	return out
}

// assign normalises a raw selector value for its field.
func assign(rec *models.FinancialRecord, field extract.Field, raw string) {
	switch field {
	case extract.FieldTotalFunding:
		rec.TotalFunding = extract.Money(raw)
	case extract.FieldRevenue:
		rec.Revenue = extract.Money(raw)
	case extract.FieldValuation:
		rec.Valuation = extract.Money(raw)
	case extract.FieldEmployeeCount:
		rec.EmployeeCount = extract.Employees(raw)
	case extract.FieldFoundedYear:
		rec.FoundedYear = extract.Year(raw)
	case extract.FieldLastFundingRound:
		rec.LastFundingRound = raw
	case extract.FieldHeadquarters:
		rec.Headquarters = raw
	case extract.FieldIndustry:
		rec.Industry = raw
	}
}
