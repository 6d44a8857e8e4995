// Package sources defines the contract shared by every financial-data
// adapter. Adapters return (nil, nil) when they found nothing; they return an
// error only for rate limiting and rejected credentials.
package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"findata-workers/internal/models"
)

// Source names, used for attribution and metrics.
const (
	NameWebScrape        = "Web Scraping"
	NameSearch           = "Search API"
	NamePeopleEnrichment = "People Enrichment"
	NameDomainEnrichment = "Domain Enrichment"
)

// Source is one upstream the retriever can fall back through.
type Source interface {
	Name() string
	FetchFinancialData(ctx context.Context, companyName, domain string) (*models.FinancialRecord, error)
}

// Finalize cleans rec and collapses an empty record to nil so callers only
// ever see usable data.
func Finalize(rec *models.FinancialRecord) *models.FinancialRecord {
	if rec == nil {
		return nil
	}
	rec.Clean()
	if rec.IsEmpty() {
		return nil
	}
	return rec
}

// FlexString decodes a JSON string or number as text. Upstream APIs are
// inconsistent about quoting numeric fields.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		// objects, arrays, booleans: treat as unknown
		*f = ""
		return nil
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return strings.TrimSpace(string(f)) }

// HostOf returns the canonical host of a link, or "" when it does not parse.
func HostOf(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return ""
	}
	return models.CanonicalDomain(u.Host)
}

// HostMatches reports whether host is domain or one of its subdomains.
func HostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
