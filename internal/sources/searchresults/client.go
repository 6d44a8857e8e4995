// Package searchresults mines a SerpAPI-style search endpoint for company
// financials. Each query's knowledge panel is trusted first, then the answer
// box, then the aggregated organic snippets.
package searchresults

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"findata-workers/internal/common/config"
	apperrors "findata-workers/internal/common/errors"
	httpclient "findata-workers/internal/common/http"
	"findata-workers/internal/common/logger"
	"findata-workers/internal/financial/extract"
	"findata-workers/internal/models"
	"findata-workers/internal/sources"
)

// FundingDomains are the hosts whose snippets are trusted for investor names.
var FundingDomains = []string{
	"crunchbase.com",
	"pitchbook.com",
	"cbinsights.com",
	"dealroom.co",
	"tracxn.com",
	"wellfound.com",
}

type Config struct {
	BaseURL       string
	APIKey        string
	Engine        string
	NumResults    int
	Timeout       time.Duration
	QueryDelay    time.Duration
	InvestorLimit int
}

// ConfigFrom maps the application config section.
func ConfigFrom(c config.SearchConfig) Config {
	return Config{
		BaseURL:       c.BaseURL,
		APIKey:        c.APIKey,
		Engine:        c.Engine,
		NumResults:    c.NumResults,
		Timeout:       config.GetDuration(c.TimeoutMs),
		QueryDelay:    config.GetDuration(c.QueryDelayMs),
		InvestorLimit: c.InvestorsLimit,
	}
}

type Client struct {
	cfg    Config
	hasKey bool
	http   *httpclient.Client
	logger logger.Logger
}

func New(cfg Config, client *httpclient.Client, log logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultSearchBaseURL
	}
	if cfg.Engine == "" {
		cfg.Engine = "google"
	}
	if cfg.NumResults <= 0 {
		cfg.NumResults = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.InvestorLimit <= 0 {
		cfg.InvestorLimit = extract.SearchInvestorLimit
	}
	return &Client{
		cfg:    cfg,
		hasKey: strings.TrimSpace(cfg.APIKey) != "",
		http:   client,
		logger: log.WithFields(map[string]interface{}{"source": sources.NameSearch}),
	}
}

func (c *Client) Name() string { return sources.NameSearch }

// Queries returns the engineered queries in the order they are tried.
func Queries(companyName, domain string) []string {
	q := fmt.Sprintf("%q", companyName)
	out := []string{
		q + " funding revenue valuation employees",
		q + " company profile founded headquarters",
	}
	if domain != "" {
		out = append(out, q+" site:"+domain)
	}
	return append(out,
		q+" site:crunchbase.com",
		q+" site:linkedin.com/company",
	)
}

// FetchFinancialData runs the queries until one yields data. A 429 aborts the
// remaining queries; so does a rejected key.
func (c *Client) FetchFinancialData(ctx context.Context, companyName, domain string) (*models.FinancialRecord, error) {
	if !c.hasKey {
		c.logger.Debug("Search API key not configured, skipping", nil)
		return nil, nil
	}

	for i, query := range Queries(companyName, domain) {
		if i > 0 && !sleep(ctx, c.cfg.QueryDelay) {
			return nil, nil
		}

		resp, err := c.search(ctx, query)
		if err != nil {
			if apperrors.IsActionable(err) {
				return nil, err
			}
			c.logger.Warn("Search query failed", map[string]interface{}{
				"query": query,
				"error": err,
			})
			continue
		}

		if rec := c.recordFrom(resp); rec != nil {
			c.logger.Info("Search query yielded data", map[string]interface{}{"query": query})
			return rec, nil
		}
	}
	return nil, nil
}

func (c *Client) search(ctx context.Context, query string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("engine", c.cfg.Engine)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(c.cfg.NumResults))
	params.Set("api_key", c.cfg.APIKey)

	resp, err := c.http.Get(ctx, c.Name(), c.cfg.BaseURL+"?"+params.Encode(), map[string]string{"Accept": "application/json"}, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	if err := httpclient.StatusError(c.Name(), resp.StatusCode); err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var out searchResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, apperrors.NewMalformedResponseError(c.Name(), err)
	}
	return &out, nil
}

var (
	snippetRules = withoutInvestors(extract.Rules())
	answerRules  = extract.RulesFor(extract.FieldTotalFunding, extract.FieldValuation)
)

func withoutInvestors(rules []extract.Rule) []extract.Rule {
	out := rules[:0]
	for _, r := range rules {
		if r.Field != extract.FieldInvestors {
			out = append(out, r)
		}
	}
	return out
}

// recordFrom applies the per-query priority: knowledge panel, answer box,
// then organic snippets. Earlier tiers win field by field.
func (c *Client) recordFrom(resp *searchResponse) *models.FinancialRecord {
	rec := &models.FinancialRecord{}

	if kg := resp.KnowledgeGraph; kg != nil {
		rec.Merge(kg.record())
	}

	if ab := resp.AnswerBox; ab != nil {
		text := strings.Join([]string{ab.Answer.String(), ab.Snippet.String()}, "\n")
		rec.Merge(extract.ExtractWith(answerRules, text, extract.Options{}))
	}

	if len(resp.OrganicResults) > 0 {
		var all, funding []string
		for _, r := range resp.OrganicResults {
			text := r.Title + "\n" + r.Snippet
			all = append(all, text)
			if isFundingDomain(sources.HostOf(r.Link)) {
				funding = append(funding, text)
			}
		}
		rec.Merge(extract.ExtractWith(snippetRules, strings.Join(all, "\n"), extract.Options{}))
		if len(funding) > 0 && len(rec.Investors) == 0 {
			rec.AddInvestors(c.cfg.InvestorLimit, extract.ExtractInvestors(strings.Join(funding, "\n"), c.cfg.InvestorLimit)...)
		}
	}

	return sources.Finalize(rec)
}

func isFundingDomain(host string) bool {
	if host == "" {
		return false
	}
	for _, d := range FundingDomains {
		if sources.HostMatches(host, d) {
			return true
		}
	}
	return false
}

// sleep waits d unless ctx ends first; it reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
