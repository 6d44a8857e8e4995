// Package domainenrich resolves company names to domains through a
// Clearbit-style company API. It doubles as a Source, though the retriever
// only uses it for domain resolution.
package domainenrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"findata-workers/internal/common/config"
	apperrors "findata-workers/internal/common/errors"
	httpclient "findata-workers/internal/common/http"
	"findata-workers/internal/common/logger"
	"findata-workers/internal/models"
	"findata-workers/internal/sources"
)

const findPath = "/v1/companies/find"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// ConfigFrom maps the application config section.
func ConfigFrom(c config.APISourceConfig) Config {
	return Config{
		BaseURL: c.BaseURL,
		APIKey:  c.APIKey,
		Timeout: config.GetDuration(c.TimeoutMs),
	}
}

// Company is the subset of the upstream profile we use.
type Company struct {
	Name          string
	Domain        string
	FoundedYear   string
	Employees     string
	TotalRaised   string
	LastRoundType string
}

type Client struct {
	cfg    Config
	hasKey bool
	http   *httpclient.Client
	logger logger.Logger
}

func New(cfg Config, client *httpclient.Client, log logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultDomainEnrichmentBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		hasKey: strings.TrimSpace(cfg.APIKey) != "",
		http:   client,
		logger: log.WithFields(map[string]interface{}{"source": sources.NameDomainEnrichment}),
	}
}

func (c *Client) Name() string { return sources.NameDomainEnrichment }

// Lookup finds a company by name. It returns nil when the API has no match
// or the key is missing; errors are limited to rate limiting and auth.
func (c *Client) Lookup(ctx context.Context, name string) (*Company, error) {
	name = strings.TrimSpace(name)
	if !c.hasKey || name == "" {
		return nil, nil
	}

	resp, err := c.http.Get(ctx, c.Name(), c.cfg.BaseURL+findPath+"?"+url.Values{"name": {name}}.Encode(),
		map[string]string{"Authorization": "Bearer " + c.cfg.APIKey, "Accept": "application/json"}, c.cfg.Timeout)
	if err != nil {
		c.logger.Warn("Domain enrichment request failed", map[string]interface{}{"company": name, "error": err})
		return nil, nil
	}
	if err := httpclient.StatusError(c.Name(), resp.StatusCode); err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound || !resp.OK() {
		if resp.StatusCode != http.StatusNotFound {
			c.logger.Warn("Domain enrichment returned unexpected status", map[string]interface{}{"status": resp.StatusCode})
		}
		return nil, nil
	}

	var body companyResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		c.logger.Warn("Domain enrichment returned malformed JSON", map[string]interface{}{
			"error": apperrors.NewMalformedResponseError(c.Name(), err),
		})
		return nil, nil
	}
	company := body.company()
	if company.Name == "" && company.Domain == "" {
		return nil, nil
	}
	return company, nil
}

// FetchFinancialData maps a name lookup onto the financial record. The domain
// argument is unused; the API is keyed by name.
func (c *Client) FetchFinancialData(ctx context.Context, companyName, _ string) (*models.FinancialRecord, error) {
	company, err := c.Lookup(ctx, companyName)
	if err != nil || company == nil {
		return nil, err
	}
	return sources.Finalize(&models.FinancialRecord{
		FoundedYear:      company.FoundedYear,
		EmployeeCount:    company.Employees,
		TotalFunding:     company.TotalRaised,
		LastFundingRound: company.LastRoundType,
	}), nil
}

type companyResponse struct {
	Name        sources.FlexString `json:"name"`
	Domain      sources.FlexString `json:"domain"`
	FoundedYear sources.FlexString `json:"foundedYear"`
	Metrics     struct {
		Employees      sources.FlexString `json:"employees"`
		EmployeesRange sources.FlexString `json:"employeesRange"`
		Raised         sources.FlexString `json:"raised"`
	} `json:"metrics"`
	FundingRounds []struct {
		Type sources.FlexString `json:"type"`
	} `json:"fundingRounds"`
}

func (r *companyResponse) company() *Company {
	c := &Company{
		Name:        r.Name.String(),
		Domain:      models.CanonicalDomain(r.Domain.String()),
		FoundedYear: r.FoundedYear.String(),
	}
	if n, err := strconv.Atoi(r.Metrics.Employees.String()); err == nil {
		c.Employees = models.FormatEmployeeCount(n)
	}
	if c.Employees == "" {
		c.Employees = models.NormalizeEmployeeRange(r.Metrics.EmployeesRange.String())
	}
	if amount, err := strconv.ParseFloat(r.Metrics.Raised.String(), 64); err == nil {
		c.TotalRaised = models.FormatUSD(amount)
	}
	if n := len(r.FundingRounds); n > 0 {
		c.LastRoundType = r.FundingRounds[n-1].Type.String()
	}
	return c
}
