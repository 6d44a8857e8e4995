// Package peopleenrich reads structured company profiles from a
// People Data Labs style enrichment API.
package peopleenrich

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

const enrichPath = "/v5/company/enrich"

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

type Client struct {
	cfg    Config
	hasKey bool
	http   *httpclient.Client
	logger logger.Logger
}

func New(cfg Config, client *httpclient.Client, log logger.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultPeopleEnrichmentBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		hasKey: strings.TrimSpace(cfg.APIKey) != "",
		http:   client,
		logger: log.WithFields(map[string]interface{}{"source": sources.NamePeopleEnrichment}),
	}
}

func (c *Client) Name() string { return sources.NamePeopleEnrichment }

// FetchFinancialData looks the company up by website when a domain is known,
// by name otherwise.
func (c *Client) FetchFinancialData(ctx context.Context, companyName, domain string) (*models.FinancialRecord, error) {
	if !c.hasKey {
		c.logger.Debug("People enrichment API key not configured, skipping", nil)
		return nil, nil
	}

	params := url.Values{}
	if domain != "" {
		params.Set("website", domain)
	} else {
		params.Set("name", companyName)
	}

	resp, err := c.http.Get(ctx, c.Name(), c.cfg.BaseURL+enrichPath+"?"+params.Encode(),
		map[string]string{"X-Api-Key": c.cfg.APIKey, "Accept": "application/json"}, c.cfg.Timeout)
	if err != nil {
		c.logger.Warn("People enrichment request failed", map[string]interface{}{"error": err})
		return nil, nil
	}
	if err := httpclient.StatusError(c.Name(), resp.StatusCode); err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if !resp.OK() {
		c.logger.Warn("People enrichment returned unexpected status", map[string]interface{}{"status": resp.StatusCode})
		return nil, nil
	}

	var company companyResponse
	if err := json.Unmarshal(resp.Body, &company); err != nil {
		c.logger.Warn("People enrichment returned malformed JSON", map[string]interface{}{
			"error": apperrors.NewMalformedResponseError(c.Name(), err),
		})
		return nil, nil
	}
	return sources.Finalize(company.record()), nil
}

type companyResponse struct {
	Name                  sources.FlexString `json:"name"`
	Website               sources.FlexString `json:"website"`
	Size                  sources.FlexString `json:"size"`
	EmployeeCount         sources.FlexString `json:"employee_count"`
	EstimatedNumEmployees sources.FlexString `json:"estimated_num_employees"`
	Founded               sources.FlexString `json:"founded"`
	Industry              sources.FlexString `json:"industry"`
	Location              struct {
		Name sources.FlexString `json:"name"`
	} `json:"location"`
	Summary            sources.FlexString `json:"summary"`
	TotalFundingRaised sources.FlexString `json:"total_funding_raised"`
	LatestFundingStage sources.FlexString `json:"latest_funding_stage"`
	InferredRevenue    sources.FlexString `json:"inferred_revenue"`
}

func (c *companyResponse) record() *models.FinancialRecord {
	rec := &models.FinancialRecord{
		EmployeeCount:    c.employees(),
		FoundedYear:      c.Founded.String(),
		Industry:         c.Industry.String(),
		Headquarters:     c.Location.Name.String(),
		LastFundingRound: humanizeStage(c.LatestFundingStage.String()),
		Revenue:          c.InferredRevenue.String(),
	}
	if amount, err := strconv.ParseFloat(c.TotalFundingRaised.String(), 64); err == nil {
		rec.TotalFunding = models.FormatUSD(amount)
	}
	if s := c.Summary.String(); len(s) > models.MinDescriptionLength {
		rec.Description = models.TruncateDescription(s)
	}
	return rec
}

// employees prefers an exact count, then an estimate, then the size bucket.
func (c *companyResponse) employees() string {
	for _, v := range []sources.FlexString{c.EmployeeCount, c.EstimatedNumEmployees} {
		if n, err := strconv.Atoi(v.String()); err == nil && n > 0 {
			return strconv.Itoa(n)
		}
	}
	return models.NormalizeEmployeeRange(c.Size.String())
}

// humanizeStage turns "series_b" into "Series B".
func humanizeStage(stage string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(stage), "_", " "))
	for i, w := range words {
		if len(w) == 1 {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
