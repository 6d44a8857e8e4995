// Package retriever orchestrates a financial-data lookup: cache check, domain
// resolution, then the source fallback chain under one time budget.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"findata-workers/internal/cache"
	"findata-workers/internal/common/config"
	apperrors "findata-workers/internal/common/errors"
	"findata-workers/internal/common/logger"
	"findata-workers/internal/common/metrics"
	"findata-workers/internal/models"
	"findata-workers/internal/sources"
	"findata-workers/internal/sources/domainenrich"

	"github.com/google/uuid"
)

const (
	DefaultTimeout               = 30 * time.Second
	DefaultBackoffBase           = time.Second
	DefaultDomainResolutionShare = 0.2

	cacheWriteTimeout = 5 * time.Second
	notFoundMessage   = "no financial data found in any source"
)

// Retrieval outcomes for metrics.
const (
	outcomeFetched = "fetched"
	outcomeCached  = "cached"
	outcomeFailed  = "failed"
)

type Config struct {
	Timeout               time.Duration
	BackoffBase           time.Duration
	DomainResolutionShare float64
}

// ConfigFrom maps the application config section.
func ConfigFrom(c config.RetrievalConfig) Config {
	return Config{
		Timeout:               config.GetDuration(c.TimeoutMs),
		BackoffBase:           config.GetDuration(c.BackoffBaseMs),
		DomainResolutionShare: c.DomainResolutionShare,
	}
}

// Options tune one call.
type Options struct {
	ForceRefresh bool
	// Timeout overrides the configured overall budget when positive.
	Timeout time.Duration
}

// DomainResolver maps a company name to its official domain.
type DomainResolver interface {
	Lookup(ctx context.Context, name string) (*domainenrich.Company, error)
}

type Retriever struct {
	cfg      Config
	cache    cache.Store
	resolver DomainResolver
	chain    []sources.Source
	logger   logger.Logger

	sleep func(ctx context.Context, d time.Duration) bool
}

// New builds a Retriever. chain is tried in order; a nil store disables
// caching and a nil resolver disables domain resolution.
func New(cfg Config, store cache.Store, resolver DomainResolver, chain []sources.Source, log logger.Logger) *Retriever {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BackoffBase < 0 {
		cfg.BackoffBase = 0
	}
	if cfg.DomainResolutionShare <= 0 || cfg.DomainResolutionShare >= 1 {
		cfg.DomainResolutionShare = DefaultDomainResolutionShare
	}
	if store == nil {
		store = cache.Noop{}
	}
	return &Retriever{
		cfg:      cfg,
		cache:    store,
		resolver: resolver,
		chain:    chain,
		logger:   log,
		sleep:    sleepCtx,
	}
}

// GetFinancialData never returns an error: failures come back as a result
// with Success=false.
func (r *Retriever) GetFinancialData(ctx context.Context, companyOrURL string, opts Options) *models.RetrievalResult {
	name, domain := ParseCompanyInput(companyOrURL)
	result := &models.RetrievalResult{
		RequestID:   uuid.New().String(),
		CompanyName: models.CanonicalName(name),
		Domain:      domain,
	}
	log := r.logger.WithFields(map[string]interface{}{
		"requestId": result.RequestID,
		"company":   result.CompanyName,
	})

	if name == "" {
		return r.fail(result, apperrors.NewInvalidInputError("company name or URL is required"), "")
	}

	budget := r.cfg.Timeout
	if opts.Timeout > 0 {
		budget = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()
	deadline, _ := ctx.Deadline()

	if !opts.ForceRefresh {
		if entry := r.lookupCache(ctx, log, name, domain); entry != nil {
			return r.served(result, log, entry)
		}
	}

	// A success is also stored under the input key, where a repeat call looks first.
	inputDomain := domain
	if domain == "" {
		domain = r.resolveDomain(ctx, log, name, time.Duration(float64(budget)*r.cfg.DomainResolutionShare))
		result.Domain = domain
		if domain != "" && !opts.ForceRefresh {
			if entry := r.lookupCache(ctx, log, name, domain); entry != nil {
				return r.served(result, log, entry)
			}
		}
	}

	var lastErr error
	for i, src := range r.chain {
		remaining := time.Until(deadline)
		if remaining <= 0 || ctx.Err() != nil {
			break
		}
		slice := remaining / time.Duration(len(r.chain)-i)

		rec, attempt, err := r.attempt(ctx, src, slice, name, domain)
		result.Attempts = append(result.Attempts, attempt)

		if err != nil {
			lastErr = err
			log.Warn("Source attempt failed", map[string]interface{}{
				"source":     src.Name(),
				"durationMs": attempt.DurationMs,
				"error":      err,
			})
			if i < len(r.chain)-1 && !r.sleep(ctx, r.backoff(i)) {
				break
			}
			continue
		}
		if rec == nil {
			log.Debug("Source returned no data", map[string]interface{}{"source": src.Name()})
			continue
		}

		result.Success = true
		result.Data = rec
		result.Source = src.Name()
		result.RetrievedAt = time.Now().UTC()
		metrics.Retrievals.WithLabelValues(outcomeFetched).Inc()
		log.Info("Retrieved financial data", map[string]interface{}{
			"source":   src.Name(),
			"domain":   domain,
			"attempts": len(result.Attempts),
		})

		r.store(ctx, log, name, domain, rec, src.Name())
		if inputDomain != domain {
			r.store(ctx, log, name, inputDomain, rec, src.Name())
		}
		return result
	}

	if lastErr == nil && ctx.Err() != nil {
		lastErr = apperrors.NewTimeoutError(apperrors.AllSources, budget)
	}
	return r.fail(result, lastErr, summarize(result.Attempts))
}

// attempt runs one source under its slice of the budget. A source that went
// quiet until its deadline is reported as a timeout rather than "not found".
func (r *Retriever) attempt(ctx context.Context, src sources.Source, slice time.Duration, name, domain string) (*models.FinancialRecord, models.SourceAttempt, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, slice)
	defer cancel()

	start := time.Now()
	rec, err := src.FetchFinancialData(attemptCtx, name, domain)
	elapsed := time.Since(start)

	rec = sources.Finalize(rec)
	if err == nil && rec == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		err = apperrors.NewTimeoutError(src.Name(), slice)
	}

	attempt := models.SourceAttempt{Source: src.Name(), DurationMs: elapsed.Milliseconds()}
	switch {
	case err != nil:
		rec = nil
		attempt.Outcome = metrics.OutcomeError
		attempt.Error = err.Error()
	case rec == nil:
		attempt.Outcome = metrics.OutcomeNotFound
	default:
		attempt.Outcome = metrics.OutcomeSuccess
	}
	metrics.ObserveSourceAttempt(src.Name(), attempt.Outcome, elapsed)
	return rec, attempt, err
}

func (r *Retriever) served(result *models.RetrievalResult, log logger.Logger, entry *models.CacheEntry) *models.RetrievalResult {
	data := entry.Data
	result.Success = true
	result.Cached = true
	result.Data = &data
	result.Source = entry.Source
	result.RetrievedAt = entry.CreatedAt
	if result.Domain == "" {
		result.Domain = entry.Domain
	}
	metrics.Retrievals.WithLabelValues(outcomeCached).Inc()
	log.Info("Served financial data from cache", map[string]interface{}{"source": entry.Source})
	return result
}

func (r *Retriever) lookupCache(ctx context.Context, log logger.Logger, name, domain string) *models.CacheEntry {
	entry, err := r.cache.Get(ctx, name, domain)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.Warn("Cache lookup failed, treating as miss", map[string]interface{}{"error": err})
		return nil
	case entry == nil || entry.Data.IsEmpty():
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil
	default:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return entry
	}
}

// store outlives the request budget so a success found at the deadline is kept.
func (r *Retriever) store(ctx context.Context, log logger.Logger, name, domain string, rec *models.FinancialRecord, source string) {
	putCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheWriteTimeout)
	defer cancel()
	if err := r.cache.Put(putCtx, name, domain, rec, source); err != nil {
		log.Warn("Failed to cache financial data", map[string]interface{}{"error": err})
	}
}

// resolveDomain is best effort; any failure leaves the domain empty.
func (r *Retriever) resolveDomain(ctx context.Context, log logger.Logger, name string, timeout time.Duration) string {
	if r.resolver == nil || timeout <= 0 {
		return ""
	}
	resolveCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	company, err := r.resolver.Lookup(resolveCtx, name)
	if err != nil {
		log.Warn("Domain resolution failed", map[string]interface{}{"error": err})
		return ""
	}
	if company == nil || company.Domain == "" {
		return ""
	}
	log.Debug("Resolved company domain", map[string]interface{}{"domain": company.Domain})
	return company.Domain
}

// backoff is 2^i times the base delay.
func (r *Retriever) backoff(i int) time.Duration {
	return r.cfg.BackoffBase * time.Duration(1<<uint(i))
}

func (r *Retriever) fail(result *models.RetrievalResult, err error, details string) *models.RetrievalResult {
	message := notFoundMessage
	if err != nil {
		message = apperrors.MessageOf(err)
	}
	result.Success = false
	result.Data = nil
	result.RetrievedAt = time.Now().UTC()
	result.Error = &models.RetrievalError{
		Message: message,
		Source:  apperrors.AllSources,
		Details: details,
	}
	metrics.Retrievals.WithLabelValues(outcomeFailed).Inc()
	r.logger.Warn("Financial data retrieval failed", map[string]interface{}{
		"requestId": result.RequestID,
		"company":   result.CompanyName,
		"error":     message,
	})
	return result
}

func summarize(attempts []models.SourceAttempt) string {
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if a.Error != "" {
			parts = append(parts, fmt.Sprintf("%s: %s (%s)", a.Source, a.Outcome, a.Error))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", a.Source, a.Outcome))
	}
	return strings.Join(parts, "; ")
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
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
