package models

import (
	"strings"
	"time"
)

const (
	// MaxInvestors is the default cap on FinancialRecord.Investors.
	MaxInvestors = 10
	// MaxDescriptionLength bounds FinancialRecord.Description, in runes.
	MaxDescriptionLength = 500
	// MinDescriptionLength is the shortest text accepted as a description.
	MinDescriptionLength = 20
)

// FinancialRecord is the canonical output of every source. An empty string or
// nil slice means unknown; nothing is ever inferred as zero.
type FinancialRecord struct {
	TotalFunding     string   `json:"totalFunding,omitempty"`
	Revenue          string   `json:"revenue,omitempty"`
	Valuation        string   `json:"valuation,omitempty"`
	EmployeeCount    string   `json:"employeeCount,omitempty"`
	FoundedYear      string   `json:"foundedYear,omitempty"`
	LastFundingRound string   `json:"lastFundingRound,omitempty"`
	Investors        []string `json:"investors,omitempty"`
	Headquarters     string   `json:"headquarters,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	Description      string   `json:"description,omitempty"`
	GrowthRate       string   `json:"growthRate,omitempty"`
	BurnRate         string   `json:"burnRate,omitempty"`
	Runway           string   `json:"runway,omitempty"`
}

// stringFields lists every scalar field so the helpers below stay in sync.
func (r *FinancialRecord) stringFields() []*string {
	return []*string{
		&r.TotalFunding, &r.Revenue, &r.Valuation, &r.EmployeeCount,
		&r.FoundedYear, &r.LastFundingRound, &r.Headquarters, &r.Industry,
		&r.Description, &r.GrowthRate, &r.BurnRate, &r.Runway,
	}
}

// IsEmpty reports whether the record carries no usable field. A nil record is empty.
func (r *FinancialRecord) IsEmpty() bool {
	if r == nil {
		return true
	}
	for _, f := range r.stringFields() {
		if strings.TrimSpace(*f) != "" {
			return false
		}
	}
	return len(r.Investors) == 0
}

// Merge fills fields that are still unknown from other. Existing values win.
func (r *FinancialRecord) Merge(other *FinancialRecord) {
	if other == nil {
		return
	}
	dst, src := r.stringFields(), other.stringFields()
	for i := range dst {
		if *dst[i] == "" {
			*dst[i] = *src[i]
		}
	}
	if len(r.Investors) == 0 && len(other.Investors) > 0 {
		r.Investors = append([]string(nil), other.Investors...)
	}
}

// AddInvestors appends names not yet present, keeping insertion order, until
// limit entries are held.
func (r *FinancialRecord) AddInvestors(limit int, names ...string) {
	if limit <= 0 {
		limit = MaxInvestors
	}
	seen := make(map[string]struct{}, len(r.Investors))
	for _, inv := range r.Investors {
		seen[inv] = struct{}{}
	}
	for _, name := range names {
		if len(r.Investors) >= limit {
			return
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		r.Investors = append(r.Investors, name)
	}
}

// Clean trims whitespace, collapses blank-only values to unknown and bounds
// the description.
func (r *FinancialRecord) Clean() {
	for _, f := range r.stringFields() {
		*f = strings.TrimSpace(*f)
	}
	r.Description = TruncateDescription(r.Description)
	if len(r.Investors) > 0 {
		investors := r.Investors
		r.Investors = nil
		r.AddInvestors(len(investors), investors...)
	}
}

// SourceAttempt records one adapter call made while serving a request.
type SourceAttempt struct {
	Source     string `json:"source"`
	Outcome    string `json:"outcome"`
	DurationMs int64  `json:"durationMs"`
	Error      string `json:"error,omitempty"`
}

// RetrievalError is the structured failure carried by an unsuccessful result.
type RetrievalError struct {
	Message string `json:"message"`
	Source  string `json:"source"`
	Details string `json:"details,omitempty"`
}

// RetrievalResult wraps a FinancialRecord with provenance.
type RetrievalResult struct {
	RequestID   string           `json:"requestId"`
	Success     bool             `json:"success"`
	CompanyName string           `json:"companyName"`
	Domain      string           `json:"domain"`
	Data        *FinancialRecord `json:"data,omitempty"`
	Source      string           `json:"source,omitempty"`
	RetrievedAt time.Time        `json:"retrievedAt"`
	Cached      bool             `json:"cached"`
	Error       *RetrievalError  `json:"error,omitempty"`
	Attempts    []SourceAttempt  `json:"attempts,omitempty"`
}

// CacheEntry is one persisted retrieval.
type CacheEntry struct {
	CompanyName string          `json:"companyName"`
	Domain      string          `json:"domain"`
	Data        FinancialRecord `json:"data"`
	Source      string          `json:"source"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// IsFresh reports whether the entry is still inside ttl at now.
func (e *CacheEntry) IsFresh(now time.Time, ttl time.Duration) bool {
	return e != nil && now.Sub(e.CreatedAt) < ttl
}
