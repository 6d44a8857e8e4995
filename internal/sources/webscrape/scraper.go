// Package webscrape pulls financial facts out of public company profile
// pages. It tries a fixed list of target URLs and stops at the first page
// that yields anything.
package webscrape

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"findata-workers/internal/common/config"
	httpclient "findata-workers/internal/common/http"
	"findata-workers/internal/common/logger"
	"findata-workers/internal/financial/extract"
	"findata-workers/internal/models"
	"findata-workers/internal/sources"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	// MaxBodyChars bounds the page text handed to the extractor.
	MaxBodyChars = 50_000

	defaultTimeout = 15 * time.Second
)

type Config struct {
	// Targets are URL templates; {slug}, {domain} and {name} are substituted.
	Targets []string
	Timeout time.Duration
}

// ConfigFrom maps the application config section.
func ConfigFrom(c config.WebScrapeConfig) Config {
	return Config{
		Targets: c.Targets,
		Timeout: config.GetDuration(c.TimeoutMs),
	}
}

type Scraper struct {
	cfg    Config
	client *httpclient.Client
	logger logger.Logger
}

func New(cfg Config, client *httpclient.Client, log logger.Logger) *Scraper {
	if len(cfg.Targets) == 0 {
		cfg.Targets = config.DefaultScrapeTargets
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Scraper{
		cfg:    cfg,
		client: client,
		logger: log.WithFields(map[string]interface{}{"source": sources.NameWebScrape}),
	}
}

func (s *Scraper) Name() string { return sources.NameWebScrape }

// FetchFinancialData never returns an error: every failure mode of a scrape
// target means "try the next target".
func (s *Scraper) FetchFinancialData(ctx context.Context, companyName, domain string) (*models.FinancialRecord, error) {
	for _, target := range s.targets(companyName, domain) {
		if ctx.Err() != nil {
			return nil, nil
		}

		resp, err := s.client.Get(ctx, s.Name(), target, nil, s.cfg.Timeout)
		if err != nil {
			s.logger.Warn("Scrape target failed", map[string]interface{}{
				"url":   target,
				"error": err,
			})
			continue
		}
		if !resp.OK() {
			s.logger.Debug("Scrape target returned non-2xx", map[string]interface{}{
				"url":    target,
				"status": resp.StatusCode,
			})
			continue
		}

		rec, err := ParsePage(resp.Body)
		if err != nil {
			s.logger.Warn("Scrape target returned unparseable HTML", map[string]interface{}{
				"url":   target,
				"error": err,
			})
			continue
		}
		if rec != nil {
			s.logger.Info("Scrape target yielded data", map[string]interface{}{"url": target})
			return rec, nil
		}
	}
	return nil, nil
}

// targets expands the templates, dropping any whose placeholders cannot be filled.
func (s *Scraper) targets(companyName, domain string) []string {
	slug := models.Slugify(companyName)
	out := make([]string, 0, len(s.cfg.Targets))
	for _, tmpl := range s.cfg.Targets {
		if strings.Contains(tmpl, "{domain}") && domain == "" {
			continue
		}
		if strings.Contains(tmpl, "{slug}") && slug == "" {
			continue
		}
		if strings.Contains(tmpl, "{name}") && strings.TrimSpace(companyName) == "" {
			continue
		}
		r := strings.NewReplacer(
			"{slug}", slug,
			"{domain}", domain,
			"{name}", url.QueryEscape(companyName),
		)
		out = append(out, r.Replace(tmpl))
	}
	return out
}

// ParsePage extracts a record from an HTML document: structured selectors
// first, then the text extractor for whatever is still missing. It returns
// nil when nothing was found.
func ParsePage(body []byte) (*models.FinancialRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	rec := &models.FinancialRecord{}
	for _, fs := range fieldSelectors {
		if fs.field == extract.FieldInvestors {
			rec.AddInvestors(models.MaxInvestors, selectAll(doc, fs)...)
			continue
		}
		if raw := selectFirst(doc, fs); raw != "" {
			assign(rec, fs.field, raw)
		}
	}
	rec.Description = metaDescription(doc)

	doc.Find("script, style, noscript, svg").Remove()
	text := pageText(doc.Find("body"))
	rec.Merge(extract.Extract(text))

	return sources.Finalize(rec), nil
}

func metaDescription(doc *goquery.Document) string {
	for _, sel := range []string{`meta[name="description"]`, `meta[property="og:description"]`, `meta[name="twitter:description"]`} {
		content, _ := doc.Find(sel).First().Attr("content")
		content = cleanText(content)
		if len(content) > models.MinDescriptionLength {
			return models.TruncateDescription(content)
		}
	}
	return ""
}

var (
	inlineSpaceRe = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLinesRe  = regexp.MustCompile(`\n\s*\n+`)
)

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "dt": true, "dd": true, "tr": true,
	"td": true, "th": true, "br": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "footer": true,
}

// pageText flattens sel to text, breaking lines at block elements so the
// extractor's label rules do not run across unrelated blocks.
func pageText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			b.WriteString(n.Data)
		case html.ElementNode:
			if blockElements[n.Data] {
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteByte('\n')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	text := inlineSpaceRe.ReplaceAllString(b.String(), " ")
	text = blankLinesRe.ReplaceAllString(text, "\n")
	text = strings.TrimSpace(text)
	if len(text) > MaxBodyChars {
		text = text[:MaxBodyChars]
	}
	return text
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
