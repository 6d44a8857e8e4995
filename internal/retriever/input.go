package retriever

import (
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ParseCompanyInput splits a caller reference into a company name and a
// domain. URLs yield their host as the domain and its first label as a
// provisional name; plain names yield an empty domain. It never fails: input
// that looks like a URL but does not parse comes back as both name and domain.
func ParseCompanyInput(input string) (name, domain string) {
	input = strings.TrimSpace(input)
	if input == "" || !looksLikeURL(input) {
		return input, ""
	}

	raw := input
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return input, input
	}

	domain = strings.TrimSuffix(strings.TrimPrefix(strings.ToLower(u.Hostname()), "www."), ".")
	if domain == "" {
		return input, input
	}
	label, _, _ := strings.Cut(domain, ".")
	name = strings.Join(strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(label)), " ")
	if name == "" {
		name = domain
	}
	return name, domain
}

func looksLikeURL(s string) bool {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "://") || strings.HasPrefix(lower, "www.") {
		return true
	}
	if strings.ContainsAny(s, " \t") || !strings.Contains(s, ".") {
		return false
	}

	host, _, _ := strings.Cut(lower, "/")
	host = strings.TrimSuffix(host, ".")
	suffix, icann := publicsuffix.PublicSuffix(host)
	return icann && suffix != host
}
