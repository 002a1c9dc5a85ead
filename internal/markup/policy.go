// Package markup is the trust boundary for the compliance report. The
// analysis service returns the report as HTML, and the console has to decide
// whether that HTML is shown as-is or cleaned first. The decision is a
// configuration value, never implicit.
package markup

import (
	"fmt"
	"html/template"
	"strings"
)

// Policy decides how service-supplied markup reaches the page.
type Policy string

const (
	// PolicyTrusted treats the analysis service as fully trusted: the report
	// is injected verbatim. Only suitable when the service is operated by the
	// same party as the console and reached over a private network.
	PolicyTrusted Policy = "trusted"
	// PolicySanitize keeps allow-listed elements and attributes only.
	PolicySanitize Policy = "sanitize"
)

// DefaultPolicy is used when nothing is configured.
const DefaultPolicy = PolicySanitize

// ParsePolicy accepts the configured value, case-insensitively. Empty means DefaultPolicy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultPolicy, nil
	case PolicyTrusted:
		return PolicyTrusted, nil
	case PolicySanitize:
		return PolicySanitize, nil
	default:
		return "", fmt.Errorf("unknown report trust policy %q (allowed: trusted, sanitize)", s)
	}
}

// Render returns the report ready for html/template. Both policies produce
// markup, not escaped text.
func (p Policy) Render(raw string) template.HTML {
	if p == PolicyTrusted {
		return template.HTML(raw) // #nosec G203 -- operator opted into trusting the analysis service
	}
	return template.HTML(Sanitize(raw))
}
