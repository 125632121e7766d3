// Package redact provides best-effort pattern-based scrubbing of sensitive
// substrings from segment text before it is embedded or indexed.
//
// The rules are small regexes and will both over- and under-match; this is
// a filter, not a guarantee of PII removal. Anything needing real
// compliance should use a dedicated PII service in front of this.
package redact

import "regexp"

// TextFilter transforms segment text before indexing. Implementations
// must be safe to re-apply: filtering already-filtered text is a no-op.
type TextFilter interface {
	Filter(text string) string
}

// Passthrough is the filter used when redaction is disabled.
type Passthrough struct{}

// Filter returns the text unchanged.
func (Passthrough) Filter(text string) string { return text }

type rule struct {
	pattern     *regexp.Regexp
	placeholder string
}

// Redactor masks common sensitive tokens with per-category placeholders.
// Rules run in a fixed order; placeholders contain no digits or address
// characters, so a span replaced by one rule is never re-matched by a
// later rule or by a second pass.
type Redactor struct {
	rules []rule
}

// New returns a Redactor with the standard rule set: payment cards, US
// SSNs, email addresses, phone numbers, and IPv4 addresses.
func New() *Redactor {
	return &Redactor{
		rules: []rule{
			// Cards first: 13-16 digits with optional spaces or hyphens,
			// so card-length digit runs are not eaten by the phone rule.
			{regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`), "[CARD]"},
			{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), "[SSN]"},
			{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), "[EMAIL]"},
			// IPv4 before phone: the loose phone pattern allows dots and
			// would otherwise swallow dotted addresses.
			{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), "[IP]"},
			// Loose phone match: +, (), -, spaces allowed, roughly 10+ digits.
			{regexp.MustCompile(`\+?\d[\d\s\-().]{8,}\d`), "[PHONE]"},
		},
	}
}

// Filter applies every rule in order, replacing matches with the rule's
// placeholder. Text without matches is returned unchanged.
func (r *Redactor) Filter(text string) string {
	for _, rule := range r.rules {
		text = rule.pattern.ReplaceAllString(text, rule.placeholder)
	}
	return text
}
