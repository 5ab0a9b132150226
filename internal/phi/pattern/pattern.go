// Package pattern holds the fixed detector set used to recognize text that
// resembles protected personal information. A Library is built once at
// startup from configuration and passed explicitly into the scanner; there
// is no ambient global detector table.
package pattern

import (
	"regexp"
	"strings"
)

// Detector names. Stable identifiers: they appear in findings, audit
// entries, and metrics labels.
const (
	DetectorNameLike      = "name-like"
	DetectorIdentifier    = "identifier-number"
	DetectorBirthDate     = "birth-date-like"
	DetectorNationalID    = "national-id-like"
	DetectorPhone         = "phone-like"
	DetectorPersonalEmail = "personal-email"
	DetectorCalendarDate  = "explicit-calendar-date"
	DetectorStreetAddress = "street-address-like"
)

var (
	// Two or more consecutive capitalized word tokens, the first/last name
	// heuristic. Prone to false positives on clinical vocabulary; the
	// finding filter suppresses those.
	nameRe = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)+\b`)

	// A label token followed by a run of six or more digits.
	identifierRe = regexp.MustCompile(`(?i)(?:\b(?:id|record)\b|#)\s*:?\s*\d{6,}\b`)

	// A birth-related label followed by a numeric D/M/Y-ish date.
	birthDateRe = regexp.MustCompile(`(?i)\b(?:born|birth|dob)\b\D{0,10}\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}`)

	// Nine digits in the 3-2-4 grouping with optional separators.
	nationalIDRe = regexp.MustCompile(`\b(?:\d{3}-\d{2}-\d{4}|\d{3} \d{2} \d{4}|\d{9})\b`)

	// Ten digits in the 3-3-4 grouping with optional separators.
	phoneRe = regexp.MustCompile(`\b(?:\d{3}[-. ]\d{3}[-. ]\d{4}|\(\d{3}\)\s*\d{3}[-. ]?\d{4}|\d{10})\b`)

	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Full month name, day, year.
	calendarDateRe = regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`)

	// House number, capitalized word, street-type suffix.
	streetAddressRe = regexp.MustCompile(`\b\d+ [A-Z][a-z]+ (?:Street|St|Avenue|Ave|Road|Rd|Drive|Dr|Lane|Ln|Boulevard|Blvd|Court|Ct|Way|Place|Pl)\b`)
)

// Detector is one named matching rule. Find returns the raw matched
// substrings in order of appearance; it is pure and touches no external
// state.
type Detector struct {
	Name string
	Find func(s string) []string
}

// Config carries the data the library needs beyond its fixed expressions.
type Config struct {
	// InstitutionalDomains are email domains that do not count as personal
	// addresses. Matching is by exact domain or subdomain.
	InstitutionalDomains []string
}

// DefaultInstitutionalDomains is the compiled-in institutional email
// allow-list, overridable through configuration.
func DefaultInstitutionalDomains() []string {
	return []string{"hospital.org"}
}

// Library is the immutable, ordered detector set.
type Library struct {
	detectors []Detector
}

// NewLibrary builds the detector set. Detector order is fixed and only
// affects which findings are reported first, never whether text matches.
func NewLibrary(cfg Config) *Library {
	domains := cfg.InstitutionalDomains
	if domains == nil {
		domains = DefaultInstitutionalDomains()
	}
	institutional := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		institutional[strings.ToLower(d)] = struct{}{}
	}

	return &Library{detectors: []Detector{
		{Name: DetectorNameLike, Find: finder(nameRe)},
		{Name: DetectorIdentifier, Find: finder(identifierRe)},
		{Name: DetectorBirthDate, Find: finder(birthDateRe)},
		{Name: DetectorNationalID, Find: finder(nationalIDRe)},
		{Name: DetectorPhone, Find: finder(phoneRe)},
		{Name: DetectorPersonalEmail, Find: personalEmailFinder(institutional)},
		{Name: DetectorCalendarDate, Find: finder(calendarDateRe)},
		{Name: DetectorStreetAddress, Find: finder(streetAddressRe)},
	}}
}

// Detectors returns the ordered detector set. Callers must not mutate the
// returned slice.
func (l *Library) Detectors() []Detector {
	return l.detectors
}

func finder(re *regexp.Regexp) func(string) []string {
	return func(s string) []string {
		return re.FindAllString(s, -1)
	}
}

// personalEmailFinder matches any email address, then drops those on an
// institutional domain or a subdomain of one.
func personalEmailFinder(institutional map[string]struct{}) func(string) []string {
	return func(s string) []string {
		var personal []string
		for _, m := range emailRe.FindAllString(s, -1) {
			at := strings.LastIndexByte(m, '@')
			domain := strings.ToLower(m[at+1:])
			if isInstitutional(domain, institutional) {
				continue
			}
			personal = append(personal, m)
		}
		return personal
	}
}

func isInstitutional(domain string, institutional map[string]struct{}) bool {
	if _, ok := institutional[domain]; ok {
		return true
	}
	for allowed := range institutional {
		if strings.HasSuffix(domain, "."+allowed) {
			return true
		}
	}
	return false
}
