// Package phi defines the finding type shared by the pattern library,
// scanner, and audit trail.
package phi

import "unicode/utf8"

// SampleLimit caps the redacted sample carried on a finding. The sample
// exists for human review of audit entries; it must never reproduce the
// full matched text.
const SampleLimit = 20

// Finding is one detector hit on one field of a scanned document. Findings
// are ephemeral: they live for the duration of a scan and are summarized
// into an audit entry when enforcement acts.
type Finding struct {
	Field    string `json:"field"`
	Detector string `json:"detector"`
	Count    int    `json:"count"`
	Sample   string `json:"sample"`
}

// Truncate shortens s to at most SampleLimit runes for audit samples.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= SampleLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:SampleLimit])
}
