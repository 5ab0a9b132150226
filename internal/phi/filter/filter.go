// Package filter suppresses known detector false positives. The allow-list
// is data, not code: a compiled-in default plus an optional YAML file, so
// deployments extend the vocabulary without touching scan logic.
package filter

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"carelog/internal/phi/pattern"
)

// Allowlist carries the per-detector suppression vocabulary. Only the
// name-like detector is filtered today; the structure keeps the seam open
// for others.
type Allowlist struct {
	// NameTokens suppress a name-like match that contains any of them:
	// ward/room vocabulary and the "Baby" nickname marker used for
	// not-yet-named newborns.
	NameTokens []string `yaml:"name_tokens"`
}

// Default returns the compiled-in allow-list.
func Default() Allowlist {
	return Allowlist{
		NameTokens: []string{
			"Room", "Ward", "Wing", "Unit", "Bed", "Bay", "Floor", "Baby",
		},
	}
}

// Load reads an allow-list YAML file. An empty path or a missing file
// yields the default list.
func Load(path string) (Allowlist, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Allowlist{}, fmt.Errorf("allowlist read: %w", err)
	}
	var a Allowlist
	if err := yaml.Unmarshal(data, &a); err != nil {
		return Allowlist{}, fmt.Errorf("allowlist unmarshal: %w", err)
	}
	if len(a.NameTokens) == 0 {
		a.NameTokens = Default().NameTokens
	}
	return a, nil
}

// Apply removes known false positives from a detector's raw matches. The
// returned slice preserves match order; it may be empty, in which case the
// detector contributes no finding for the field.
func (a Allowlist) Apply(detector string, matches []string) []string {
	if detector != pattern.DetectorNameLike || len(matches) == 0 {
		return matches
	}
	kept := matches[:0:0]
	for _, m := range matches {
		if !a.containsToken(m) {
			kept = append(kept, m)
		}
	}
	return kept
}

func (a Allowlist) containsToken(match string) bool {
	for _, tok := range a.NameTokens {
		if strings.Contains(match, tok) {
			return true
		}
	}
	return false
}
