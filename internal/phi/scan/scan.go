// Package scan walks a document tree and applies the pattern library to
// every reachable string field.
package scan

import (
	"fmt"

	"carelog/internal/docstore"
	"carelog/internal/phi"
	"carelog/internal/phi/filter"
	"carelog/internal/phi/pattern"
)

// Scanner applies an immutable detector library and allow-list to document
// trees. Scanning is pure: identical input always yields identical ordered
// findings, and malformed or non-string values are simply not scanned.
type Scanner struct {
	lib   *pattern.Library
	allow filter.Allowlist
}

// New builds a scanner over the given library and allow-list.
func New(lib *pattern.Library, allow filter.Allowlist) *Scanner {
	return &Scanner{lib: lib, allow: allow}
}

// Scan traverses doc depth-first in field insertion order (list elements in
// index order) and returns every unsuppressed finding. String scalars are
// matched against each detector; numbers, booleans, and nulls are skipped;
// the administrative timestamp fields are never scanned.
func (s *Scanner) Scan(doc *docstore.Document) []phi.Finding {
	var findings []phi.Finding
	s.walkDoc("", doc, &findings)
	return findings
}

func (s *Scanner) walkDoc(path string, doc *docstore.Document, findings *[]phi.Finding) {
	for _, f := range doc.Fields() {
		if f.Name == docstore.FieldCreatedAt || f.Name == docstore.FieldUpdatedAt {
			continue
		}
		fieldPath := f.Name
		if path != "" {
			fieldPath = path + "." + f.Name
		}
		s.walkValue(fieldPath, f.Value, findings)
	}
}

func (s *Scanner) walkValue(path string, v docstore.Value, findings *[]phi.Finding) {
	switch v.Kind {
	case docstore.KindString:
		s.scanString(path, v.Str, findings)
	case docstore.KindDoc:
		s.walkDoc(path, v.Doc, findings)
	case docstore.KindList:
		for i, e := range v.List {
			s.walkValue(fmt.Sprintf("%s[%d]", path, i), e, findings)
		}
	}
	// Numbers, booleans, and nulls carry no scannable text.
}

func (s *Scanner) scanString(path, text string, findings *[]phi.Finding) {
	for _, det := range s.lib.Detectors() {
		matches := s.allow.Apply(det.Name, det.Find(text))
		if len(matches) == 0 {
			continue
		}
		*findings = append(*findings, phi.Finding{
			Field:    path,
			Detector: det.Name,
			Count:    len(matches),
			Sample:   phi.Truncate(matches[0]),
		})
	}
}
