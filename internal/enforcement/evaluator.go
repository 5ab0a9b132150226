// Package enforcement reacts to committed entry writes: it scans the new
// value for text resembling protected personal information and, on any
// unsuppressed finding, deletes the record (creates) or restores the prior
// value (updates), then records the action in the audit trail.
//
// The algorithmic core is the Evaluator, which performs no I/O; the Handler
// is the thin adapter binding it to the document store's trigger events.
package enforcement

import (
	"carelog/internal/docstore"
	"carelog/internal/phi"
	"carelog/internal/phi/scan"
)

// Decision is the verdict for one committed write.
type Decision string

const (
	// DecisionAccepted means the write carries no unsuppressed finding and
	// persists untouched.
	DecisionAccepted Decision = "accepted"
	// DecisionRejected means a created record must be deleted.
	DecisionRejected Decision = "rejected"
	// DecisionRolledBack means an updated record must be restored to its
	// prior value.
	DecisionRolledBack Decision = "rolled_back"
)

// Outcome is the rejection marker produced by evaluation: the decision plus
// the offending field paths. It never carries the matched content beyond the
// findings' truncated samples.
type Outcome struct {
	Decision Decision
	Findings []phi.Finding
}

// Violation reports whether the outcome demands a corrective action.
func (o Outcome) Violation() bool {
	return o.Decision != DecisionAccepted
}

// FieldPaths lists the offending field paths in finding order.
func (o Outcome) FieldPaths() []string {
	paths := make([]string, len(o.Findings))
	for i, f := range o.Findings {
		paths[i] = f.Field
	}
	return paths
}

// Evaluator decides outcomes for committed writes. It is pure and safe for
// concurrent use: scanning identical input twice yields identical ordered
// findings.
type Evaluator struct {
	scanner *scan.Scanner
}

// NewEvaluator builds an evaluator over a configured scanner.
func NewEvaluator(scanner *scan.Scanner) *Evaluator {
	return &Evaluator{scanner: scanner}
}

// EvaluateCreate scans a newly committed record.
func (e *Evaluator) EvaluateCreate(doc *docstore.Document) Outcome {
	findings := e.scanner.Scan(doc)
	if len(findings) == 0 {
		return Outcome{Decision: DecisionAccepted}
	}
	return Outcome{Decision: DecisionRejected, Findings: findings}
}

// EvaluateUpdate scans the new value of a modified record. The prior value
// is the rollback target, never a scan subject: a taint already present in
// the prior state was either accepted historically or is being removed by
// this very write.
func (e *Evaluator) EvaluateUpdate(newDoc, _ *docstore.Document) Outcome {
	findings := e.scanner.Scan(newDoc)
	if len(findings) == 0 {
		return Outcome{Decision: DecisionAccepted}
	}
	return Outcome{Decision: DecisionRolledBack, Findings: findings}
}
