package crawler

// OutcomeKind classifies how a single candidate was resolved.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeOK       OutcomeKind = "ok"
	OutcomeSkip     OutcomeKind = "skip"
	OutcomeDegraded OutcomeKind = "degraded"
)

// Outcome is the per-item result threaded through the engine loops.
// Skip carries no record; Degraded carries a record with Error set.
type Outcome struct {
	Kind   OutcomeKind
	Record Record
	Reason error
}

// Ok wraps a successful record.
func Ok(rec Record) Outcome {
	return Outcome{Kind: OutcomeOK, Record: rec}
}

// Skip drops the item and keeps the reason for logging.
func Skip(reason error) Outcome {
	return Outcome{Kind: OutcomeSkip, Reason: reason}
}

// Degrade keeps the identifying fields of rec and records the failure.
func Degrade(rec Record, reason error) Outcome {
	if reason != nil {
		rec.Error = reason.Error()
	}
	return Outcome{Kind: OutcomeDegraded, Record: rec, Reason: reason}
}

// HasRecord reports whether the outcome contributes to the dataset.
func (o Outcome) HasRecord() bool {
	return o.Kind == OutcomeOK || o.Kind == OutcomeDegraded
}
