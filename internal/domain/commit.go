package domain

// CommitOutcome is the per-event result of a commit attempt: either a
// reference into the domain store or the error that stopped this one event.
type CommitOutcome struct {
	EventID   string
	Kind      EventKind
	Reference string
	Err       error
}

// CommitResult collects per-event outcomes. One event failing never blocks
// the others, so callers inspect both partitions.
type CommitResult struct {
	Outcomes []CommitOutcome
}

// Succeeded returns the outcomes that produced a store reference.
func (r CommitResult) Succeeded() []CommitOutcome {
	var ok []CommitOutcome
	for _, o := range r.Outcomes {
		if o.Err == nil {
			ok = append(ok, o)
		}
	}
	return ok
}

// Failed returns the outcomes that carry an error.
func (r CommitResult) Failed() []CommitOutcome {
	var failed []CommitOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
