package verdict

import "strings"

// Severity grades how bad a classified event is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityCritical Severity = "CRITICAL"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityCritical:
		return true
	}
	return false
}

// rank orders severities LOW < MEDIUM < CRITICAL. Unknown values rank lowest.
func (s Severity) rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityCritical:
		return 2
	}
	return 0
}

// AtLeast reports whether s is at or above min in severity order.
func (s Severity) AtLeast(min Severity) bool {
	return s.rank() >= min.rank()
}

// Action is the recommended response to a verdict. It is a recommendation,
// not a record of what was executed.
type Action string

const (
	ActionIgnore            Action = "Ignore"
	ActionLogEvent          Action = "LogEvent"
	ActionNotifyContact     Action = "NotifyContact"
	ActionDispatchAmbulance Action = "DispatchAmbulance"
)

// Valid reports whether a is one of the known actions.
func (a Action) Valid() bool {
	switch a {
	case ActionIgnore, ActionLogEvent, ActionNotifyContact, ActionDispatchAmbulance:
		return true
	}
	return false
}

const maxSummaryLen = 200

// Verdict is the decision engine's output for one reading.
type Verdict struct {
	IsAccident bool     `json:"isAccident"`
	Severity   Severity `json:"severity"`
	Summary    string   `json:"summary"`
	Action     Action   `json:"action"`
}

// Normalize enforces the verdict invariants in place and returns the result:
// CRITICAL implies an accident, a non-accident only carries passive actions,
// and the summary stays within a fixed bound.
func (v Verdict) Normalize() Verdict {
	if v.Severity == SeverityCritical {
		v.IsAccident = true
	}
	if !v.IsAccident && v.Action != ActionIgnore && v.Action != ActionLogEvent {
		v.Action = ActionLogEvent
	}
	v.Summary = strings.TrimSpace(v.Summary)
	if len(v.Summary) > maxSummaryLen {
		v.Summary = v.Summary[:maxSummaryLen]
	}
	return v
}

// WellFormed reports whether v already satisfies every invariant. It is the
// check applied to externally produced verdicts before they are trusted.
func (v Verdict) WellFormed() bool {
	if !v.Severity.Valid() || !v.Action.Valid() {
		return false
	}
	if v.Severity == SeverityCritical && !v.IsAccident {
		return false
	}
	if !v.IsAccident && v.Action != ActionIgnore && v.Action != ActionLogEvent {
		return false
	}
	return v.Summary != ""
}
