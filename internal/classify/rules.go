package classify

import (
	"context"

	"github.com/crashsense-ai/crashsense/internal/reading"
	"github.com/crashsense-ai/crashsense/internal/verdict"
)

// rule is one row of the deterministic table: a predicate over the reading
// and the verdict it produces.
type rule struct {
	match func(r reading.Reading) bool
	out   verdict.Verdict
}

// ruleTable is evaluated top to bottom, first match wins. Lower bounds are
// inclusive, upper bounds exclusive. The severe-accident row sits above the
// possible-collision row because its conditions narrow that row's range with
// a tilt floor; everything else is mutually exclusive, and the default row
// must stay last.
var ruleTable = []rule{
	{
		match: func(r reading.Reading) bool { return r.Impact < 2 && r.Speed < 5 },
		out:   verdict.Verdict{IsAccident: false, Severity: verdict.SeverityLow, Summary: "minor vibration", Action: verdict.ActionIgnore},
	},
	{
		match: func(r reading.Reading) bool { return r.Impact >= 2 && r.Impact < 8 && r.Speed > 20 && r.Tilt < 20 },
		out:   verdict.Verdict{IsAccident: false, Severity: verdict.SeverityLow, Summary: "pothole/hard braking", Action: verdict.ActionLogEvent},
	},
	{
		match: func(r reading.Reading) bool { return r.Impact >= 12 && r.Speed >= 60 && r.Tilt >= 45 },
		out:   verdict.Verdict{IsAccident: true, Severity: verdict.SeverityCritical, Summary: "severe accident", Action: verdict.ActionDispatchAmbulance},
	},
	{
		match: func(r reading.Reading) bool { return r.Impact >= 8 && r.Speed >= 40 },
		out:   verdict.Verdict{IsAccident: true, Severity: verdict.SeverityMedium, Summary: "possible collision", Action: verdict.ActionNotifyContact},
	},
}

var defaultVerdict = verdict.Verdict{
	IsAccident: false,
	Severity:   verdict.SeverityLow,
	Summary:    "unclear sensor pattern",
	Action:     verdict.ActionLogEvent,
}

// Rules is the deterministic fallback tier. It is pure, total, and
// independently auditable: the thresholds encode the known false-positive
// scenarios (dropped device, pothole at speed) as explicit exclusions.
type Rules struct{}

// NewRules returns the deterministic rule-table strategy.
func NewRules() *Rules {
	return &Rules{}
}

// Classify evaluates the rule table. It never returns an error.
func (*Rules) Classify(_ context.Context, r reading.Reading) (verdict.Verdict, error) {
	for _, rl := range ruleTable {
		if rl.match(r) {
			return rl.out, nil
		}
	}
	return defaultVerdict, nil
}
