package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crashsense-ai/crashsense/internal/reading"
	"github.com/crashsense-ai/crashsense/internal/verdict"
)

func TestRulesTable(t *testing.T) {
	cases := []struct {
		name string
		r    reading.Reading
		want verdict.Verdict
	}{
		{
			name: "minor vibration",
			r:    reading.Reading{Impact: 1, Speed: 2, Tilt: 0, Location: "Home"},
			want: verdict.Verdict{IsAccident: false, Severity: verdict.SeverityLow, Summary: "minor vibration", Action: verdict.ActionIgnore},
		},
		{
			name: "pothole at speed",
			r:    reading.Reading{Impact: 5, Speed: 30, Tilt: 5, Location: "Highway"},
			want: verdict.Verdict{IsAccident: false, Severity: verdict.SeverityLow, Summary: "pothole/hard braking", Action: verdict.ActionLogEvent},
		},
		{
			name: "possible collision",
			r:    reading.Reading{Impact: 10, Speed: 50, Tilt: 10, Location: "City Rd"},
			want: verdict.Verdict{IsAccident: true, Severity: verdict.SeverityMedium, Summary: "possible collision", Action: verdict.ActionNotifyContact},
		},
		{
			name: "severe accident",
			r:    reading.Reading{Impact: 15, Speed: 70, Tilt: 50, Location: "NH44"},
			want: verdict.Verdict{IsAccident: true, Severity: verdict.SeverityCritical, Summary: "severe accident", Action: verdict.ActionDispatchAmbulance},
		},
		{
			name: "unclear pattern",
			r:    reading.Reading{Impact: 3, Speed: 10, Tilt: 30, Location: "Lot"},
			want: verdict.Verdict{IsAccident: false, Severity: verdict.SeverityLow, Summary: "unclear sensor pattern", Action: verdict.ActionLogEvent},
		},
		{
			name: "dropped device: high impact zero speed",
			r:    reading.Reading{Impact: 20, Speed: 0, Tilt: 90, Location: "Desk"},
			want: verdict.Verdict{IsAccident: false, Severity: verdict.SeverityLow, Summary: "unclear sensor pattern", Action: verdict.ActionLogEvent},
		},
	}
	rules := NewRules()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := rules.Classify(context.Background(), tc.r)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRulesBoundaries(t *testing.T) {
	rules := NewRules()

	// impact=2 leaves the minor-vibration row; speed=4 misses the pothole
	// row's speed floor, so this falls through to the default.
	got, _ := rules.Classify(context.Background(), reading.Reading{Impact: 2, Speed: 4})
	assert.Equal(t, "unclear sensor pattern", got.Summary)

	// exact lower bounds of the collision row are inclusive
	got, _ = rules.Classify(context.Background(), reading.Reading{Impact: 8, Speed: 40})
	assert.Equal(t, verdict.SeverityMedium, got.Severity)
	assert.True(t, got.IsAccident)

	// just under the impact floor falls to the default
	got, _ = rules.Classify(context.Background(), reading.Reading{Impact: 7.9, Speed: 40})
	assert.Equal(t, "unclear sensor pattern", got.Summary)
	assert.False(t, got.IsAccident)

	// exact lower bounds of the critical row
	got, _ = rules.Classify(context.Background(), reading.Reading{Impact: 12, Speed: 60, Tilt: 45})
	assert.Equal(t, verdict.SeverityCritical, got.Severity)

	// critical-range impact/speed with a flat tilt is a collision, not critical
	got, _ = rules.Classify(context.Background(), reading.Reading{Impact: 12, Speed: 60, Tilt: 44.9})
	assert.Equal(t, verdict.SeverityMedium, got.Severity)

	// pothole row's tilt cap is exclusive
	got, _ = rules.Classify(context.Background(), reading.Reading{Impact: 5, Speed: 30, Tilt: 20})
	assert.Equal(t, "unclear sensor pattern", got.Summary)
}

func TestRulesVerdictsWellFormed(t *testing.T) {
	rules := NewRules()
	samples := []reading.Reading{
		{Impact: 0, Speed: 0, Tilt: 0},
		{Impact: 2, Speed: 5, Tilt: 20},
		{Impact: 8, Speed: 40, Tilt: 45},
		{Impact: 100, Speed: 200, Tilt: 180},
	}
	for _, r := range samples {
		v, err := rules.Classify(context.Background(), r)
		require.NoError(t, err)
		assert.True(t, v.WellFormed(), "verdict for %+v: %+v", r, v)
	}
}
