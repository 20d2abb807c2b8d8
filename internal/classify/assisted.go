package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crashsense-ai/crashsense/internal/reading"
	"github.com/crashsense-ai/crashsense/internal/reasoner"
	"github.com/crashsense-ai/crashsense/internal/verdict"
)

// promptTemplate states the same semantic rules as the deterministic table
// in natural language, so the two tiers agree on what an accident is. The
// reply must be a bare JSON object in the verdict shape.
const promptTemplate = `You are an accident-detection classifier for vehicle crash sensors.

Sensor reading:
- impact: %.2f G
- speed: %.2f
- tilt: %.2f degrees
- location: %s

Rules:
- impact below 2 with speed below 5 is a minor vibration, not an accident (action Ignore).
- impact between 2 and 8 with speed above 20 and tilt below 20 is a pothole or hard braking, not an accident (action LogEvent).
- impact of 12 or more with speed of 60 or more and tilt of 45 or more is a severe accident, severity CRITICAL (action DispatchAmbulance).
- impact of 8 or more with speed of 40 or more is a possible collision, severity MEDIUM (action NotifyContact).
- anything else is an unclear sensor pattern, not an accident (action LogEvent).
- a high impact with near-zero speed is a dropped device, not an accident.

Respond with only a JSON object:
{"isAccident": bool, "severity": "LOW"|"MEDIUM"|"CRITICAL", "summary": "<short text>", "action": "Ignore"|"LogEvent"|"NotifyContact"|"DispatchAmbulance"}`

// Assisted is the primary tier: it asks the external reasoning service to
// classify the reading and strictly decodes the reply. One attempt per
// request; any failure is reported as ErrReasoningUnavailable.
type Assisted struct {
	client reasoner.Client
}

// NewAssisted wraps a reasoning client as a classification strategy.
func NewAssisted(client reasoner.Client) *Assisted {
	return &Assisted{client: client}
}

func (a *Assisted) Classify(ctx context.Context, r reading.Reading) (verdict.Verdict, error) {
	prompt := BuildPrompt(r)

	reply, err := a.client.Complete(ctx, prompt)
	if err != nil {
		return verdict.Verdict{}, fmt.Errorf("%w: %v", ErrReasoningUnavailable, err)
	}

	v, err := DecodeVerdict(reply)
	if err != nil {
		return verdict.Verdict{}, fmt.Errorf("%w: %v", ErrReasoningUnavailable, err)
	}
	return v, nil
}

// BuildPrompt renders the classification prompt for one sanitized reading.
func BuildPrompt(r reading.Reading) string {
	return fmt.Sprintf(promptTemplate, r.Impact, r.Speed, r.Tilt, r.Location)
}

// DecodeVerdict strictly decodes a reasoning-service reply into a verdict.
// Models wrap JSON in code fences often enough that the fence is peeled off
// first, but the object itself must decode exactly: unknown fields, unknown
// enum values, or a non-boolean isAccident all fail.
func DecodeVerdict(reply string) (verdict.Verdict, error) {
	text := stripCodeFence(strings.TrimSpace(reply))

	var payload struct {
		IsAccident *bool   `json:"isAccident"`
		Severity   *string `json:"severity"`
		Summary    *string `json:"summary"`
		Action     *string `json:"action"`
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return verdict.Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	if payload.IsAccident == nil || payload.Severity == nil || payload.Summary == nil || payload.Action == nil {
		return verdict.Verdict{}, fmt.Errorf("decode verdict: missing required field")
	}

	v := verdict.Verdict{
		IsAccident: *payload.IsAccident,
		Severity:   verdict.Severity(*payload.Severity),
		Summary:    strings.TrimSpace(*payload.Summary),
		Action:     verdict.Action(*payload.Action),
	}
	if !v.WellFormed() {
		return verdict.Verdict{}, fmt.Errorf("decode verdict: malformed verdict %+v", v)
	}
	return v, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// drop a language tag like ```json
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
