package reading

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Reading is one validated sensor sample. It is immutable and lives only for
// the duration of the request that carried it.
type Reading struct {
	Impact   float64
	Speed    float64
	Tilt     float64
	Location string
}

// MaxLocationLen bounds the sanitized location so it cannot blow up the size
// of an outbound prompt or alert message.
const MaxLocationLen = 100

// ValidationError reports a malformed or missing input field. It is the only
// error class that surfaces to the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// rawPayload keeps every field untyped so each one can be checked
// individually instead of letting the decoder coerce or zero them.
type rawPayload struct {
	Impact   json.RawMessage `json:"impact"`
	Speed    json.RawMessage `json:"speed"`
	Tilt     json.RawMessage `json:"tilt"`
	Location json.RawMessage `json:"location"`
}

// Parse validates an arbitrary JSON payload into a Reading. All four fields
// must be present; impact, speed and tilt must be finite JSON numbers;
// location must be non-empty text after sanitization. Parse has no side
// effects.
func Parse(raw []byte) (Reading, error) {
	var p rawPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Reading{}, &ValidationError{Field: "body", Reason: "not a JSON object"}
	}

	impact, err := parseNumber("impact", p.Impact)
	if err != nil {
		return Reading{}, err
	}
	if impact < 0 {
		return Reading{}, &ValidationError{Field: "impact", Reason: "must be non-negative"}
	}

	speed, err := parseNumber("speed", p.Speed)
	if err != nil {
		return Reading{}, err
	}
	if speed < 0 {
		return Reading{}, &ValidationError{Field: "speed", Reason: "must be non-negative"}
	}

	tilt, err := parseNumber("tilt", p.Tilt)
	if err != nil {
		return Reading{}, err
	}
	if tilt < 0 || tilt > 180 {
		return Reading{}, &ValidationError{Field: "tilt", Reason: "must be within [0, 180] degrees"}
	}

	loc, err := parseLocation(p.Location)
	if err != nil {
		return Reading{}, err
	}

	return Reading{Impact: impact, Speed: speed, Tilt: tilt, Location: loc}, nil
}

func parseNumber(field string, raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, &ValidationError{Field: field, Reason: "missing"}
	}
	// strconv rejects quoted strings, booleans and null, so anything that is
	// not a plain JSON number fails here. The finite check below backstops
	// the Inf/NaN spellings strconv does accept.
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, &ValidationError{Field: field, Reason: "must be a number"}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Field: field, Reason: "must be finite"}
	}
	return v, nil
}

func parseLocation(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", &ValidationError{Field: "location", Reason: "missing"}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &ValidationError{Field: "location", Reason: "must be a string"}
	}
	s = SanitizeLocation(s)
	if s == "" {
		return "", &ValidationError{Field: "location", Reason: "must be non-empty"}
	}
	return s, nil
}

// SanitizeLocation strips control and markup characters that could leak into
// an outbound prompt or SMS body, trims surrounding space, and truncates to
// MaxLocationLen bytes on a rune boundary. Sanitizing already-sanitized text
// is a no-op.
func SanitizeLocation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\n', '\r', '<', '>', '`', '\'', '"':
			continue
		}
		b.WriteRune(r)
	}
	out := strings.TrimSpace(b.String())
	if len(out) > MaxLocationLen {
		cut := MaxLocationLen
		for cut > 0 && !utf8StartByte(out[cut]) {
			cut--
		}
		out = strings.TrimSpace(out[:cut])
	}
	return out
}

func utf8StartByte(b byte) bool {
	return b&0xC0 != 0x80
}
