package classify

import (
	"context"
	"errors"

	"github.com/crashsense-ai/crashsense/internal/reading"
	"github.com/crashsense-ai/crashsense/internal/verdict"
)

// Strategy is one way of turning a reading into a verdict. The engine holds
// two of them and degrades from the assisted one to the deterministic one.
type Strategy interface {
	Classify(ctx context.Context, r reading.Reading) (verdict.Verdict, error)
}

// ErrReasoningUnavailable marks a primary-tier failure: the reasoning service
// could not be reached or returned output that does not decode into a
// well-formed verdict. It is recovered locally and never reaches the caller.
var ErrReasoningUnavailable = errors.New("reasoning service unavailable")
