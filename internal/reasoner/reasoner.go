package reasoner

import "context"

// Client is the interface to the external reasoning service. The caller
// treats any error, and any reply it cannot decode, uniformly as "primary
// tier unavailable".
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
