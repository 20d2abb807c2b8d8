package reasoner

import "context"

// Fake is a test double that returns a canned reply or error.
type Fake struct {
	Reply string
	Err   error

	// Calls counts Complete invocations, for asserting one-attempt behavior.
	Calls int
}

func (f *Fake) Complete(ctx context.Context, prompt string) (string, error) {
	f.Calls++
	if f.Err != nil {
		return "", f.Err
	}
	return f.Reply, nil
}
