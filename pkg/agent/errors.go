package agent

import "errors"

// ErrAgentInvocationFailed is returned when the model provider fails
// (credentials, rate limit, network, timeout) or a tool aborts the run.
var ErrAgentInvocationFailed = errors.New("agent invocation failed")

// abortError marks a tool error that ends the run instead of being fed
// back to the model as an observation.
type abortError struct {
	err error
}

func (e *abortError) Error() string { return e.err.Error() }
func (e *abortError) Unwrap() error { return e.err }

// Abort wraps err so the agent stops and returns it, wrapped in
// ErrAgentInvocationFailed. A nil err returns nil.
func Abort(err error) error {
	if err == nil {
		return nil
	}
	return &abortError{err: err}
}
