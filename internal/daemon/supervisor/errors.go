package supervisor

import "errors"

// ErrShutdown is returned by Start once the supervisor has been shut down.
var ErrShutdown = errors.New("supervisor is shut down")

// SpawnError reports that the service process could not be launched.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return "failed to start service: " + e.Err.Error()
}

func (e *SpawnError) Unwrap() error { return e.Err }

// TerminateError reports that the held process could not be confirmed dead.
type TerminateError struct {
	PID int
	Err error
}

func (e *TerminateError) Error() string {
	return "failed to stop service: " + e.Err.Error()
}

func (e *TerminateError) Unwrap() error { return e.Err }
