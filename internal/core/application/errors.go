package application

import "errors"

var (
	// ErrMissingRequester is returned when a request carries no user id.
	ErrMissingRequester = errors.New("missing requester identity")
	// ErrMonitorAlreadyStarted ...
	ErrMonitorAlreadyStarted = errors.New("transaction monitor already started")
	// ErrServiceUnavailable is returned in case of internal errors.
	ErrServiceUnavailable = errors.New("service is unavailable, try again later")
)
