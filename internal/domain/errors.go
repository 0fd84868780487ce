package domain

import "errors"

var (
	// ErrRemoteUnavailable marks transport or HTTP status failures talking to the event source.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrMalformedPayload marks responses that match neither known payload shape.
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInvalidDuration marks an unrecognized snooze mode.
	ErrInvalidDuration = errors.New("invalid snooze duration")
	// ErrScheduleNotFound is returned when no record exists for a weekday.
	ErrScheduleNotFound = errors.New("schedule not found")
)
