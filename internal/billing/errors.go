package billing

import "errors"

var (
	// ErrMalformedEvent indicates a required field is missing from an event
	// payload where the event kind mandates it.
	ErrMalformedEvent = errors.New("malformed provider event")

	// ErrUnknownUser indicates a correlation id that does not resolve to a
	// real user. Surfaced rather than swallowed: it points at a data
	// integrity problem between checkout and the user directory.
	ErrUnknownUser = errors.New("event references unknown user")

	// ErrProviderUnavailable indicates an outbound call to the payment
	// provider failed.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrSignatureInvalid indicates a webhook payload failed the
	// authenticity check.
	ErrSignatureInvalid = errors.New("webhook signature verification failed")

	// ErrRecordNotFound indicates no subscription record exists for the
	// given key.
	ErrRecordNotFound = errors.New("subscription record not found")
)
