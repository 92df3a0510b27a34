package domain

import "errors"

var (
	// ErrAuth: the client-credentials exchange with the provider failed.
	ErrAuth = errors.New("provider authentication failed")
	// ErrUpstream: the provider answered with a non-success status.
	ErrUpstream = errors.New("provider request failed")
	// ErrParse: the provider response did not match the expected shape.
	ErrParse = errors.New("malformed provider response")
	// ErrNotFound: offer or booking absence, surfaced to the client as 404.
	ErrNotFound = errors.New("not found")
	// ErrPriceUnavailable: reconfirmation could not be obtained; no booking is persisted.
	ErrPriceUnavailable = errors.New("price unavailable")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidInput: caller-supplied data failed validation, surfaced as 400.
	ErrInvalidInput = errors.New("invalid input")
)
