package service

import "errors"

var (
	// ErrValidation wraps any rejected input. The wrapping message says
	// which field failed.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateEmail is returned by Register when the email is taken
	// (case-insensitively).
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials deliberately covers both an unknown email and
	// a wrong password so a caller cannot probe which emails exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrThrottled is returned by Login when the account has seen too
	// many recent failed attempts.
	ErrThrottled = errors.New("too many login attempts")

	// ErrOwnerNotFound aborts a child create whose owning user does not
	// exist.
	ErrOwnerNotFound = errors.New("owner not found")

	// ErrNotFound covers a missing record, and also a record the caller
	// does not own (so ownership cannot be probed by id).
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable signals a transient backing-store failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)
