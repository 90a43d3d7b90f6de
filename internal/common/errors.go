// Package common defines shared constants and sentinel errors used across
// chatkeeper components. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrValidation is the parent of every input validation failure. A record
	// is never created when one of these is returned.
	ErrValidation   = errors.New("validation error")
	ErrTooLong      = fmt.Errorf("%w: message too long", ErrValidation)
	ErrInvalidURL   = fmt.Errorf("%w: invalid url", ErrValidation)
	ErrEmptyContent = fmt.Errorf("%w: empty content", ErrValidation)

	// External collaborator failures (scheduler, calendar, metadata fetch).
	ErrExternalService = errors.New("external service error")

	// Encryption errors.
	ErrDecrypt       = errors.New("decryption failed")
	ErrKeyProtected  = errors.New("encryption key is passphrase protected")
	ErrWrongKeyStore = errors.New("malformed stored encryption key")
)
