package errors

import "fmt"

var (
	// Identity layer.
	ErrValidation            = fmt.Errorf("invalid input")
	ErrInvalidPassword       = fmt.Errorf("password does not meet complexity requirements")
	ErrDuplicateEmail        = fmt.Errorf("email already registered")
	ErrInvalidCredentials    = fmt.Errorf("invalid credentials")
	ErrInvalidProviderToken  = fmt.Errorf("provider rejected the access token")
	ErrProviderUnavailable   = fmt.Errorf("identity provider unavailable")
	ErrUnknownProvider       = fmt.Errorf("unknown identity provider")
	ErrAccountCreationFailed = fmt.Errorf("account creation failed")
	ErrAccountNotFound       = fmt.Errorf("account not found")
	ErrTokenGeneration       = fmt.Errorf("token generation failed")

	// Session tokens.
	ErrTokenMalformed        = fmt.Errorf("token malformed")
	ErrTokenInvalidSignature = fmt.Errorf("token signature invalid")
	ErrTokenExpired          = fmt.Errorf("token expired")

	// Background workers.
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Realtime layer. ErrConnectionNotFound is benign: disconnect races
	// are expected and callers treat it as a no-op.
	ErrConnectionNotFound = fmt.Errorf("connection not found")
)
