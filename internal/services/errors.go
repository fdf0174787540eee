package services

import "errors"

// Sentinel errors returned by the authentication services. Handlers map
// them to client-visible status codes; anything else is an internal error.
var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMismatch            = errors.New("code mismatch")
	ErrExpired             = errors.New("code expired")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrCredentialNotFound  = errors.New("credential not found")
	ErrDuplicateCredential = errors.New("credential already registered")
	ErrVerificationFailed  = errors.New("verification failed")
	ErrBiometricNotEnabled = errors.New("biometric login not enabled")
)
