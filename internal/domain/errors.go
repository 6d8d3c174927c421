package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrClientNotFound    = errors.New("client not found")
	ErrAnswersNotFound   = errors.New("assessment answers not found")
	ErrConsentNotFound   = errors.New("consent grant not found")
	ErrProfileIncomplete = errors.New("profile incomplete")
	ErrLocationRequired  = errors.New("location required for distance filtering")
	ErrInvalidWeights    = errors.New("invalid weights")
	ErrInvalidLimit      = errors.New("invalid limit")
	ErrInvalidAgeRange   = errors.New("invalid age range")
	ErrInvalidDistance   = errors.New("invalid max distance")
	ErrInvalidAnswers    = errors.New("invalid assessment answers")
	ErrConsentRequired   = errors.New("user has not granted matching access to this client")
	ErrEmbeddingProvider = errors.New("embedding provider error")
	ErrUnauthorized      = errors.New("unauthorized")
)

// IsNotFound reports whether err denotes a missing user or profile.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrProfileNotFound)
}
