package common

// AuthorizationHeaderName carries the bearer token on every authenticated request.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is accepted (and stripped) in front of the token value.
const BearerPrefix = "Bearer "

// WorkAvailableChannel is the notification channel workers LISTEN on.
const WorkAvailableChannel = "tasks_created"

// TokenBytes is the amount of random data behind a session token.
// Rendered as hex the token is twice as long.
const TokenBytes = 32

// DefaultMaxUploadSize is the reference upload ceiling (100 MiB).
const DefaultMaxUploadSize int64 = 104_857_600

// DefaultCORSOrigin is the browser origin allowed when none is configured.
const DefaultCORSOrigin = "http://[::1]:8000"

// CORSMaxAge is how long, in seconds, browsers may cache a preflight answer.
const CORSMaxAge = 3600
