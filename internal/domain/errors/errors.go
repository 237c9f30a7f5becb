// File: internal/domain/errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the auth core. Services return these (optionally
// wrapped); handlers map them to the wire taxonomy via From.
var (
	// General
	ErrInternal       = errors.New("internal server error")
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")

	// Credentials
	ErrMissingCredentials = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Access tokens
	ErrMissingToken     = errors.New("access token required")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")

	// Users and sessions
	ErrUserNotFound    = errors.New("user not found")
	ErrUserInactive    = errors.New("user account is inactive")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionRevoked  = errors.New("session revoked")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionIdle     = errors.New("session idle timeout exceeded")

	// Refresh tokens
	ErrMissingRefreshToken = errors.New("refresh token required")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Two-factor authentication
	Err2FANotEnabled         = errors.New("2FA is not enabled for this account")
	Err2FAAlreadyEnabled     = errors.New("2FA is already enabled for this account")
	Err2FANotConfigured      = errors.New("2FA configuration not found")
	ErrInvalid2FACode        = errors.New("invalid verification code")
	ErrInvalidBackupCode     = errors.New("invalid backup code")
	ErrInvalidChallengeToken = errors.New("invalid or expired temporary token")

	// Storage
	ErrVersionConflict = errors.New("concurrent modification detected")
)

// AppError carries the (httpStatus, code, message) triple surfaced on the
// wire, wrapping the causing error.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an AppError around err.
func NewAppError(err error, message string, statusCode int, code string) *AppError {
	return &AppError{Err: err, Message: message, StatusCode: statusCode, Code: code}
}

// From maps an error to its wire representation. Unknown errors become a
// generic 500 so internals never leak.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for sentinel, t := range taxonomy {
		if errors.Is(err, sentinel) {
			return &AppError{Err: err, Message: sentinel.Error(), StatusCode: t.status, Code: t.code}
		}
	}
	return &AppError{Err: err, Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "internal_error"}
}

type triple struct {
	status int
	code   string
}

// Wire taxonomy. Unknown-account and wrong-password share one code so the
// response never reveals whether the email exists.
var taxonomy = map[error]triple{
	ErrInvalidRequest:     {http.StatusBadRequest, "invalid_request"},
	ErrNotFound:           {http.StatusNotFound, "not_found"},
	ErrUnauthorized:       {http.StatusUnauthorized, "unauthorized"},
	ErrMissingCredentials: {http.StatusBadRequest, "missing_credentials"},
	ErrInvalidCredentials: {http.StatusUnauthorized, "invalid_credentials"},

	ErrMissingToken:     {http.StatusUnauthorized, "missing_token"},
	ErrInvalidToken:     {http.StatusUnauthorized, "invalid"},
	ErrExpiredToken:     {http.StatusUnauthorized, "expired"},
	ErrInvalidTokenType: {http.StatusUnauthorized, "invalid_type"},

	ErrUserNotFound:    {http.StatusUnauthorized, "user_not_found"},
	ErrUserInactive:    {http.StatusUnauthorized, "invalid_credentials"},
	ErrSessionNotFound: {http.StatusUnauthorized, "session_not_found"},
	ErrSessionRevoked:  {http.StatusUnauthorized, "session_revoked"},
	ErrSessionExpired:  {http.StatusUnauthorized, "session_expired"},
	ErrSessionIdle:     {http.StatusUnauthorized, "session_idle"},

	ErrMissingRefreshToken: {http.StatusUnauthorized, "missing_refresh"},
	ErrInvalidRefreshToken: {http.StatusUnauthorized, "invalid_refresh"},
	ErrRefreshTokenRevoked: {http.StatusUnauthorized, "invalid_refresh"},
	ErrRefreshTokenExpired: {http.StatusUnauthorized, "invalid_refresh"},

	Err2FANotEnabled:         {http.StatusBadRequest, "2fa_not_enabled"},
	Err2FAAlreadyEnabled:     {http.StatusBadRequest, "2fa_already_enabled"},
	Err2FANotConfigured:      {http.StatusBadRequest, "2fa_not_configured"},
	ErrInvalid2FACode:        {http.StatusBadRequest, "invalid_code"},
	ErrInvalidBackupCode:     {http.StatusBadRequest, "invalid_backup_code"},
	ErrInvalidChallengeToken: {http.StatusUnauthorized, "invalid_temp_token"},
}

// IsUnauthorized reports whether err maps to a 401 failure.
func IsUnauthorized(err error) bool {
	return From(err).StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a not-found style failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSessionNotFound)
}
