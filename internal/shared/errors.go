package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Credential errors
	ErrNotAuthenticated = fmt.Errorf("provider not connected")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")

	// Request validation errors
	ErrValidation = fmt.Errorf("invalid migration request")

	// Pipeline errors
	ErrFetchFailed    = fmt.Errorf("source playlist fetch failed")
	ErrNoTracksFound  = fmt.Errorf("no tracks found in source playlists")
	ErrSearchFailed   = fmt.Errorf("destination search failed")
	ErrQuotaExceeded  = fmt.Errorf("destination quota exceeded")
	ErrNoMatchesFound = fmt.Errorf("no matching items found on destination")
	ErrBuildFailed    = fmt.Errorf("destination playlist build failed")
	ErrCancelled      = fmt.Errorf("migration cancelled")
)
