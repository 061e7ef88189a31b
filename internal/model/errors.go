package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token related errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid or expired token")

	// Gallery related errors
	ErrGalleryNotFound = errors.New("gallery item not found")
	ErrInvalidImage    = errors.New("file is not a supported image")

	// Dispatch errors
	ErrRouteNotFound = errors.New("route not found")
)
