package auth

import "errors"

var (
	ErrPrincipalNotFound  = errors.New("principal not found")
	ErrRefreshTokenExists = errors.New("refresh token already exists")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)
