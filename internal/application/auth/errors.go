package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrNameRequired          = errors.New("Name is required")
	ErrInvalidEmailFormat    = errors.New("Email is not valid")
	ErrWeakPassword          = errors.New("Password must be at least 8 characters")
	ErrEmailTaken            = errors.New("Email has already been registered")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrNotAuthenticated      = errors.New("Not authenticated")
)
