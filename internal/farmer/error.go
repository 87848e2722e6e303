package farmer

import "errors"

var (
	ErrFarmerNotFound     = errors.New("farmer not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("username or password is incorrect")
	ErrMissingFields      = errors.New("all fields are required")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidDistrict    = errors.New("location must be a Sri Lankan district")
	ErrInvalidImage       = errors.New("please select a valid image file")
	ErrImageTooLarge      = errors.New("image must be less than 2MB")
)
