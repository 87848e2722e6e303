package utils

type contextKey string

const (
	FarmerIDKey contextKey = "farmer_id"
	UsernameKey contextKey = "username"
	UserRoleKey contextKey = "role"
)
