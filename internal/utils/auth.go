package utils

import "context"

// SetUserContext stores the caller identity (called by middleware).
// farmerID is nil for admin callers.
func SetUserContext(ctx context.Context, farmerID *int64, username string, role string) context.Context {
	if farmerID != nil {
		ctx = context.WithValue(ctx, FarmerIDKey, *farmerID)
	}
	ctx = context.WithValue(ctx, UsernameKey, username)
	ctx = context.WithValue(ctx, UserRoleKey, role)
	return ctx
}

// GetFarmerIDFromContext retrieves the authenticated farmer id safely
func GetFarmerIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(FarmerIDKey).(int64)
	return id, ok
}

func GetUsernameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(UsernameKey).(string)
	return name
}

func GetUserRoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

// IsAuthenticated reports whether middleware attached an identity.
func IsAuthenticated(ctx context.Context) bool {
	return GetUserRoleFromContext(ctx) != ""
}
