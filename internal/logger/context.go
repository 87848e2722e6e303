package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorKey
)

type actor struct {
	role     string
	farmerID *int64
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithActor tags later log lines with the authenticated caller. farmerID is
// nil for the supermarket admin.
func WithActor(ctx context.Context, role string, farmerID *int64) context.Context {
	return context.WithValue(ctx, actorKey, actor{role: role, farmerID: farmerID})
}

// FromCtx returns the global logger with the request id and caller attached.
func FromCtx(ctx context.Context) *zap.Logger {
	var fields []zap.Field
	if id := RequestIDFrom(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if a, ok := ctx.Value(actorKey).(actor); ok {
		fields = append(fields, zap.String("actor_role", a.role))
		if a.farmerID != nil {
			fields = append(fields, zap.Int64("actor_farmer_id", *a.farmerID))
		}
	}
	if len(fields) == 0 {
		return L()
	}
	return L().With(fields...)
}
