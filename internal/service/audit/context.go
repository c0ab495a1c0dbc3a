package audit

import (
	"context"

	"github.com/google/uuid"
)

// RequestInfo is who made a request and from where.
type RequestInfo struct {
	ActorID   *uuid.UUID
	IPAddress string
	UserAgent string
	RequestID string
}

type requestInfoKey struct{}

func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func RequestInfoFrom(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
