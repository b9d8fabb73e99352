package ctxutil

import (
	"context"
	"strings"
)

type requestDataKey struct{}

// RequestData identifies one API call: who made it and how to find it in
// logs and traces.
type RequestData struct {
	UserID      string
	DisplayName string
	RequestID   string
	TraceID     string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	rd, _ := ctx.Value(requestDataKey{}).(*RequestData)
	return rd
}

// Ensure returns ctx carrying a RequestData, adding an empty one if needed.
func Ensure(ctx context.Context) (context.Context, *RequestData) {
	if rd := GetRequestData(ctx); rd != nil {
		return ctx, rd
	}
	rd := &RequestData{}
	return WithRequestData(ctx, rd), rd
}

// Actor returns the best label for stamping submitted_by/deleted_by, or "" when anonymous.
func Actor(ctx context.Context) string {
	rd := GetRequestData(ctx)
	if rd == nil {
		return ""
	}
	if name := strings.TrimSpace(rd.DisplayName); name != "" {
		return name
	}
	return strings.TrimSpace(rd.UserID)
}

// LogFields lists the non-empty request identifiers as logger key/values.
func LogFields(ctx context.Context) []interface{} {
	rd := GetRequestData(ctx)
	if rd == nil {
		return nil
	}
	var kv []interface{}
	for _, f := range [...]struct{ k, v string }{
		{"request_id", rd.RequestID},
		{"trace_id", rd.TraceID},
		{"user_id", rd.UserID},
	} {
		if f.v != "" {
			kv = append(kv, f.k, f.v)
		}
	}
	return kv
}
