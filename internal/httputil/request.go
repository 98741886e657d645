package httputil

import (
	"context"
	"encoding/json"
	"net/http"
)

type contextKey string

const requestIDKey contextKey = "request-id"

// MaxJSONBodyBytes caps JSON request bodies; uploads use multipart instead.
const MaxJSONBodyBytes = 1 << 20

// DecodeJSON decodes a size-limited JSON body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// ClientIP is the connection's remote address. Forwarding headers only count
// once ForwardedFor has vetted them against the trusted proxies.
func ClientIP(r *http.Request) string {
	return remoteHost(r.RemoteAddr)
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
