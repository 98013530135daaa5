// internal/middleware/context_extractor.go
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gurkanbulca/taskdesk/internal/transport"
)

// ContextKeys for storing request metadata
type ContextKey string

const (
	ContextKeyIPAddress ContextKey = "ip_address"
	ContextKeyUserAgent ContextKey = "user_agent"
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyService   ContextKey = "service"
)

// ExtractClientInfo stores the caller's address, user agent and request id
// in the request context. The request id is taken from X-Request-ID when
// present and echoed back; outgoing backend calls made while serving the
// request reuse it.
func ExtractClientInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if ip := extractIPAddress(r); ip != "" {
			ctx = context.WithValue(ctx, ContextKeyIPAddress, ip)
		}
		if ua := r.UserAgent(); ua != "" {
			ctx = context.WithValue(ctx, ContextKeyUserAgent, ua)
		}

		requestID := strings.TrimSpace(r.Header.Get(transport.RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = context.WithValue(ctx, ContextKeyRequestID, requestID)
		ctx = transport.ContextWithRequestID(ctx, requestID)
		w.Header().Set(transport.RequestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractIPAddress prefers the first X-Forwarded-For hop over RemoteAddr.
func extractIPAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr // Return as-is if parsing fails
	}
	return host
}

// GetIPAddressFromContext extracts IP address from context
func GetIPAddressFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyIPAddress).(string); ok {
		return ip
	}
	return ""
}

// GetUserAgentFromContext extracts user agent from context
func GetUserAgentFromContext(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// GetRequestIDFromContext extracts the request id from context
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// GetServiceFromContext returns the authenticated calling service.
func GetServiceFromContext(ctx context.Context) (string, bool) {
	service, ok := ctx.Value(ContextKeyService).(string)
	return service, ok
}

// ClientInfo is the request metadata gathered by ExtractClientInfo and
// AuthMiddleware.
type ClientInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
	Service   string
}

// GetClientInfoFromContext extracts all client information from context
func GetClientInfoFromContext(ctx context.Context) *ClientInfo {
	info := &ClientInfo{
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		RequestID: GetRequestIDFromContext(ctx),
	}
	if service, ok := GetServiceFromContext(ctx); ok {
		info.Service = service
	}
	return info
}
