// Package middleware provides HTTP middleware components.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/it-all/slim-postgres/internal/constants"
	"github.com/it-all/slim-postgres/internal/service"
	"github.com/it-all/slim-postgres/internal/session"
	"github.com/it-all/slim-postgres/internal/utils"
)

type contextKey string

const requestIDKey contextKey = constants.RequestIDContextKey

// RequestID tags each request with the incoming X-Request-ID or a new uuid
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(constants.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(constants.HeaderXRequestID, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the request id set by RequestID
func GetRequestID(r *http.Request) string {
	requestID, _ := r.Context().Value(requestIDKey).(string)
	return requestID
}

// RequestLogger logs every request once it has been served
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		utils.LogHTTPRequest(GetRequestID(r), r.Method, r.URL.Path, ClientIP(r), r.UserAgent(), status, time.Since(start))
	})
}

// SecurityHeaders adds security-related HTTP headers to responses
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(constants.HeaderXContentTypeOptions, constants.ContentTypeOptionsNoSniff)
		w.Header().Set(constants.HeaderXFrameOptions, constants.FrameOptionsDeny)
		w.Header().Set(constants.HeaderXXSSProtection, constants.XSSProtectionModeBlock)
		w.Header().Set(constants.HeaderReferrerPolicy, constants.ReferrerPolicyStrictOrigin)
		w.Header().Set(constants.HeaderContentSecurityPolicy, constants.CSPDefaultSrc)
		w.Header().Set(constants.HeaderCacheControl, constants.CacheControlNoStore)

		next.ServeHTTP(w, r)
	})
}

// MaxBodySize limits request bodies to limit bytes
func MaxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				utils.Error(w, http.StatusRequestEntityTooLarge, constants.CodeBadRequest, constants.MsgRequestBodyTooLarge, nil)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// RequestInfo collects the request metadata recorded on system events
func RequestInfo(r *http.Request) service.RequestInfo {
	info := service.RequestInfo{
		IPAddress: ClientIP(r),
		Method:    r.Method,
		Resource:  r.URL.Path,
	}
	if administrator := session.AdministratorFrom(r.Context()); administrator != nil {
		info.AdministratorID = administrator.ID
	}
	return info
}

// ClientIP extracts the client IP address from the request, taking into account
// common proxy headers.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// leftmost is the client
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
