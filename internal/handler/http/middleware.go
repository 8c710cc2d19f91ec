package http

import (
	"net/http"

	"github.com/utafrali/paystore/pkg/httputil"
)

// SessionHeader carries the shopper's session identifier. The storefront
// frontend generates it once per browser session and sends it on every call.
const SessionHeader = "X-Session-ID"

// RequireSession rejects requests that do not identify a shopper session.
// Cart, checkout, and order history are all session-scoped.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(SessionHeader) == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{
					Code:    "MISSING_SESSION",
					Message: "the " + SessionHeader + " header is required",
				},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ContentTypeJSON sets the response content type for API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func sessionID(r *http.Request) string {
	return r.Header.Get(SessionHeader)
}
