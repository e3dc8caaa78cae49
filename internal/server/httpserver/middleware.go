package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/astroprofile/internal/common"
	"github.com/dmitrijs2005/astroprofile/internal/server/auth"
	"github.com/gorilla/mux"
)

type ctxKey string

const sessionKey ctxKey = "session"

// SessionFrom returns the session stored by the bearer middleware.
func SessionFrom(ctx context.Context) *auth.Session {
	sess, _ := ctx.Value(sessionKey).(*auth.Session)
	return sess
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
// Any other shape yields "".
func bearerToken(r *http.Request) string {
	header := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireSession rejects requests without a usable bearer token: 401 when
// the credential is missing or malformed, 403 when it is invalid or
// expired.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.users.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			switch {
			case errors.Is(err, common.ErrCredentialMissing):
				s.metrics.observeOperation("authenticate", OutcomeRejected)
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			case errors.Is(err, common.ErrCredentialInvalid):
				s.metrics.observeOperation("authenticate", OutcomeRejected)
				writeMessage(w, http.StatusForbidden, "Forbidden")
			default:
				s.metrics.observeOperation("authenticate", OutcomeError)
				s.logger.Error(r.Context(), "authenticate failed", "error", err.Error())
				writeMessage(w, http.StatusInternalServerError, "Server error")
			}
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency per route template.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		s.metrics.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		s.metrics.RequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		s.logger.Debug(r.Context(), "request served", "route", route, "method", r.Method, "status", rec.status)
	})
}
