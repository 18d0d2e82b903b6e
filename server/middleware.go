package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/grocerymesh/session"
)

// HeaderSessionID carries the session id on requests and responses.
const HeaderSessionID = "X-Session-ID"

type ctxKey struct{}

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(ctxKey{}).(*session.Session)
	return s
}

// sessionMiddleware resolves X-Session-ID to a session, creating one when the
// header is absent.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderSessionID))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderSessionID, id)

		trace.SpanFromContext(r.Context()).SetAttributes(attribute.String("session.id", id))
		ctx := context.WithValue(r.Context(), ctxKey{}, s.sessions.Get(id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the response code for the request span.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// traceMiddleware starts one span per request, named after the route template.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				name = tpl
			}
		}

		ctx, span := s.tracer.Start(r.Context(), r.Method+" "+name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", name),
			),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.response.status_code", rec.status))
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("http.panic", "path", r.URL.Path, "recover", fmt.Sprint(rec))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "INTERNAL", Message: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
