package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/grocerymesh/core"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an engine failure to an HTTP status.
func statusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindItemNotFound, core.KindRecipeNotFound, core.KindNoResolvableIngredients,
		core.KindItemNotInCart, core.KindOrderNotFound:
		return http.StatusNotFound
	case core.KindInvalidQuantity, core.KindEmptyCart:
		return http.StatusBadRequest
	case core.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	kind := string(core.KindOf(err))
	if kind == "" {
		kind = "INTERNAL"
	}

	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, kind)
		s.logger.Error("http.request.failed", "path", r.URL.Path, "kind", kind, "error", err)
	}

	writeJSON(w, status, errorResponse{Error: kind, Message: core.MessageOf(err)})
}

// decodeBody decodes an optional JSON body into v. An empty body is allowed.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "BAD_REQUEST", Message: err.Error()})
}
