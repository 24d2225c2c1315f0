package api

import (
	"context"
	"errors"
	"net/http"

	apperr "github.com/matzehuels/circuitdag/pkg/errors"
	"github.com/matzehuels/circuitdag/pkg/observability"
)

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Error     ErrorDetail `json:"error"`
	RequestID string      `json:"request_id"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

// StatusFor maps an error to an HTTP status. Malformed requests and
// programs are 400, programs that parse but cannot be converted are 422.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	switch apperr.GetCode(err) {
	case apperr.ErrCodeInvalidInput, apperr.ErrCodeInvalidFormat, apperr.ErrCodeInvalidProgram,
		apperr.ErrCodeInvalidOwnership, apperr.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case apperr.ErrCodeConversion:
		return http.StatusUnprocessableEntity
	case apperr.ErrCodeNotFound, apperr.ErrCodeFileNotFound:
		return http.StatusNotFound
	case apperr.ErrCodeUnsupported:
		return http.StatusMethodNotAllowed
	case apperr.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	id := RequestID(ctx)
	status := StatusFor(err)
	observability.HTTP().OnError(ctx, r.Method, r.URL.Path, id, err)

	detail := ErrorDetail{Code: apperr.GetCode(err), Message: apperr.UserMessage(err)}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", id, "err", err)
		if detail.Code == "" || detail.Code == apperr.ErrCodeInternal {
			detail = ErrorDetail{Code: apperr.ErrCodeInternal, Message: "internal error"}
		}
	}
	if detail.Code == "" {
		detail.Code = apperr.ErrCodeInternal
	}
	if err := s.writeJSON(w, r, status, ErrorBody{Error: detail, RequestID: id}); err != nil {
		s.logger.Error("encode error body", "request_id", id, "err", err)
	}
}

func errNotFound(r *http.Request) error {
	return apperr.New(apperr.ErrCodeNotFound, "no route for %s", r.URL.Path)
}

func errMethodNotAllowed(r *http.Request) error {
	return apperr.New(apperr.ErrCodeUnsupported, "%s not allowed on %s", r.Method, r.URL.Path)
}
