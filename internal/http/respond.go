package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"codesage/api/internal/apperr"
)

const maxBodyBytes = 1 << 20

const genericInternalMessage = "Something went wrong on the server."

type errorResponse struct {
	Status    string `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Detail    string `json:"detail,omitempty"`
}

// decodeJSON reads at most maxBodyBytes into out. Unknown fields are ignored.
// An empty body is a BadRequest wrapping io.EOF.
func decodeJSON(w http.ResponseWriter, r *http.Request, out interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Wrap(apperr.BadRequest, "Request body is required", io.EOF)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.Wrap(apperr.BadRequest, "Request body too large", err)
		}
		return apperr.Wrap(apperr.BadRequest, "Invalid JSON body", err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be absent.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, out interface{}) error {
	if err := decodeJSON(w, r, out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.As(err)
	status := appErr.Kind.Status()

	resp := errorResponse{
		Status:    "fail",
		Code:      appErr.Kind.String(),
		Message:   appErr.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if status >= http.StatusInternalServerError {
		resp.Status = "error"
		s.log.Error(r.Context(), "request failed", "kind", appErr.Kind.String(), "error", err)
		if s.cfg.IsDevelopment() {
			resp.Detail = errorDetail(appErr)
		}
		if appErr.Kind == apperr.Internal {
			resp.Message = genericInternalMessage
		}
	}
	writeJSON(w, status, resp)
}

// errorDetail joins the handler message with the wrapped cause.
func errorDetail(e *apperr.Error) string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}
