package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/ticketvault/internal/common"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, code common.Code, message string) {
	writeJSON(w, status, ErrorResponse{Code: string(code), Message: message})
}

// statusOf maps the error taxonomy onto HTTP statuses.
func statusOf(code common.Code) int {
	switch code {
	case common.CodeNotFound:
		return http.StatusNotFound
	case common.CodeForbidden, common.CodeAuthentication:
		return http.StatusForbidden
	case common.CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal details from callers; taxonomy members that
// describe the caller's own mistake keep their message.
func publicMessage(err error) string {
	switch common.CodeOf(err) {
	case common.CodeInternal, common.CodeConfiguration:
		return "internal server error"
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
