package passage

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-passage/passage/core"
)

// ErrorHandler is called when a request fails authentication. err is a
// *core.AuthError in every case the middleware produces.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse is the JSON body written by DefaultErrorHandler.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// DefaultErrorHandler answers 401 with {"error":true,"message":...}. Errors
// that are not *core.AuthError get a 500.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status, body := ErrorResponseFor(err)
	writeJSON(w, status, body)
}

// ErrorResponseFor maps err to the status and body DefaultErrorHandler sends.
// Framework adapters use it to answer the same way.
func ErrorResponseFor(err error) (int, ErrorResponse) {
	var authErr *core.AuthError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized, ErrorResponse{Error: true, Message: authErr.Message()}
	}
	return http.StatusInternalServerError, ErrorResponse{
		Error:   true,
		Message: "Something went wrong while authenticating the request.",
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
