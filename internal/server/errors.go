package server

import (
	"encoding/json"
	"net/http"

	fverrors "github.com/matzehuels/flowview/pkg/errors"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      fverrors.Code `json:"code"`
	Message   string        `json:"message"`
	RequestID string        `json:"request_id,omitempty"`
}

// writeError responds with the status for err's code. Uncoded errors are
// reported as internal without leaking their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := fverrors.HTTPStatus(err)
	detail := errorDetail{
		Code:      fverrors.GetCodeOr(err, fverrors.ErrCodeInternal),
		Message:   fverrors.UserMessage(err),
		RequestID: RequestIDFrom(r.Context()),
	}
	if fverrors.GetCode(err) == "" {
		detail.Message = "internal error"
	}
	writeJSON(w, status, errorBody{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func errNotFound(r *http.Request) error {
	return fverrors.New(fverrors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path)
}

func errMethodNotAllowed(r *http.Request) error {
	return fverrors.New(fverrors.ErrCodeMethodNotAllowed, "method %s not allowed on %s", r.Method, r.URL.Path)
}
