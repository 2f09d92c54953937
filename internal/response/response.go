package response

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Response is the standardized API response envelope.
type Response struct {
	Data     any        `json:"data"`
	Error    *ErrorBody `json:"error,omitempty"`
	Toast    *Toast     `json:"toast,omitempty"`
	Prompt   any        `json:"prompt,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Toast is a short-lived confirmation the client shows after an action.
type Toast struct {
	Kind string `json:"kind"` // ok | error
	Text string `json:"text"`
}

type Metadata struct {
	RequestID string `json:"requestId"`
	Timestamp string `json:"timestamp"`
}

// Success sends data with the given status code.
func Success(w http.ResponseWriter, r *http.Request, status int, data any) {
	Write(w, r, status, Response{Data: data})
}

// SuccessWithToast sends data together with a toast message.
func SuccessWithToast(w http.ResponseWriter, r *http.Request, status int, data any, toast *Toast) {
	Write(w, r, status, Response{Data: data, Toast: toast})
}

// Fail sends an error with the default message for code.
func Fail(w http.ResponseWriter, r *http.Request, status int, code ErrCode) {
	FailWithMessage(w, r, status, code, GetMessage(code))
}

func FailWithMessage(w http.ResponseWriter, r *http.Request, status int, code ErrCode, msg string) {
	Write(w, r, status, Response{
		Error: &ErrorBody{Code: code, Message: msg},
		Toast: &Toast{Kind: "error", Text: msg},
	})
}

// FailWithFields sends an error response with field-level validation details.
func FailWithFields(w http.ResponseWriter, r *http.Request, status int, code ErrCode, fields map[string]string) {
	msg := GetMessage(code)
	Write(w, r, status, Response{
		Error: &ErrorBody{Code: code, Message: msg, Fields: fields},
		Toast: &Toast{Kind: "error", Text: msg},
	})
}

// Write fills in metadata and encodes resp.
func Write(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	resp.Metadata = buildMetadata(r)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func buildMetadata(r *http.Request) Metadata {
	id := middleware.GetReqID(r.Context())
	if id == "" {
		id = uuid.New().String() // Fallback if middleware not applied
	}
	return Metadata{
		RequestID: id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
