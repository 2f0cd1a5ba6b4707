package respond

import (
	"encoding/json"
	"net/http"
)

// Envelope is the shape of every API response: exactly one of Error and Data is set.
type Envelope struct {
	Error  *string           `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	Data   interface{}       `json:"data"`
}

func JSON(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func Data(w http.ResponseWriter, r *http.Request, code int, data interface{}) {
	JSON(w, r, code, Envelope{Data: data})
}

func Error(w http.ResponseWriter, r *http.Request, code int, message string) {
	JSON(w, r, code, Envelope{Error: &message})
}

// FieldErrors reports per-field validation messages alongside the summary message.
func FieldErrors(w http.ResponseWriter, r *http.Request, code int, message string, fields map[string]string) {
	JSON(w, r, code, Envelope{Error: &message, Fields: fields})
}
