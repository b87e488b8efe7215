package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// faultResp is the body of every 500 response.
type faultResp struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		respondText(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// NotFound writes the plain 404 used for unmatched routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	respondText(w, http.StatusNotFound, "Not Found")
}

// Fault logs err and writes the catch-all 500 response, exposing the
// failure description to the caller.
func Fault(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Error("request failed",
		"method", r.Method,
		"path", r.URL.EscapedPath(),
		"error", err,
	)
	respondJSON(w, http.StatusInternalServerError, faultResp{
		Error:   "Internal Server Error",
		Message: err.Error(),
	})
}

// Recovered converts a recovered panic value into an error for Fault.
func Recovered(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("%v", v)
}
