package httptransport

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
)

type apiError struct {
	Message string `json:"message"`
}

type statusResp struct {
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, apiError{Message: msg})
}

func writeStatus(w http.ResponseWriter, code int, status, output string) {
	writeJSON(w, code, statusResp{Status: status, Output: output})
}

// writeAttachment sends data as a download named after the slot.
func writeAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
