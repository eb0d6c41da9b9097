package protocol

import (
	"net/http"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		code   string
		known  bool
		status int
	}{
		{"", true, http.StatusInternalServerError},
		{ErrProtoBadRequest, true, http.StatusBadRequest},
		{ErrBadRequest, true, http.StatusBadRequest},
		{ErrNotRunning, true, http.StatusConflict},
		{ErrGameFinished, true, http.StatusConflict},
		{ErrConflict, true, http.StatusConflict},
		{ErrNotFound, true, http.StatusNotFound},
		{ErrBusy, true, http.StatusServiceUnavailable},
		{ErrInternal, true, http.StatusInternalServerError},
		{"E_NOT_DEFINED", false, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := IsKnownCode(tt.code); got != tt.known {
			t.Fatalf("IsKnownCode(%q)=%v want %v", tt.code, got, tt.known)
		}
		if got := HTTPStatus(tt.code); got != tt.status {
			t.Fatalf("HTTPStatus(%q)=%d want %d", tt.code, got, tt.status)
		}
	}
}
