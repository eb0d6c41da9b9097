package protocol

import "net/http"

// Error codes carried in ERROR messages.
const (
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST" // malformed envelope or wrong method

	ErrNotRunning   = "E_NOT_RUNNING"
	ErrGameFinished = "E_GAME_FINISHED"
	ErrNotFound     = "E_NOT_FOUND"

	ErrBadRequest = "E_BAD_REQUEST" // well-formed but invalid parameters
	ErrConflict   = "E_CONFLICT"
	ErrBusy       = "E_BUSY"
	ErrInternal   = "E_INTERNAL"
)

var codeStatus = map[string]int{
	ErrProtoBadRequest: http.StatusBadRequest,
	ErrNotRunning:      http.StatusConflict,
	ErrGameFinished:    http.StatusConflict,
	ErrNotFound:        http.StatusNotFound,
	ErrBadRequest:      http.StatusBadRequest,
	ErrConflict:        http.StatusConflict,
	ErrBusy:            http.StatusServiceUnavailable,
	ErrInternal:        http.StatusInternalServerError,
}

// IsKnownCode reports whether code is one of the codes above. The empty
// code is accepted.
func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := codeStatus[code]
	return ok
}

// HTTPStatus is the default HTTP status for an error code; unknown codes
// map to 500.
func HTTPStatus(code string) int {
	if st, ok := codeStatus[code]; ok {
		return st
	}
	return http.StatusInternalServerError
}
