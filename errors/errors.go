package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic     = fmt.Errorf("worker panic")
	ErrTransportClosed = fmt.Errorf("transport closed")
	ErrSendQueueFull   = fmt.Errorf("send queue full")
	ErrNoBackend       = fmt.Errorf("no backend configured: set DATABASE_URL or VITE_SUPABASE_URL and VITE_SUPABASE_ANON_KEY")
	ErrRecordRejected  = fmt.Errorf("record rejected by backend")
)

// GatewayError is returned when the backend answers with a non-2xx status.
type GatewayError struct {
	Status int
	Body   string
}

func (e GatewayError) Error() string {
	return fmt.Sprintf("backend responded with status %d: %s", e.Status, e.Body)
}

// IsRejected reports whether the backend refused the request itself, so that
// sending the same record again cannot succeed. Transport failures, timeouts
// and 5xx answers are not rejections.
func IsRejected(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, ErrRecordRejected) {
		return true
	}
	var gatewayErr GatewayError
	if !stderrors.As(err, &gatewayErr) {
		return false
	}
	switch gatewayErr.Status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return gatewayErr.Status >= 400 && gatewayErr.Status < 500
}
