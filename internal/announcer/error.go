package announcer

import (
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/cenkalti/brook/internal/tracker"
	"github.com/cenkalti/brook/internal/tracker/httptracker"
)

// AnnounceError wraps an error from an announce with a friendlier message
// for known failure modes.
type AnnounceError struct {
	Err     error
	Message string
	Unknown bool
}

func newAnnounceError(err error) (e *AnnounceError) {
	e = &AnnounceError{Err: err}
	switch err := err.(type) {
	case *net.DNSError:
		s := err.Error()
		if strings.HasSuffix(s, "no such host") {
			e.Message = "host not found: " + err.Name
			return
		}
	case *url.Error:
		s := err.Error()
		if strings.HasSuffix(s, "connection refused") {
			e.Message = "tracker refused the connection"
			return
		}
		if err.Timeout() {
			e.Message = "timeout contacting tracker"
			return
		}
	case *httptracker.StatusError:
		if err.Code == 403 || err.Code == 404 {
			e.Message = "tracker returned http status: " + strconv.Itoa(err.Code)
			return
		}
	case *tracker.Error:
		e.Message = "announce error: " + err.FailureReason
		return
	case net.Error:
		if err.Timeout() {
			e.Message = "timeout contacting tracker"
			return
		}
	}
	e.Message = "unknown error in announce"
	e.Unknown = true
	return
}

// Error implements the error interface.
func (e *AnnounceError) Error() string {
	return e.Message
}

// ErrorWithType returns the underlying error prefixed with its Go type.
func (e *AnnounceError) ErrorWithType() string {
	return reflect.TypeOf(e.Err).String() + ": " + e.Err.Error()
}
