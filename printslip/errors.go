package printslip

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrMissingRecordID     = errors.New("missing record_id")
	ErrMissingTicketNumber = errors.New("master record has no so phieu")
	ErrMasterNotFound      = errors.New("master record not found")
)

// RenderError wraps a template or PDF failure. Its text is shown to the caller.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "render slip: " + e.Err.Error() }
func (e *RenderError) Unwrap() error { return e.Err }

// failure is how an error is answered over HTTP.
type failure struct {
	status  int
	message string
	outcome string
}

// failureFor maps the error taxonomy onto status codes. Only render errors
// expose the underlying text.
func failureFor(err error) failure {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return failure{http.StatusUnauthorized, "Unauthorized", "unauthorized"}
	case errors.Is(err, ErrMissingRecordID):
		return failure{http.StatusBadRequest, "Missing record_id", "bad_request"}
	case errors.Is(err, ErrMissingTicketNumber):
		return failure{http.StatusBadRequest, "Master record has no Số phiếu", "bad_request"}
	case errors.Is(err, ErrMasterNotFound):
		return failure{http.StatusNotFound, "Master record not found", "not_found"}
	}
	var re *RenderError
	if errors.As(err, &re) {
		return failure{http.StatusInternalServerError, "Lỗi tạo PDF: " + re.Err.Error(), "render_error"}
	}
	return failure{http.StatusInternalServerError, "Internal Server Error", "error"}
}
