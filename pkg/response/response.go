package response

import "net/http"

// Envelope is the uniform reply for every command. Errors and Data are
// mutually exclusive: a failure always carries a non-nil Errors slice and a
// nil Data, a success the reverse.
type Envelope[T any] struct {
	Message string   `json:"message"`
	Status  int      `json:"status"`
	Errors  []string `json:"errors"`
	Data    *T       `json:"data"`
}

func Ok[T any](message string, data T) Envelope[T] {
	return Envelope[T]{Message: message, Status: http.StatusOK, Errors: nil, Data: &data}
}

func Created[T any](message string, data T) Envelope[T] {
	return Envelope[T]{Message: message, Status: http.StatusCreated, Errors: nil, Data: &data}
}

func Fail[T any](status int, message string, errs ...string) Envelope[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	if len(errs) == 0 {
		errs = []string{message}
	}
	return Envelope[T]{Message: message, Status: status, Errors: errs, Data: nil}
}

// OK reports whether the envelope carries a success status.
func (e Envelope[T]) OK() bool {
	return e.Status >= 200 && e.Status < 300
}
