package handlers

import (
	"net/http"

	"github.com/isdelr/routines-api/internal/api/respond"
)

// Result is the outcome of a handler: either a body to encode or an error.
// Handlers return exactly one Result, so a response is written exactly once.
type Result struct {
	Status  int
	Body    interface{}
	Err     error
	Cookies []*http.Cookie
}

// OK is a 200 response with body.
func OK(body interface{}) Result {
	return Result{Status: http.StatusOK, Body: body}
}

// Fail reports err with its kind's default status.
func Fail(err error) Result {
	return Result{Err: err}
}

// FailWithStatus reports err with an explicit status.
func FailWithStatus(status int, err error) Result {
	return Result{Status: status, Err: err}
}

// HandlerFunc is an HTTP handler that returns its outcome instead of writing it.
type HandlerFunc func(r *http.Request) Result

// Handle adapts fn into an http.HandlerFunc.
func Handle(fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := fn(r)
		for _, c := range res.Cookies {
			http.SetCookie(w, c)
		}
		if res.Err != nil {
			respond.Error(w, r, res.Err, res.Status)
			return
		}
		status := res.Status
		if status == 0 {
			status = http.StatusOK
		}
		respond.JSON(w, status, res.Body)
	}
}
