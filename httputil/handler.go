// Copyright (c) 2025 BVK Chaitanya

package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
)

// StatusError attaches an http status code to an error.
type StatusError struct {
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// BadRequest marks the error as a client error.
func BadRequest(err error) error {
	return &StatusError{Code: http.StatusBadRequest, Err: err}
}

// StatusCode maps an api error to the http status code.
func StatusCode(err error) int {
	var serr *StatusError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &serr):
		return serr.Code
	case errors.Is(err, os.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, os.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, os.ErrExist):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HandlerFunc wraps a typed request-response function into a http handler
// that only accepts JSON POST requests. Errors are reported as plain text.
func HandlerFunc[REQ, RESP any](fn func(context.Context, *REQ) (*RESP, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "only POST requests are supported", http.StatusMethodNotAllowed)
			return
		}
		req := new(REQ)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			http.Error(w, fmt.Sprintf("could not decode request: %v", err), http.StatusBadRequest)
			return
		}

		resp, err := fn(r.Context(), req)
		if err != nil {
			code := StatusCode(err)
			if code >= http.StatusInternalServerError {
				slog.Error("api request failed", "path", r.URL.Path, "err", err)
			}
			http.Error(w, err.Error(), code)
			return
		}

		data, err := json.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("content-type", "application/json")
		w.Write(data)
	})
}
