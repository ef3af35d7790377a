package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"access-console/internal/upstream"
)

var logger = loggo.GetLogger("console.http")

// maxBody bounds request bodies.
const maxBody = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warningf("[HTTP] Failed to encode response: %v", err)
	}
}

// Error writes err as {"error": message} with the status its kind maps to.
func Error(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError || status == http.StatusBadGateway {
		logger.Errorf("[HTTP] %s", errors.Details(err))
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	JSON(w, status, ErrorResponse{Error: msg})
}

// StatusFor maps an error to an HTTP status.
func StatusFor(err error) int {
	var upstreamErr *upstream.Error
	switch {
	case errors.Is(err, errors.NotValid), errors.Is(err, errors.BadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errors.NotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.Unauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errors.Forbidden):
		return http.StatusForbidden
	case errors.Is(err, errors.AlreadyExists):
		return http.StatusConflict
	case errors.Is(err, errors.NotSupported), errors.Is(err, errors.NotImplemented):
		return http.StatusNotImplemented
	case errors.As(err, &upstreamErr):
		switch upstreamErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return upstreamErr.Status
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return http.StatusBadRequest
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// DecodeJSON reads a JSON request body into v.
func DecodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			return errors.NewNotValid(nil, "Request body required")
		}
		return errors.NewNotValid(err, "Invalid request body")
	}
	return nil
}
