// Package apiutil writes the JSON envelope every API response uses:
// {"success": bool, "message": string, "data": object}.
package apiutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/civicworks/civicconnect/internal/app/system/apierr"
	"go.uber.org/zap"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes an arbitrary payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, message string, data any) {
	JSON(w, http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

// Error classifies err via apierr and writes a failure envelope.
// Internal (unclassified) errors are logged and masked with a generic
// message so store details never leak to callers.
func Error(w http.ResponseWriter, log *zap.Logger, err error) {
	status := apierr.Status(err)

	var ae *apierr.Error
	msg := "internal server error"
	if errors.As(err, &ae) {
		msg = ae.Message
		if ae.Kind == apierr.KindRateLimited && ae.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(ae.RetryAfter))
		}
		if ae.Kind == apierr.KindDependency && log != nil {
			log.Error("dependency failure", zap.Error(err))
		}
	} else if log != nil {
		log.Error("unhandled error", zap.Error(err))
	}

	JSON(w, status, envelope{Success: false, Message: msg})
}

// DecodeBody decodes a JSON request body into dst, rejecting unknown
// fields and trailing garbage.
func DecodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierr.Validation("invalid request body")
	}
	if dec.More() {
		return apierr.Validation("invalid request body")
	}
	return nil
}
