// Package handlerutils holds the JSON helpers every module's HTTP handler uses.
package handlerutils

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/georgemunganga/stockpdv/internal/servererrors"
)

// ErrorBody is the payload written for every failed request.
type ErrorBody struct {
	Error  string            `json:"error"`
	Kind   servererrors.Kind `json:"kind"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Respond writes body as JSON with the given status.
func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("encode response body")
	}
}

// RespondError converts err into its HTTP status and writes the error body.
// Remote call failures pass their message through unchanged.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := servererrors.KindOf(err)
	status := servererrors.StatusFor(kind)

	entry := log.WithFields(log.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
		"kind":       kind,
		"status":     status,
	})
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Debug("request rejected")
	}

	Respond(w, status, ErrorBody{
		Error:  err.Error(),
		Kind:   kind,
		Fields: servererrors.FieldsOf(err),
	})
}

// DecodeJSON decodes the request body into dst, answering a ValidationFailure on malformed input.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return servererrors.Wrap(servererrors.KindValidation, err, "malformed request body: "+err.Error())
	}
	return nil
}

// RequestLogger logs one line per request with logrus.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"remoteAddr": r.RemoteAddr,
		}).Info("handled request")
	})
}
