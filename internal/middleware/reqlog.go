// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nestling-app/nestling/internal/logging"
)

// maxLoggedBody bounds how much of a request or response body is captured
// for debug logging. A body cut at this limit no longer parses as JSON and
// is masked wholesale by the redactor.
const maxLoggedBody = 4096

// loggingResponseWriter captures the status code and, when body logging is
// on, a bounded prefix of the response body.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	capture    bool
	body       bytes.Buffer
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	if w.capture && w.body.Len() < maxLoggedBody {
		remaining := maxLoggedBody - w.body.Len()
		if remaining > len(b) {
			remaining = len(b)
		}
		w.body.Write(b[:remaining])
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogger logs one structured line per request after it completes.
// The URL is sanitized before logging so tokens and codes passed as query
// parameters never reach the log stream.
//
// At debug level the JSON request and response bodies are logged too, after
// passing through the redactor: sensitive fields (passwords, tokens,
// secrets) are masked before any byte of the body is written to the log.
func RequestLogger(next http.HandlerFunc) http.HandlerFunc {
	redactor := logging.NewRedactor()

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logBodies := logging.Ctx(r.Context()).GetLevel() <= zerolog.DebugLevel

		var reqBody []byte
		if logBodies && r.Body != nil && isJSONContent(r.Header.Get("Content-Type")) {
			reqBody, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
			r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(reqBody), r.Body))
		}

		wrapper := &loggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			capture:        logBodies,
		}

		next(wrapper, r)

		event := logging.Ctx(r.Context()).Info()
		if wrapper.statusCode >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		} else if wrapper.statusCode >= http.StatusBadRequest {
			event = logging.Ctx(r.Context()).Warn()
		}

		if logBodies {
			if len(reqBody) > 0 {
				event = event.RawJSON("request_body", redactor.RedactJSON(reqBody))
			}
			if wrapper.body.Len() > 0 && isJSONContent(wrapper.Header().Get("Content-Type")) {
				event = event.RawJSON("response_body", redactor.RedactJSON(wrapper.body.Bytes()))
			}
		}

		event.
			Str("method", r.Method).
			Str("path", logging.SanitizeURL(r.URL.String())).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("Request completed")
	}
}

// isJSONContent reports whether a Content-Type header denotes a JSON body.
func isJSONContent(contentType string) bool {
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
