// Nestling - Parenting Activity Tracking Service
// Copyright 2026 Nestling Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nestling-app/nestling

package logging

import (
	"net/url"
	"strings"

	"github.com/goccy/go-json"
)

// RedactionMarker replaces the value of any sensitive field before logging.
const RedactionMarker = "[REDACTED]"

// defaultSensitiveSubstrings lists the lowercase substrings that mark a key
// as sensitive. A key matches when its lowercase form contains any entry.
var defaultSensitiveSubstrings = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"cookie",
	"api_key",
	"apikey",
	"credential",
}

// Redactor masks sensitive fields in arbitrarily nested structures.
// The zero value is not usable; construct with NewRedactor.
type Redactor struct {
	substrings []string
}

// NewRedactor creates a redactor for the given sensitive-key substrings.
// With no arguments the default set is used.
func NewRedactor(substrings ...string) *Redactor {
	if len(substrings) == 0 {
		substrings = defaultSensitiveSubstrings
	}
	lowered := make([]string, len(substrings))
	for i, s := range substrings {
		lowered[i] = strings.ToLower(s)
	}
	return &Redactor{substrings: lowered}
}

// IsSensitiveKey reports whether the key matches a sensitive substring,
// case-insensitively.
func (r *Redactor) IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range r.substrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Redact returns a copy of v with every sensitive field replaced by
// RedactionMarker. Maps and slices are walked recursively to arbitrary
// depth; the input is never mutated. Scalar values are returned as-is.
func (r *Redactor) Redact(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, inner := range val {
			if r.IsSensitiveKey(k) {
				out[k] = RedactionMarker
				continue
			}
			out[k] = r.Redact(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, inner := range val {
			out[i] = r.Redact(inner)
		}
		return out
	default:
		return v
	}
}

// RedactJSON parses a JSON document, masks sensitive fields, and re-encodes
// it. Non-JSON input is returned as RedactionMarker wholesale: a body that
// cannot be inspected must not be logged verbatim.
func (r *Redactor) RedactJSON(body []byte) []byte {
	if len(body) == 0 {
		return body
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return []byte(`"` + RedactionMarker + `"`)
	}

	redacted, err := json.Marshal(r.Redact(decoded))
	if err != nil {
		return []byte(`"` + RedactionMarker + `"`)
	}
	return redacted
}

// SanitizeToken masks a token, showing only the first and last 4 characters.
// Example: "eyJhbGciOiJSUzI1..." -> "eyJh...I1Ni"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeURL masks sensitive query parameter values (tokens, codes, OAuth
// state) in a URL string so request logs never leak credentials. Malformed
// URLs are replaced wholesale.
func SanitizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return RedactionMarker
	}

	redactor := NewRedactor()
	query := u.Query()
	changed := false
	for key := range query {
		if redactor.IsSensitiveKey(key) || key == "code" || key == "state" {
			query.Set(key, RedactionMarker)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// SanitizeEmail masks an email address, keeping the first 2 characters of
// the local part and the full domain. Example: "jane.doe@example.com" ->
// "ja***@example.com"
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}

	atIndex := strings.Index(email, "@")
	if atIndex <= 0 {
		return "***"
	}

	localPart := email[:atIndex]
	domain := email[atIndex:]
	if len(localPart) <= 2 {
		return "***" + domain
	}
	return localPart[:2] + "***" + domain
}
