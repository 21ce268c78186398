package api

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
)

// APIError is a structured backend failure.
type APIError struct {
	StatusCode       int
	Detail           string
	DetectedLanguage string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return http.StatusText(e.StatusCode)
}

// detectedLangPattern matches the "Detected: EN" fragment the backend embeds
// in language-mismatch details when no structured field is present.
var detectedLangPattern = regexp.MustCompile(`(?i)detected:?\s*([a-z]{2,3}(?:-[a-z]{2,8})?)`)

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnsupportedMedia reports whether err is a backend 415.
func IsUnsupportedMedia(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnsupportedMediaType
}

// IsLanguageMismatch reports whether err is the backend's source-language
// rejection. The backend signals it as a 400 whose detail mentions language;
// a structured detected_language field is preferred when supplied.
func IsLanguageMismatch(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		return false
	}
	if apiErr.DetectedLanguage != "" {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Detail), "language") ||
		strings.Contains(strings.ToLower(apiErr.Detail), "not in")
}

// DetectedLanguage extracts the detected source language from a
// language-mismatch error, or "" when the backend did not report one.
func DetectedLanguage(err error) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	if apiErr.DetectedLanguage != "" {
		return strings.ToLower(apiErr.DetectedLanguage)
	}
	if m := detectedLangPattern.FindStringSubmatch(apiErr.Detail); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}
