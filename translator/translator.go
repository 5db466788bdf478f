// Package translator is the HTTP client for the translation backend.
// It covers both endpoints: multipart speech-to-speech and JSON text
// translation, with per-request network phase timings for diagnostics.
package translator

import (
	"errors"
	"fmt"
	"time"
)

type NetworkMetrics struct {
	DNS        time.Duration
	ConnWait   time.Duration
	TCP        time.Duration
	TLS        time.Duration
	ReqHeaders time.Duration
	ReqBody    time.Duration
	TTFB       time.Duration
	Download   time.Duration
	Total      time.Duration
	ConnReused bool
}

func (m *NetworkMetrics) Sum() time.Duration {
	return m.ConnWait + m.DNS + m.TCP + m.TLS + m.ReqHeaders + m.ReqBody + m.TTFB + m.Download
}

// BackendError is a failure reported by the translation backend, either
// an explicit {"error": ...} body or an unexpected status/shape.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
	}
	return "backend error: " + e.Message
}

// ValidationError means the request was rejected locally, before any
// network traffic.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TextResult is the response of the text translation endpoint.
type TextResult struct {
	TranslatedText string
	AudioURL       string
	Metrics        *NetworkMetrics
}

// HasAudio reports whether the backend synthesized playable audio.
// Playback must be skipped when this is false.
func (r *TextResult) HasAudio() bool { return r.AudioURL != "" }

// SpeechResult is the response of the speech-to-speech endpoint.
type SpeechResult struct {
	Transcription          string
	TranslatedText         string
	AudioURL               string
	DetectedSourceLanguage string
	Metrics                *NetworkMetrics
}

func (r *SpeechResult) HasAudio() bool { return r.AudioURL != "" }
