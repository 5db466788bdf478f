package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"
)

type Client struct {
	base string
	http *TracedClient
}

func New(baseURL string) *Client {
	base := strings.TrimRight(baseURL, "/")
	return &Client{
		base: base,
		http: NewTracedClient(base + "/"),
	}
}

// Warm pre-establishes the backend connection. Called once at startup.
func (c *Client) Warm() { go c.http.Warm() }

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.base }

type translateRequest struct {
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	Text           string `json:"text"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
	AudioURL       string `json:"audio_url"`
	Error          string `json:"error"`
}

// TranslateText submits text for translation and synthesized speech.
func (c *Client) TranslateText(ctx context.Context, source, target, text string) (*TextResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Field: "text", Reason: "empty"}
	}
	if !KnownLanguage(source) {
		return nil, &ValidationError{Field: "source_language", Reason: "unknown code " + source}
	}
	if !KnownLanguage(target) {
		return nil, &ValidationError{Field: "target_language", Reason: "unknown code " + target}
	}

	body, err := json.Marshal(translateRequest{
		SourceLanguage: source,
		TargetLanguage: target,
		Text:           text,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.base+"/translate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	var tr translateResponse
	if err := decodeBackend(resp, &tr); err != nil {
		return nil, err
	}
	if err := backendFieldError(resp, tr.Error); err != nil {
		return nil, err
	}
	if tr.TranslatedText == "" {
		return nil, &BackendError{Status: resp.StatusCode, Message: "response missing translated_text"}
	}
	if tr.AudioURL == "" {
		// Playback must never be attempted for a result without audio.
		return nil, &BackendError{Status: resp.StatusCode, Message: "response missing audio_url"}
	}
	return &TextResult{
		TranslatedText: tr.TranslatedText,
		AudioURL:       tr.AudioURL,
		Metrics:        resp.Metrics,
	}, nil
}

type speechResponse struct {
	Transcription          string `json:"transcription"`
	TranslatedText         string `json:"translated_text"`
	AudioURL               string `json:"audio_url"`
	DetectedSourceLanguage string `json:"detected_source_language"`
	Error                  string `json:"error"`
}

// SpeechToSpeech uploads a finished recording and returns its
// transcription, translation and synthesized audio.
func (c *Client) SpeechToSpeech(ctx context.Context, audio []byte, format, target string) (*SpeechResult, error) {
	if len(audio) == 0 {
		return nil, &ValidationError{Field: "audio", Reason: "empty recording"}
	}
	if format != "flac" && format != "wav" {
		return nil, &ValidationError{Field: "format", Reason: "unsupported format " + format}
	}
	if !KnownLanguage(target) {
		return nil, &ValidationError{Field: "target_language", Reason: "unknown code " + target}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio", "recording."+format)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, err
	}
	writer.WriteField("target_language", target)
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", c.base+"/speech-to-speech", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	var sr speechResponse
	if err := decodeBackend(resp, &sr); err != nil {
		return nil, err
	}
	if err := backendFieldError(resp, sr.Error); err != nil {
		return nil, err
	}
	if sr.TranslatedText == "" {
		return nil, &BackendError{Status: resp.StatusCode, Message: "response missing translated_text"}
	}
	if sr.AudioURL == "" {
		return nil, &BackendError{Status: resp.StatusCode, Message: "response missing audio_url"}
	}
	return &SpeechResult{
		Transcription:          sr.Transcription,
		TranslatedText:         sr.TranslatedText,
		AudioURL:               sr.AudioURL,
		DetectedSourceLanguage: sr.DetectedSourceLanguage,
		Metrics:                resp.Metrics,
	}, nil
}

// ResolveAudioURL turns a relative audio_url from a response into an
// absolute URL on the backend.
func (c *Client) ResolveAudioURL(raw string) string {
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return c.base + raw
}

// FetchAudio downloads synthesized audio for local playback.
func (c *Client) FetchAudio(ctx context.Context, audioURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.ResolveAudioURL(audioURL), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, &BackendError{Status: resp.StatusCode, Message: "audio fetch failed"}
	}
	return resp.Body, nil
}

// decodeBackend parses a response body, mapping undecodable bodies and
// non-2xx statuses onto BackendError.
func decodeBackend(resp *TracedResponse, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &BackendError{Status: resp.StatusCode, Message: snippet(resp.Body)}
		}
		return &BackendError{Status: resp.StatusCode, Message: "undecodable response: " + snippet(resp.Body)}
	}
	return nil
}

func backendFieldError(resp *TracedResponse, errField string) error {
	if errField != "" {
		return &BackendError{Status: resp.StatusCode, Message: errField}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &BackendError{Status: resp.StatusCode, Message: snippet(resp.Body)}
	}
	return nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max] + "..."
	}
	if s == "" {
		s = "empty body"
	}
	return s
}
