package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"lingo/translator"
)

const (
	whisperURL   = "https://api.groq.com/openai/v1/audio/transcriptions"
	whisperModel = "whisper-large-v3-turbo"
)

// WhisperAPI implements SpeechRecognizer against an OpenAI-compatible
// transcription endpoint.
type WhisperAPI struct {
	apiKey string
	apiURL string
	client *translator.TracedClient
}

func NewWhisperAPI(apiKey string) *WhisperAPI {
	return &WhisperAPI{
		apiKey: apiKey,
		apiURL: whisperURL,
		client: translator.NewTracedClient(whisperURL),
	}
}

type whisperResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (w *WhisperAPI) Transcribe(ctx context.Context, audio []byte, filename string) (string, string, error) {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		ext = "wav"
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "audio."+ext)
	if err != nil {
		return "", "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", "", err
	}
	writer.WriteField("model", whisperModel)
	writer.WriteField("response_format", "verbose_json")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", w.apiURL, &body)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+w.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return "", "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("transcription API error %d: %s", resp.StatusCode, string(resp.Body))
	}

	var wr whisperResponse
	if err := json.Unmarshal(resp.Body, &wr); err != nil {
		return "", "", fmt.Errorf("transcription response: %w", err)
	}
	return strings.TrimSpace(wr.Text), normalizeLangCode(wr.Language), nil
}

// normalizeLangCode maps the model's language names to the two-letter
// codes used everywhere else.
func normalizeLangCode(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" {
		return ""
	}
	if len(lang) == 2 && translator.KnownLanguage(lang) {
		return lang
	}
	for code, name := range translator.Languages {
		if strings.EqualFold(name, lang) {
			return code
		}
	}
	return ""
}
