package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const googleTranslateURL = "https://translation.googleapis.com/language/translate/v2"

// GoogleTranslate implements TextTranslator against the Cloud
// Translation v2 REST API.
type GoogleTranslate struct {
	apiKey string
	base   string
	client *http.Client
}

func NewGoogleTranslate(apiKey string) *GoogleTranslate {
	return &GoogleTranslate{
		apiKey: apiKey,
		base:   googleTranslateURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type googleTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source,omitempty"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type googleTranslateResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText         string `json:"translatedText"`
			DetectedSourceLanguage string `json:"detectedSourceLanguage"`
		} `json:"translations"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *GoogleTranslate) Translate(ctx context.Context, source, target, text string) (string, string, error) {
	body, err := json.Marshal(googleTranslateRequest{
		Q:      text,
		Source: source,
		Target: target,
		Format: "text",
	})
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.base+"?key="+g.apiKey, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var gr googleTranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", "", fmt.Errorf("translate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := gr.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return "", "", fmt.Errorf("translate API: %s", msg)
	}
	if len(gr.Data.Translations) == 0 {
		return "", "", fmt.Errorf("translate API returned no translations")
	}
	tr := gr.Data.Translations[0]
	return tr.TranslatedText, tr.DetectedSourceLanguage, nil
}
