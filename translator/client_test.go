package translator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTranslateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate" || r.Method != "POST" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req translateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.SourceLanguage != "en" || req.TargetLanguage != "hi" || req.Text != "hello" {
			t.Errorf("unexpected payload %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"translated_text": "नमस्ते",
			"audio_url":       "/audio/abc.mp3",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.TranslateText(context.Background(), "en", "hi", "hello")
	if err != nil {
		t.Fatalf("TranslateText: %v", err)
	}
	if res.TranslatedText != "नमस्ते" {
		t.Errorf("translated = %q", res.TranslatedText)
	}
	if !res.HasAudio() {
		t.Error("expected audio")
	}
	if got := c.ResolveAudioURL(res.AudioURL); got != srv.URL+"/audio/abc.mp3" {
		t.Errorf("resolved audio URL = %q", got)
	}
}

func TestTranslateTextValidation(t *testing.T) {
	c := New("http://backend.invalid")
	tests := []struct {
		name                 string
		source, target, text string
	}{
		{"empty text", "en", "hi", "  "},
		{"bad source", "english", "hi", "hello"},
		{"bad target", "en", "xx", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.TranslateText(context.Background(), tt.source, tt.target, tt.text)
			if !IsValidation(err) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestTranslateTextBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Translation failed"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.TranslateText(context.Background(), "en", "fr", "hello")
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BackendError", err)
	}
	if be.Status != 500 || be.Message != "Translation failed" {
		t.Errorf("got %+v", be)
	}
}

func TestTranslateTextMissingTranslation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"audio_url": "/audio/x.mp3"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.TranslateText(context.Background(), "en", "fr", "hello"); err == nil {
		t.Fatal("expected error for response without translated_text")
	}
}

func TestSpeechToSpeech(t *testing.T) {
	audio := []byte("RIFFfakewavdata")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/speech-to-speech" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("target_language"); got != "es" {
			t.Errorf("target_language = %q", got)
		}
		f, hdr, err := r.FormFile("audio")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "recording.wav" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		uploaded, _ := io.ReadAll(f)
		if string(uploaded) != string(audio) {
			t.Error("uploaded bytes differ from recording")
		}
		json.NewEncoder(w).Encode(map[string]string{
			"transcription":            "hello there",
			"translated_text":          "hola",
			"audio_url":                "/audio/out.mp3",
			"detected_source_language": "en",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.SpeechToSpeech(context.Background(), audio, "wav", "es")
	if err != nil {
		t.Fatalf("SpeechToSpeech: %v", err)
	}
	if res.Transcription != "hello there" || res.TranslatedText != "hola" {
		t.Errorf("result = %+v", res)
	}
	if res.DetectedSourceLanguage != "en" {
		t.Errorf("detected language = %q", res.DetectedSourceLanguage)
	}
	if !res.HasAudio() {
		t.Error("expected audio")
	}
}

func TestSpeechToSpeechNoAudioURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"transcription":   "hi",
			"translated_text": "salut",
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SpeechToSpeech(context.Background(), []byte("x"), "flac", "fr")
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BackendError for missing audio_url", err)
	}
	if !strings.Contains(be.Message, "audio_url") {
		t.Errorf("message = %q", be.Message)
	}
}

func TestSpeechToSpeechValidation(t *testing.T) {
	c := New("http://backend.invalid")
	if _, err := c.SpeechToSpeech(context.Background(), nil, "wav", "fr"); !IsValidation(err) {
		t.Errorf("empty audio: err = %v, want ValidationError", err)
	}
	if _, err := c.SpeechToSpeech(context.Background(), []byte("x"), "mp3", "fr"); !IsValidation(err) {
		t.Errorf("bad format: err = %v, want ValidationError", err)
	}
	if _, err := c.SpeechToSpeech(context.Background(), []byte("x"), "wav", "klingon"); !IsValidation(err) {
		t.Errorf("bad target: err = %v, want ValidationError", err)
	}
}

func TestSpeechToSpeechUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.SpeechToSpeech(context.Background(), []byte("x"), "wav", "fr")
	var be *BackendError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want BackendError", err)
	}
	if be.Status != http.StatusBadGateway {
		t.Errorf("status = %d", be.Status)
	}
}

func TestFetchAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/out.mp3" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("mp3bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	data, err := c.FetchAudio(context.Background(), "/audio/out.mp3")
	if err != nil {
		t.Fatalf("FetchAudio: %v", err)
	}
	if string(data) != "mp3bytes" {
		t.Errorf("data = %q", data)
	}

	if _, err := c.FetchAudio(context.Background(), "/audio/missing.mp3"); err == nil {
		t.Error("expected error for missing audio")
	}
}

func TestResolveAudioURL(t *testing.T) {
	c := New("http://backend:5000/")
	tests := []struct{ in, want string }{
		{"/audio/a.mp3", "http://backend:5000/audio/a.mp3"},
		{"audio/a.mp3", "http://backend:5000/audio/a.mp3"},
		{"https://cdn.example.com/a.mp3", "https://cdn.example.com/a.mp3"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := c.ResolveAudioURL(tt.in); got != tt.want {
			t.Errorf("ResolveAudioURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLanguages(t *testing.T) {
	if !KnownLanguage("en") || KnownLanguage("zz") {
		t.Error("KnownLanguage misclassified")
	}
	if LanguageName("hi") != "Hindi" {
		t.Errorf("LanguageName(hi) = %q", LanguageName("hi"))
	}
	if LanguageName("zz") != "zz" {
		t.Errorf("LanguageName(zz) = %q", LanguageName("zz"))
	}
	codes := LanguageCodes()
	if len(codes) != len(Languages) {
		t.Errorf("codes = %d, want %d", len(codes), len(Languages))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatal("codes not sorted")
		}
	}
}
