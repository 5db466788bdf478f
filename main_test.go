package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"lingo/recorder"
	"lingo/translator"
)

// captureUI swaps the UI sink for a recorder and restores it on cleanup.
func captureUI(t *testing.T) func() []tea.Msg {
	t.Helper()
	var mu sync.Mutex
	var msgs []tea.Msg
	prev := uiSink
	uiSink = func(m tea.Msg) {
		mu.Lock()
		msgs = append(msgs, m)
		mu.Unlock()
	}
	t.Cleanup(func() { uiSink = prev })
	return func() []tea.Msg {
		mu.Lock()
		defer mu.Unlock()
		return append([]tea.Msg(nil), msgs...)
	}
}

func setBackend(t *testing.T, handler http.Handler) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	prevClient, prevSource, prevTarget := backendClient, sourceLang, targetLang
	backendClient = translator.New(srv.URL)
	sourceLang, targetLang = "en", "hi"
	t.Cleanup(func() {
		backendClient, sourceLang, targetLang = prevClient, prevSource, prevTarget
	})
}

func speechHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/speech-to-speech", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"transcription":"hello","translated_text":"नमस्ते","audio_url":"/audio/s.mp3","detected_source_language":"en"}`)
	})
	mux.HandleFunc("/translate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"translated_text":"नमस्ते","audio_url":"/audio/t.mp3"}`)
	})
	return mux
}

func testPayload() *recorder.Payload {
	return &recorder.Payload{
		Data:     []byte{1, 2, 3, 4},
		Format:   "wav",
		Frames:   16000,
		Duration: time.Second,
	}
}

func TestStaleSpeechResultDiscarded(t *testing.T) {
	setBackend(t, speechHandler())
	got := captureUI(t)

	// The identity went away while the submission was in flight.
	gen := resultGen.Load()
	resultGen.Add(1)
	translateSpeech(testPayload(), gen)

	if msgs := got(); len(msgs) != 0 {
		t.Fatalf("stale result reached the UI: %v", msgs)
	}
}

func TestStaleTextResultDiscarded(t *testing.T) {
	setBackend(t, speechHandler())
	got := captureUI(t)

	gen := resultGen.Load()
	resultGen.Add(1)
	translateText("hello", gen)

	if msgs := got(); len(msgs) != 0 {
		t.Fatalf("stale result reached the UI: %v", msgs)
	}
}

func TestStaleErrorDiscarded(t *testing.T) {
	setBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"Translation failed"}`)
	}))
	got := captureUI(t)

	gen := resultGen.Load()
	resultGen.Add(1)
	translateSpeech(testPayload(), gen)

	if msgs := got(); len(msgs) != 0 {
		t.Fatalf("stale error reached the UI: %v", msgs)
	}
}

func TestFreshSpeechResultDelivered(t *testing.T) {
	setBackend(t, speechHandler())
	got := captureUI(t)

	translateSpeech(testPayload(), resultGen.Load())

	var res *ResultMsg
	for _, m := range got() {
		if r, ok := m.(ResultMsg); ok {
			res = &r
		}
	}
	if res == nil {
		t.Fatal("no ResultMsg delivered for a current generation")
	}
	if res.Translated != "नमस्ते" || res.Transcription != "hello" || res.Detected != "en" {
		t.Errorf("unexpected result: %+v", res)
	}
}
