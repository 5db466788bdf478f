// Package server is the translation backend: text translation,
// speech-to-speech, synthesized audio serving, login token minting and
// profile records. The HTTP contract matches the original product
// frontend: JSON bodies in, {"error": msg} with 400/500 on failure.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"lingo/profile"
	"lingo/translator"
)

// TextTranslator converts text between languages. An empty source
// auto-detects; the detected code is returned alongside the text.
type TextTranslator interface {
	Translate(ctx context.Context, source, target, text string) (translated, detectedSource string, err error)
}

// Synthesizer renders text to MP3 speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// SpeechRecognizer transcribes an uploaded recording, reporting the
// detected language when the model provides one.
type SpeechRecognizer interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (text, lang string, err error)
}

type Config struct {
	AudioDir    string
	TokenSecret []byte
	AccessCode  string
	TokenTTL    time.Duration
}

type Server struct {
	app      *fiber.App
	cfg      Config
	trans    TextTranslator
	tts      Synthesizer
	stt      SpeechRecognizer
	profiles profile.Store
}

func New(cfg Config, trans TextTranslator, tts Synthesizer, stt SpeechRecognizer, profiles profile.Store) (*Server, error) {
	if err := os.MkdirAll(cfg.AudioDir, 0o755); err != nil {
		return nil, fmt.Errorf("audio dir: %w", err)
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 30 * 24 * time.Hour
	}

	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             32 << 20,
		}),
		cfg:      cfg,
		trans:    trans,
		tts:      tts,
		stt:      stt,
		profiles: profiles,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Use(requestLogger)

	s.app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "Speech-to-Speech Translator API"})
	})
	s.app.Post("/translate", s.handleTranslate)
	s.app.Post("/speech-to-speech", s.handleSpeechToSpeech)
	s.app.Get("/audio/:filename", s.handleAudio)
	s.app.Post("/login", s.handleLogin)
	s.app.Get("/profile/:uid", s.handleProfileGet)
	s.app.Put("/profile/:uid", s.handleProfilePut)
}

// App exposes the fiber app for in-process tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	log.Info().Str("addr", addr).Msg("backend listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("took", time.Since(start)).
		Msg("request")
	return err
}

func errJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

type translateRequest struct {
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	Text           string `json:"text"`
}

func (s *Server) handleTranslate(c *fiber.Ctx) error {
	var req translateRequest
	if err := c.BodyParser(&req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if req.SourceLanguage == "" || req.TargetLanguage == "" || req.Text == "" {
		return errJSON(c, fiber.StatusBadRequest, "Missing required parameters")
	}
	if !translator.KnownLanguage(req.TargetLanguage) {
		return errJSON(c, fiber.StatusBadRequest, "unsupported target_language "+req.TargetLanguage)
	}

	translated, _, err := s.trans.Translate(c.Context(), req.SourceLanguage, req.TargetLanguage, req.Text)
	if err != nil {
		log.Error().Err(err).Msg("translation failed")
		return errJSON(c, fiber.StatusInternalServerError, "Translation failed")
	}

	audioURL, err := s.synthesizeToFile(c.Context(), translated, req.TargetLanguage)
	if err != nil {
		log.Error().Err(err).Msg("synthesis failed")
		return errJSON(c, fiber.StatusInternalServerError, "Speech synthesis failed")
	}

	return c.JSON(fiber.Map{
		"translated_text": translated,
		"audio_url":       audioURL,
	})
}

func (s *Server) handleSpeechToSpeech(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "No audio file provided")
	}
	target := c.FormValue("target_language")
	if target == "" {
		target = c.Query("target_language")
	}
	if target == "" {
		return errJSON(c, fiber.StatusBadRequest, "target_language required (e.g. 'hi' for Hindi)")
	}
	if !translator.KnownLanguage(target) {
		return errJSON(c, fiber.StatusBadRequest, "unsupported target_language "+target)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "unreadable audio upload")
	}
	audio, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "unreadable audio upload")
	}

	transcription, detected, err := s.stt.Transcribe(c.Context(), audio, fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Msg("transcription failed")
		return errJSON(c, fiber.StatusInternalServerError, "Transcription failed")
	}
	if detected == "" {
		detected = "auto"
	}

	source := detected
	if source == "auto" {
		source = ""
	}
	translated, googleDetected, err := s.trans.Translate(c.Context(), source, target, transcription)
	if err != nil {
		log.Error().Err(err).Msg("translation failed")
		return errJSON(c, fiber.StatusInternalServerError, "Translation failed")
	}
	if detected == "auto" && googleDetected != "" {
		detected = googleDetected
	}

	audioURL, err := s.synthesizeToFile(c.Context(), translated, target)
	if err != nil {
		log.Error().Err(err).Msg("synthesis failed")
		return errJSON(c, fiber.StatusInternalServerError, "Speech synthesis failed")
	}

	return c.JSON(fiber.Map{
		"transcription":            transcription,
		"translated_text":          translated,
		"audio_url":                audioURL,
		"detected_source_language": detected,
	})
}

// synthesizeToFile renders speech and stores it under a fresh uuid
// filename, returning the relative audio URL.
func (s *Server) synthesizeToFile(ctx context.Context, text, lang string) (string, error) {
	data, err := s.tts.Synthesize(ctx, text, lang)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("translated_audio_%s.mp3", strings.ReplaceAll(uuid.NewString(), "-", ""))
	if err := os.WriteFile(filepath.Join(s.cfg.AudioDir, name), data, 0o644); err != nil {
		return "", err
	}
	return "/audio/" + name, nil
}

func (s *Server) handleAudio(c *fiber.Ctx) error {
	name := c.Params("filename")
	// Only serve plain filenames generated by this server.
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return errJSON(c, fiber.StatusBadRequest, "invalid filename")
	}
	path := filepath.Join(s.cfg.AudioDir, name)
	if _, err := os.Stat(path); err != nil {
		return errJSON(c, fiber.StatusNotFound, "audio not found")
	}
	return c.SendFile(path)
}

func (s *Server) handleProfileGet(c *fiber.Ctx) error {
	rec, err := s.profiles.Get(c.Context(), c.Params("uid"))
	if err == profile.ErrNotFound {
		return errJSON(c, fiber.StatusNotFound, "profile not found")
	}
	if err != nil {
		log.Error().Err(err).Msg("profile read failed")
		return errJSON(c, fiber.StatusInternalServerError, "profile read failed")
	}
	return c.JSON(rec)
}

func (s *Server) handleProfilePut(c *fiber.Ctx) error {
	var rec profile.Record
	if err := c.BodyParser(&rec); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if rec.Email == "" {
		return errJSON(c, fiber.StatusBadRequest, "email required")
	}
	if err := s.profiles.Put(c.Context(), c.Params("uid"), &rec); err != nil {
		log.Error().Err(err).Msg("profile write failed")
		return errJSON(c, fiber.StatusInternalServerError, "profile write failed")
	}
	return c.Status(fiber.StatusCreated).JSON(rec)
}
