package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"lingo/audio"
	"lingo/beep"
	"lingo/config"
	"lingo/encoder"
	"lingo/log"
	"lingo/recorder"
)

// stdoutSink prints recorder events as parseable lines for the test
// driver.
type stdoutSink struct{}

func (stdoutSink) RecordingStart()       { fmt.Println("RECORDING_START") }
func (stdoutSink) RecordingStop()        { fmt.Println("RECORDING_STOP") }
func (stdoutSink) RecordingTick(float64) {}
func (stdoutSink) NoVoiceWarning()       { fmt.Println("NO_VOICE_WARNING") }
func (stdoutSink) VoiceCleared()         { fmt.Println("VOICE_CLEARED") }

// runTestMode drives a recording round trip from stdin commands against
// a fake capture device playing back a WAV file.
func runTestMode(cfg *config.Config, wavPath string) {
	beep.Disable()

	fakeCtx, err := audio.NewFakeContextFromWAV(wavPath, encoder.SampleRate, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	rec := recorder.New(fakeCtx, recorder.Config{
		Format: cfg.Audio.Format,
		Sink:   stdoutSink{},
	})

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "START":
			if _, err := rec.Start(context.Background()); err != nil {
				fmt.Printf("ERROR\t%v\n", err)
			}

		case cmd == "STOP":
			payload, err := rec.Stop(context.Background())
			if err != nil {
				fmt.Printf("ERROR\t%v\n", err)
				continue
			}
			res, err := backendClient.SpeechToSpeech(context.Background(), payload.Data, payload.Format, targetLang)
			if err != nil {
				fmt.Printf("ERROR\t%v\n", err)
				continue
			}
			log.TranslationText(res.Transcription, res.TranslatedText)
			fmt.Printf("RESULT\t%s\t%s\t%s\n", res.DetectedSourceLanguage, res.Transcription, res.TranslatedText)

		case cmd == "QUIT":
			rec.Close()
			os.Exit(0)

		case strings.HasPrefix(cmd, "TEXT "):
			text := strings.TrimPrefix(cmd, "TEXT ")
			res, err := backendClient.TranslateText(context.Background(), sourceLang, targetLang, text)
			if err != nil {
				fmt.Printf("ERROR\t%v\n", err)
				continue
			}
			fmt.Printf("RESULT\t\t%s\t%s\n", text, res.TranslatedText)

		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(strings.TrimPrefix(cmd, "SLEEP ")); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		}
	}
	rec.Close()
}
