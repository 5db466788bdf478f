//go:build integration

package test_test

import (
	"encoding/binary"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("LINGO_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "LINGO_TEST_BIN not set; run: make test-integration")
		os.Exit(1)
	}

	tonePath := filepath.Join("data", "tone.wav")
	if err := generateToneWAV(tonePath, 16000, 1.0); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate tone.wav: %v\n", err)
		os.Exit(1)
	}
	defer os.Remove(tonePath)

	os.Exit(m.Run())
}

// generateToneWAV writes a 440Hz sine so the recording carries signal.
func generateToneWAV(path string, sampleRate int, durationS float64) error {
	const headerSize = 44
	numSamples := int(float64(sampleRate) * durationS)
	dataSize := numSamples * 2

	buf := make([]byte, headerSize+dataSize)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(headerSize-8+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(buf[34:36], 16) // bits per sample
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i := 0; i < numSamples; i++ {
		sample := int16(10000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(buf[headerSize+i*2:], uint16(sample))
	}
	return os.WriteFile(path, buf, 0644)
}

// fakeBackend speaks the backend contract well enough for the client
// to complete a round trip.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/translate", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"translated_text":"नमस्ते","audio_url":"/audio/t.mp3"}`)
	})
	mux.HandleFunc("/speech-to-speech", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"No audio file provided"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"transcription":"hello","translated_text":"नमस्ते","audio_url":"/audio/s.mp3","detected_source_language":"en"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, backendURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf("backend:\n  url: %s\nlanguages:\n  source: en\n  target: hi\naudio:\n  format: flac\n", backendURL)
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func runLingo(t *testing.T, stdin, configPath string, args ...string) (output, logDir string) {
	t.Helper()
	logDir = t.TempDir()
	cmdArgs := append([]string{"-logpath", logDir, "-config", configPath}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = append(os.Environ(), "LINGO_STATE_DIR="+t.TempDir())

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("lingo exited with error: %v\noutput: %s", err, out)
	}
	return string(out), logDir
}

func readLog(t *testing.T, logDir, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(logDir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		t.Fatalf("failed to read %s: %v", filename, err)
	}
	return string(data)
}

func TestSpeechRoundTrip(t *testing.T) {
	backend := fakeBackend(t)
	cfgPath := writeConfig(t, backend.URL)

	out, logDir := runLingo(t, cmds("START", "STOP", "QUIT"), cfgPath, "-test", "data/tone.wav")

	if !strings.Contains(out, "RECORDING_START") || !strings.Contains(out, "RECORDING_STOP") {
		t.Fatalf("missing recording events in output:\n%s", out)
	}
	if !strings.Contains(out, "RESULT\ten\thello\tनमस्ते") {
		t.Fatalf("missing translation result in output:\n%s", out)
	}

	text := readLog(t, logDir, "translation_log.txt")
	if !strings.Contains(text, "नमस्ते") {
		t.Fatalf("translation_log.txt missing translated text:\n%s", text)
	}
}

func TestTextCommand(t *testing.T) {
	backend := fakeBackend(t)
	cfgPath := writeConfig(t, backend.URL)

	out, _ := runLingo(t, cmds("TEXT hello there", "QUIT"), cfgPath, "-test", "data/tone.wav")
	if !strings.Contains(out, "नमस्ते") {
		t.Fatalf("missing translation in output:\n%s", out)
	}
}

func TestBackendDown(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1")

	out, _ := runLingo(t, cmds("START", "STOP", "QUIT"), cfgPath, "-test", "data/tone.wav")
	if !strings.Contains(out, "ERROR") {
		t.Fatalf("expected ERROR line when backend unreachable:\n%s", out)
	}
}

func TestStopWithoutStart(t *testing.T) {
	backend := fakeBackend(t)
	cfgPath := writeConfig(t, backend.URL)

	out, _ := runLingo(t, cmds("STOP", "QUIT"), cfgPath, "-test", "data/tone.wav")
	if !strings.Contains(out, "ERROR") {
		t.Fatalf("expected ERROR line for stop without start:\n%s", out)
	}
}
