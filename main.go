package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"lingo/audio"
	"lingo/auth"
	"lingo/beep"
	"lingo/clipboard"
	"lingo/config"
	"lingo/doctor"
	"lingo/encoder"
	"lingo/log"
	"lingo/player"
	"lingo/profile"
	"lingo/recorder"
	"lingo/shutdown"
	"lingo/translator"
	"lingo/waveform"
)

var version = "dev"

var (
	backendClient *translator.Client
	audioPlayer   *player.Player
	sourceLang    string
	targetLang    string
	activeFormat  string

	// resultGen invalidates in-flight translations when the signed-in
	// identity goes away; a completion with a stale generation is
	// discarded without touching the UI.
	resultGen atomic.Uint64

	shutdownOnce sync.Once
)

func main() { run() }

func gracefulShutdown(gate *auth.Gate) {
	shutdownOnce.Do(func() {
		if gate != nil {
			gate.Close()
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func modeLineText() string {
	return fmt.Sprintf("[%s | %s -> %s (%s)]", activeFormat, sourceLang, targetLang, translator.LanguageName(targetLang))
}

func run() {
	serveFlag := flag.Bool("serve", false, "Run the translation backend instead of the client")
	configFlag := flag.String("config", "", "Config file path (default: ~/.lingo/config.yaml)")
	fromFlag := flag.String("from", "", "Source language code (overrides config)")
	toFlag := flag.String("to", "", "Target language code (overrides config)")
	textFlag := flag.String("text", "", "Translate the given text and exit (no TUI)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	formatFlag := flag.String("format", "", "Recording format: flac or wav (overrides config)")
	tokenFlag := flag.String("token", "", "Token file path (overrides config)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("lingo %s\n", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flag overrides on top of file and environment.
	if *fromFlag != "" {
		cfg.Languages.Source = *fromFlag
	}
	if *toFlag != "" {
		cfg.Languages.Target = *toFlag
	}
	if *formatFlag != "" {
		cfg.Audio.Format = *formatFlag
	}
	if *deviceFlag != "" {
		cfg.Audio.Device = *deviceFlag
	}
	if *tokenFlag != "" {
		cfg.Auth.TokenPath = *tokenFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sourceLang = cfg.Languages.Source
	targetLang = cfg.Languages.Target
	activeFormat = cfg.Audio.Format

	if !translator.KnownLanguage(targetLang) {
		fmt.Fprintf(os.Stderr, "Error: unknown target language %q\n", targetLang)
		os.Exit(1)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(cfg.Backend.URL))
	}

	if *serveFlag {
		runServe(cfg)
		return
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	backendClient = translator.New(cfg.Backend.URL)
	backendClient.Warm()

	if p, err := player.New(); err != nil {
		log.Warnf("no audio player, playback disabled: %v", err)
	} else {
		audioPlayer = p
	}

	provider := auth.NewTokenProvider(cfg.Backend.URL, cfg.Auth.TokenPath)
	gate := auth.NewGate(provider)

	if *textFlag != "" {
		provider.Load()
		os.Exit(runOneShot(gate, *textFlag))
	}

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: lingo -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(cfg, args[0])
		return
	}

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if cfg.Audio.Device != "" {
		if devices, err := ctx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == cfg.Audio.Device {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			log.Warnf("configured device not found: %s", cfg.Audio.Device)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	rec := recorder.New(ctx, recorder.Config{
		Device: selectedDevice,
		Format: activeFormat,
		Sink:   tuiSink{},
	})

	intents := make(chan Intent, 8)
	tuiMu.Lock()
	tuiProgram = NewTUIProgram(intents)
	tuiMu.Unlock()

	go func() {
		if _, err := tuiProgram.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
			os.Exit(1)
		}
		gracefulShutdown(gate)
	}()

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)

	go beep.Init()

	tuiSend(ModeLineMsg{Text: modeLineText()})
	tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})

	profiles := profile.NewHTTP(cfg.Backend.URL)

	// Resolve the persisted token after the gate is subscribed so the
	// initial state flows through the same channel as later changes.
	go provider.Load()

	var viz *waveform.Visualizer
	wasAuthed := false

	stopViz := func() {
		if viz != nil {
			viz.Stop()
			viz = nil
		}
	}

	for {
		select {
		case ch := <-gate.Changes():
			email := ""
			if ch.Identity != nil {
				email = ch.Identity.Email
			}
			tuiSend(AuthMsg{State: ch.State, Email: email})
			if ch.State == auth.StateAuthenticated {
				wasAuthed = true
				id := ch.Identity
				go func() {
					if _, err := profile.Ensure(context.Background(), profiles, id); err != nil {
						log.Warnf("profile ensure failed: %v", err)
					}
				}()
			} else if wasAuthed {
				// Identity lost while the recording view was up: any
				// in-flight work is abandoned and the mic released.
				wasAuthed = false
				resultGen.Add(1)
				stopViz()
				rec.Close()
				log.Info("signed_out")
			}

		case in := <-intents:
			switch in := in.(type) {
			case ToggleRecordingIntent:
				if rec.Recording() {
					stopViz()
					stopAndTranslate(rec)
				} else {
					viz = startRecording(rec)
				}

			case SubmitTextIntent:
				gen := resultGen.Load()
				tuiSend(StatusMsg{Text: "translating..."})
				go translateText(in.Text, gen)

			case SignInIntent:
				go func(email, password string) {
					tuiSend(StatusMsg{Text: "signing in..."})
					if err := gate.SignIn(context.Background(), email, password); err != nil {
						log.Warnf("sign-in failed: %v", err)
						if errors.Is(err, auth.ErrBadCredentials) {
							tuiSend(ErrorMsg{Text: "invalid email or access code"})
						} else {
							tuiSend(ErrorMsg{Text: "sign-in failed: " + err.Error()})
						}
						return
					}
					tuiSend(StatusMsg{Text: ""})
				}(in.Email, in.Password)

			case SignOutIntent:
				go func() {
					if err := gate.SignOut(context.Background()); err != nil {
						log.Warnf("sign-out failed: %v", err)
					}
				}()

			case QuitIntent:
				stopViz()
				rec.Close()
				gracefulShutdown(gate)
			}

		case <-sigChan:
			stopViz()
			rec.Close()
			gracefulShutdown(gate)
		}
	}
}

// startRecording begins a session and attaches the waveform tap. A
// waveform failure is cosmetic; the recording itself proceeds.
func startRecording(rec *recorder.Controller) *waveform.Visualizer {
	sess, err := rec.Start(context.Background())
	if err != nil {
		log.Errorf("recording start error: %v", err)
		tuiSend(ErrorMsg{Text: describeRecordErr(err)})
		beep.PlayError()
		return nil
	}
	log.Info("recording_start")

	viz, err := waveform.Start(sess.Handle(), waveformSink())
	if err != nil {
		log.Warnf("waveform start failed: %v", err)
		return nil
	}
	return viz
}

func stopAndTranslate(rec *recorder.Controller) {
	payload, err := rec.Stop(context.Background())
	if err != nil {
		if !errors.Is(err, recorder.ErrNotRecording) {
			log.Errorf("recording stop error: %v", err)
			tuiSend(ErrorMsg{Text: err.Error()})
		}
		return
	}
	log.Info("recording_stop")

	if payload.Frames < uint64(encoder.SampleRate/10) {
		tuiSend(StatusMsg{Text: "(recording too short)"})
		return
	}

	gen := resultGen.Load()
	tuiSend(StatusMsg{Text: "translating..."})
	go translateSpeech(payload, gen)
}

func describeRecordErr(err error) string {
	switch {
	case errors.Is(err, recorder.ErrBusy):
		return "already recording"
	case errors.Is(err, recorder.ErrPermissionDenied):
		return "microphone permission denied"
	case errors.Is(err, recorder.ErrDeviceUnavailable):
		return "microphone unavailable"
	}
	return err.Error()
}

func translateSpeech(payload *recorder.Payload, gen uint64) {
	res, err := backendClient.SpeechToSpeech(context.Background(), payload.Data, payload.Format, targetLang)
	if resultGen.Load() != gen {
		log.Info("stale_result_discarded")
		return
	}
	if err != nil {
		reportTranslateErr(err)
		return
	}

	copied := clipboard.Copy(res.TranslatedText) == nil
	log.TranslationText(res.Transcription, res.TranslatedText)
	logSpeechMetrics(payload, res.Metrics)

	uiSink(ResultMsg{
		Transcription: res.Transcription,
		Translated:    res.TranslatedText,
		Detected:      res.DetectedSourceLanguage,
		Metrics:       metricLines(payload, res.Metrics),
		Copied:        copied,
	})

	playResult(res.AudioURL, gen)
}

func translateText(text string, gen uint64) {
	res, err := backendClient.TranslateText(context.Background(), sourceLang, targetLang, text)
	if resultGen.Load() != gen {
		log.Info("stale_result_discarded")
		return
	}
	if err != nil {
		reportTranslateErr(err)
		return
	}

	copied := clipboard.Copy(res.TranslatedText) == nil
	log.TranslationText(text, res.TranslatedText)

	uiSink(ResultMsg{
		Transcription: text,
		Translated:    res.TranslatedText,
		Metrics:       metricLines(nil, res.Metrics),
		Copied:        copied,
	})

	playResult(res.AudioURL, gen)
}

func reportTranslateErr(err error) {
	log.Errorf("translation error: %v", err)
	var msg string
	switch {
	case translator.IsValidation(err):
		msg = err.Error()
	default:
		var be *translator.BackendError
		if errors.As(err, &be) {
			msg = be.Message
		} else {
			msg = "backend unreachable: " + err.Error()
		}
	}
	uiSink(ErrorMsg{Text: msg})
	beep.PlayError()
}

// playResult fetches the synthesized audio and plays it. The client
// never returns a result without an audio URL, but playback is still
// best-effort: a fetch or player failure only logs.
func playResult(audioURL string, gen uint64) {
	if audioPlayer == nil || audioURL == "" {
		return
	}
	data, err := backendClient.FetchAudio(context.Background(), audioURL)
	if err != nil {
		log.Warnf("audio fetch failed: %v", err)
		return
	}
	if resultGen.Load() != gen {
		return
	}
	uiSink(StatusMsg{Text: "playing..."})
	if err := audioPlayer.PlayBytes(context.Background(), data, player.AudioExt(audioURL)); err != nil {
		log.Warnf("playback failed: %v", err)
	}
	uiSink(StatusMsg{Text: ""})
}

func logSpeechMetrics(payload *recorder.Payload, nm *translator.NetworkMetrics) {
	if nm == nil {
		return
	}
	rawKB := float64(payload.Frames*2) / 1024.0
	compKB := float64(len(payload.Data)) / 1024.0
	compPct := 0.0
	if rawKB > 0 {
		compPct = (1 - compKB/rawKB) * 100
	}
	log.TranslationMetrics(log.Metrics{
		AudioLengthS:     payload.Duration.Seconds(),
		RawSizeKB:        rawKB,
		CompressedSizeKB: compKB,
		CompressionPct:   compPct,
		DNSTimeMs:        float64(nm.DNS.Milliseconds()),
		TLSTimeMs:        float64(nm.TLS.Milliseconds()),
		TTFBMs:           float64(nm.TTFB.Milliseconds()),
		TotalTimeMs:      float64(nm.Total.Milliseconds()),
	}, "speech", payload.Format, targetLang, nm.ConnReused)
}

func metricLines(payload *recorder.Payload, nm *translator.NetworkMetrics) []string {
	var lines []string
	if payload != nil {
		lines = append(lines, fmt.Sprintf("audio: %.1fs  %s: %.1f KB",
			payload.Duration.Seconds(), payload.Format, float64(len(payload.Data))/1024.0))
	}
	if nm != nil {
		lines = append(lines, fmt.Sprintf("ttfb: %dms  total: %dms",
			nm.TTFB.Milliseconds(), nm.Total.Milliseconds()))
	}
	return lines
}

// runOneShot translates a single piece of text from the command line.
func runOneShot(gate *auth.Gate, text string) int {
	if gate.State() != auth.StateAuthenticated {
		fmt.Fprintln(os.Stderr, "Error: not signed in (run lingo and press 's' to sign in)")
		return 1
	}

	res, err := backendClient.TranslateText(context.Background(), sourceLang, targetLang, text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(res.TranslatedText)
	clipboard.Copy(res.TranslatedText)
	log.TranslationText(text, res.TranslatedText)

	if audioPlayer != nil && res.AudioURL != "" {
		if data, err := backendClient.FetchAudio(context.Background(), res.AudioURL); err == nil {
			audioPlayer.PlayBytes(context.Background(), data, player.AudioExt(res.AudioURL))
		}
	}
	return 0
}
