package main

import (
	"fmt"
	"os"

	"lingo/config"
	"lingo/profile"
	"lingo/server"
	"lingo/shutdown"
)

// runServe starts the translation backend. API keys come from the
// environment (or .env), never from the config file.
func runServe(cfg *config.Config) {
	translateKey := os.Getenv(config.EnvTranslateKey)
	if translateKey == "" {
		fmt.Fprintf(os.Stderr, "Error: %s not set\n", config.EnvTranslateKey)
		os.Exit(1)
	}
	sttKey := os.Getenv(config.EnvSTTKey)
	if sttKey == "" {
		fmt.Fprintf(os.Stderr, "Warning: %s not set, speech-to-speech will fail\n", config.EnvSTTKey)
	}
	if os.Getenv(config.EnvTokenSecret) == "" || os.Getenv(config.EnvAccessCode) == "" {
		fmt.Fprintf(os.Stderr, "Warning: %s / %s not set, login disabled\n",
			config.EnvTokenSecret, config.EnvAccessCode)
	}

	profiles, err := profile.NewFile(cfg.Serve.ProfileDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: profile store: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		AudioDir:    cfg.Serve.AudioDir,
		TokenSecret: []byte(os.Getenv(config.EnvTokenSecret)),
		AccessCode:  os.Getenv(config.EnvAccessCode),
	},
		server.NewGoogleTranslate(translateKey),
		server.NewGoogleTTS(),
		server.NewWhisperAPI(sttKey),
		profiles,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		srv.Shutdown()
	}()

	fmt.Printf("lingo backend listening on %s\n", cfg.Serve.Addr)
	if err := srv.Listen(cfg.Serve.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
