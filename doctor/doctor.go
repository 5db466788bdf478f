// Package doctor runs interactive environment checks: microphone,
// backend reachability, playback binary and clipboard.
package doctor

import (
	"fmt"
	"net/http"
	"time"

	"lingo/audio"
	"lingo/clipboard"
	"lingo/player"
)

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(backendURL string) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("lingo doctor - system diagnostics")
	fmt.Println("=================================")

	allPass := true

	if !checkMicrophone() {
		allPass = false
	}
	if !checkBackend(backendURL) {
		allPass = false
	}
	if !checkPlayer() {
		allPass = false
	}
	if !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkMicrophone() bool {
	fmt.Println()
	fmt.Println("[1/4] Microphone")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}
	for _, d := range devices {
		tag := ""
		if audio.IsBluetooth(d.Name) {
			tag = "  [bluetooth: low capture quality]"
		}
		fmt.Printf("  found: %s%s\n", d.Name, tag)
	}
	fmt.Println("  PASS")
	return true
}

func checkBackend(backendURL string) bool {
	fmt.Println()
	fmt.Println("[2/4] Backend")
	fmt.Printf("  url: %s\n", backendURL)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(backendURL + "/")
	if err != nil {
		fmt.Printf("  FAIL: backend unreachable: %v\n", err)
		return false
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  FAIL: backend returned %s\n", resp.Status)
		return false
	}
	fmt.Println("  PASS")
	return true
}

func checkPlayer() bool {
	fmt.Println()
	fmt.Println("[3/4] Audio playback")

	p, err := player.New()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		fmt.Println("  install mpv or ffplay for translation playback")
		return false
	}
	fmt.Printf("  PASS: using %s\n", p.Binary())
	return true
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[4/4] Clipboard")

	probe := fmt.Sprintf("lingo-doctor-%d", time.Now().UnixNano())
	if err := clipboard.Copy(probe); err != nil {
		fmt.Printf("  FAIL: copy: %v\n", err)
		return false
	}
	got, err := clipboard.Read()
	if err != nil {
		fmt.Printf("  FAIL: read back: %v\n", err)
		return false
	}
	if got != probe {
		fmt.Println("  FAIL: clipboard contents did not round trip")
		return false
	}
	fmt.Println("  PASS")
	return true
}
